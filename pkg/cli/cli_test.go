package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv 環境変数の影響を受けないようにする
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestParseArgs_ValidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name:     "デフォルト設定",
			args:     []string{},
			expected: Config{LogLevel: "info", TickMS: DefaultTickMS},
		},
		{
			name:     "シーン指定",
			args:     []string{"drums.txt"},
			expected: Config{ScenePath: "drums.txt", LogLevel: "info", TickMS: DefaultTickMS},
		},
		{
			name:     "タイムアウト指定",
			args:     []string{"--timeout", "10"},
			expected: Config{Timeout: 10 * time.Second, LogLevel: "info", TickMS: DefaultTickMS},
		},
		{
			name:     "タイムアウト指定（短縮形）",
			args:     []string{"-t", "5"},
			expected: Config{Timeout: 5 * time.Second, LogLevel: "info", TickMS: DefaultTickMS},
		},
		{
			name:     "ログレベル指定（短縮形、大文字）",
			args:     []string{"-l", "DEBUG"},
			expected: Config{LogLevel: "debug", TickMS: DefaultTickMS},
		},
		{
			name:     "ティック指定",
			args:     []string{"--tick=25"},
			expected: Config{LogLevel: "info", TickMS: 25},
		},
		{
			name: "スナップショット指定",
			args: []string{"--snapshot-in", "a.cbor", "--snapshot-out", "b.cbor"},
			expected: Config{
				SnapshotIn:  "a.cbor",
				SnapshotOut: "b.cbor",
				LogLevel:    "info",
				TickMS:      DefaultTickMS,
			},
		},
		{
			name: "位置引数がフラグの前",
			args: []string{"drums.txt", "-t", "3", "-h"},
			expected: Config{
				ScenePath: "drums.txt",
				Timeout:   3 * time.Second,
				LogLevel:  "info",
				TickMS:    DefaultTickMS,
				ShowHelp:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *config != tt.expected {
				t.Errorf("got %+v, want %+v", *config, tt.expected)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"負のタイムアウト", []string{"-t", "-5"}},
		{"無効なログレベル", []string{"--log-level", "loud"}},
		{"ティック範囲外", []string{"--tick", "0"}},
		{"未知のフラグ", []string{"--frobnicate"}},
		{"存在しない設定ファイル", []string{"--config", "/nonexistent/ttcore.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArgs(tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_Environment(t *testing.T) {
	t.Setenv("TIMEOUT", "30")
	t.Setenv("LOG_LEVEL", "Warn")

	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Timeout != 30*time.Second || config.LogLevel != "warn" {
		t.Errorf("environment not applied: %+v", *config)
	}

	// コマンドラインフラグが優先
	config, err = ParseArgs([]string{"-t", "2", "-l", "error"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Timeout != 2*time.Second || config.LogLevel != "error" {
		t.Errorf("flags should override the environment: %+v", *config)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ttcore.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestParseArgs_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[log]
level = "debug"

[engine]
tick_ms = 5

[run]
timeout = 60
scene = "bank"
snapshot = "out.cbor"
`)

	config, err := ParseArgs([]string{"--config", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{
		ConfigPath:  path,
		ScenePath:   "bank",
		SnapshotOut: "out.cbor",
		Timeout:     60 * time.Second,
		LogLevel:    "debug",
		TickMS:      5,
	}
	if *config != want {
		t.Errorf("got %+v, want %+v", *config, want)
	}

	// フラグと位置引数が設定ファイルより優先
	config, err = ParseArgs([]string{"--config", path, "--tick", "20", "other.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.TickMS != 20 || config.ScenePath != "other.txt" || config.LogLevel != "debug" {
		t.Errorf("override failed: %+v", *config)
	}
}

func TestParseArgs_BadConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[engine\ntick_ms = ")
	if _, err := ParseArgs([]string{"--config", path}); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"scene.txt", "-t", "5", "--help", "--tick=3"})
	want := []string{"-t", "5", "--help", "--tick=3", "scene.txt"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("reorderArgs = %v, want %v", got, want)
	}
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	PrintHelp(&buf)
	for _, s := range []string{"--snapshot-out", "--config", "LOG_LEVEL"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("help text missing %q", s)
		}
	}
}
