package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zurustar/ttcore/pkg/logger"
)

// Defaults.
const (
	DefaultLogLevel = "info"
	DefaultTickMS   = 10
	MaxTickMS       = 1000
)

// Config はコマンドライン引数・環境変数・設定ファイルから解析された設定を保持する
type Config struct {
	ConfigPath  string        // 設定ファイル（TOML）のパス
	ScenePath   string        // シーンファイルまたはシーンディレクトリのパス
	SnapshotIn  string        // 起動時に読み込むスナップショット
	SnapshotOut string        // 終了時に保存するスナップショット
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	TickMS      int           // エンジンのティック間隔（ミリ秒）
	ShowHelp    bool          // ヘルプ表示フラグ
}

// FileConfig は設定ファイルの内容
type FileConfig struct {
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Engine struct {
		TickMS int `toml:"tick_ms"`
	} `toml:"engine"`
	Run struct {
		Timeout    int    `toml:"timeout"`
		Scene      string `toml:"scene"`
		Snapshot   string `toml:"snapshot"`
		SnapshotIn string `toml:"snapshot_in"`
	} `toml:"run"`
}

// LoadFile 設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &fc, nil
}

// apply 設定ファイルの値のうち指定されているものを反映する
func (fc *FileConfig) apply(c *Config) {
	if fc.Log.Level != "" {
		c.LogLevel = fc.Log.Level
	}
	if fc.Engine.TickMS != 0 {
		c.TickMS = fc.Engine.TickMS
	}
	if fc.Run.Timeout != 0 {
		c.Timeout = time.Duration(fc.Run.Timeout) * time.Second
	}
	if fc.Run.Scene != "" {
		c.ScenePath = fc.Run.Scene
	}
	if fc.Run.Snapshot != "" {
		c.SnapshotOut = fc.Run.Snapshot
	}
	if fc.Run.SnapshotIn != "" {
		c.SnapshotIn = fc.Run.SnapshotIn
	}
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: コマンドラインフラグ > 環境変数 > 設定ファイル > デフォルト値
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("ttcore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		flagConfig, flagLevel, flagIn, flagOut string
		flagTimeout, flagTick                  int
		showHelp                               bool
	)
	fs.StringVar(&flagConfig, "config", "", "設定ファイル（TOML）")
	fs.IntVar(&flagTimeout, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&flagTimeout, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&flagLevel, "log-level", DefaultLogLevel, "ログレベル（debug, info, warn, error）")
	fs.StringVar(&flagLevel, "l", DefaultLogLevel, "ログレベル（短縮形）")
	fs.IntVar(&flagTick, "tick", DefaultTickMS, "ティック間隔（ミリ秒）")
	fs.StringVar(&flagIn, "snapshot-in", "", "起動時に読み込むスナップショット")
	fs.StringVar(&flagOut, "snapshot-out", "", "終了時に保存するスナップショット")
	fs.BoolVar(&showHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&showHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	config := &Config{
		ConfigPath: flagConfig,
		LogLevel:   DefaultLogLevel,
		TickMS:     DefaultTickMS,
		ShowHelp:   showHelp,
	}

	// 設定ファイル
	if config.ConfigPath != "" {
		fc, err := LoadFile(config.ConfigPath)
		if err != nil {
			return nil, err
		}
		fc.apply(config)
	}

	// 環境変数
	if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
		if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
			config.Timeout = time.Duration(t) * time.Second
		}
	}
	if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
		config.LogLevel = logLevelEnv
	}

	// コマンドラインフラグ（明示的に指定されたもののみ）
	var badTimeout bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timeout", "t":
			badTimeout = flagTimeout < 0
			config.Timeout = time.Duration(flagTimeout) * time.Second
		case "log-level", "l":
			config.LogLevel = flagLevel
		case "tick":
			config.TickMS = flagTick
		case "snapshot-in":
			config.SnapshotIn = flagIn
		case "snapshot-out":
			config.SnapshotOut = flagOut
		}
	})

	// 位置引数（シーンファイルのパス）
	if fs.NArg() > 0 {
		config.ScenePath = fs.Arg(0)
	}

	// 検証
	if badTimeout || config.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", flagTimeout)
	}
	if config.TickMS < 1 || config.TickMS > MaxTickMS {
		return nil, fmt.Errorf("tick must be between 1 and %d ms, got %d", MaxTickMS, config.TickMS)
	}
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が別の引数になっている場合
			if strings.Contains(arg, "=") {
				continue
			}
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				// ブール型フラグでない場合は次の引数も追加
				if arg != "-h" && arg != "--help" && arg != "-help" {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `ttcore - realtime script engine

Usage:
  ttcore [options] [scene]

Arguments:
  scene         シーンファイル（.txt）またはシーンファイルを含むディレクトリ
                ディレクトリを指定した場合、SCENE で切り替え可能なシーンバンクとして読み込む

Options:
  --config <file>             設定ファイル（TOML）
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --tick <ms>                 ティック間隔（デフォルト: %d）
  --snapshot-in <file>        起動時にスナップショットからシーンを復元
  --snapshot-out <file>       終了時にシーンをスナップショットとして保存
  -h, --help                  このヘルプを表示

Environment Variables:
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Input:
  標準入力の各行はライブコマンドとして実行される
  !1 - !8   トリガー入力  !M  メトロ  !I  INIT  !RESET  エンジンをリセット

Examples:
  ttcore drums.txt
  ttcore --timeout 10 --snapshot-out saved.cbor drums.txt
  ttcore --config ttcore.toml
`, DefaultTickMS)
}
