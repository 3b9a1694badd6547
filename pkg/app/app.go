package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zurustar/ttcore/pkg/cli"
	"github.com/zurustar/ttcore/pkg/engine"
	"github.com/zurustar/ttcore/pkg/fileutil"
	"github.com/zurustar/ttcore/pkg/logger"
	"github.com/zurustar/ttcore/pkg/ops"
	"github.com/zurustar/ttcore/pkg/scene"
	"github.com/zurustar/ttcore/pkg/scheduler"
	"github.com/zurustar/ttcore/pkg/script"
	"github.com/zurustar/ttcore/pkg/snapshot"
)

// errInputClosed は標準入力が閉じられたことを示す
var errInputClosed = errors.New("input closed")

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	session string // 実行ごとの識別子（ログに付与）

	in     io.Reader
	out    io.Writer
	logOut io.Writer
	outMu  sync.Mutex

	table *ops.Table
	eng   *engine.Engine
	sched *scheduler.Scheduler

	bank    []script.File // シーンバンク（ディレクトリ指定時）
	current int           // 現在のシーン番号
}

// Option はApplicationの設定を変更する
type Option func(*Application)

// WithInput 入力（ライブコマンド）を指定
func WithInput(r io.Reader) Option {
	return func(app *Application) { app.in = r }
}

// WithOutput 出力（コマンドの結果）を指定
func WithOutput(w io.Writer) Option {
	return func(app *Application) { app.out = w }
}

// WithLogOutput ログの出力先を指定
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) { app.logOut = w }
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		in:     os.Stdin,
		out:    os.Stdout,
		logOut: os.Stderr,
		table:  ops.NewTable(),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	return app.RunContext(context.Background(), args)
}

// RunContext ctxがキャンセルされるか、タイムアウトか、入力が終わるまで実行
func (app *Application) RunContext(ctx context.Context, args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp(app.out)
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLoggerWithWriter(config.LogLevel, app.logOut); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.session = uuid.New().String()
	app.log = logger.GetLogger().With("session", app.session)
	app.log.Info("Application started", "tick_ms", config.TickMS)

	// 3. シーンの読み込み
	sc, err := app.loadScene()
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}

	// 4. エンジンとスケジューラの構築
	app.eng = engine.New(sc, app.table,
		engine.WithLogger(app.log),
		engine.WithOutput(&logOutput{log: app.log}),
	)
	app.sched = scheduler.New(app.eng,
		scheduler.WithLogger(app.log),
		scheduler.WithResultFunc(app.onResult),
	)

	// 5. INITスクリプト
	app.runInit()

	// 6. メインループ
	if err := app.loop(ctx); err != nil {
		return err
	}

	// 7. スナップショットの保存
	if config.SnapshotOut != "" {
		if err := snapshot.SaveFile(config.SnapshotOut, app.eng.Scene()); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		app.log.Info("Snapshot saved", "path", config.SnapshotOut)
	}

	app.log.Info("Application terminated normally", "clock_ms", app.eng.Clock(), "dropped", app.sched.Dropped())
	return nil
}

// loadScene スナップショット、シーンファイル、シーンディレクトリの順に読み込む
func (app *Application) loadScene() (*scene.Scene, error) {
	loader := script.NewLoader(app.table)

	if app.config.ScenePath != "" {
		path, err := fileutil.ResolvePath(app.config.ScenePath)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			app.bank, err = loader.LoadDir(path)
		} else {
			var f *script.File
			f, err = loader.LoadFile(path)
			if f != nil {
				app.bank = []script.File{*f}
			}
		}
		if err != nil {
			return nil, err
		}
		for i, f := range app.bank {
			app.log.Info("Scene loaded", "scene", i, "file", f.FileName, "repaired", f.Repaired)
			app.log.Debug("Scene description", "scene", i, "text", f.Description)
		}
	}

	if app.config.SnapshotIn != "" {
		path, err := fileutil.ResolvePath(app.config.SnapshotIn)
		if err != nil {
			return nil, err
		}
		sc, err := snapshot.LoadFile(path)
		if err != nil {
			return nil, err
		}
		app.current = int(sc.Variables.Scene)
		app.log.Info("Snapshot restored", "path", path, "scene", app.current)
		return sc, nil
	}

	if len(app.bank) == 0 {
		app.log.Info("No scene given, starting empty")
		return scene.New(), nil
	}
	return app.sceneFromBank(0), nil
}

// sceneFromBank バンクのシーンを複製して返す（バンク自体は変更しない）
func (app *Application) sceneFromBank(n int) *scene.Scene {
	sc := *app.bank[n].Scene
	sc.Variables.Scene = int16(n)
	return &sc
}

func (app *Application) runInit() {
	res, err := app.eng.Init()
	if err != nil {
		app.log.Warn("Init script failed", "error", err)
		return
	}
	app.log.Debug("Init script finished", "lines", res.Lines, "faults", res.Faults)
}

// loop スケジューラ、ティッカー、入力処理を並行に動かす
func (app *Application) loop(ctx context.Context) error {
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	// 入力の読み取りはキャンセルできないので、グループの外で行う
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go readLines(app.in, lines, done)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.sched.Run(gctx)
	})
	g.Go(func() error {
		return app.tick(gctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case line, ok := <-lines:
				if !ok {
					return errInputClosed
				}
				app.handleLine(line)
			}
		}
	})

	err := g.Wait()
	// 受け付け済みのイベントを処理してから終了
	app.sched.Drain()

	switch {
	case errors.Is(err, errInputClosed):
		app.log.Info("Input closed, terminating")
	case errors.Is(err, context.DeadlineExceeded):
		app.log.Info("Timeout reached, terminating")
	case errors.Is(err, context.Canceled):
		app.log.Info("Cancelled, terminating")
	case err != nil:
		return err
	}
	return nil
}

// readLines はdoneが閉じられた後は送信せずに戻る
func readLines(r io.Reader, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
}

// tick 一定間隔でティックイベントを投入する。実際の経過時間を渡すので
// 処理が遅れても時計はずれない
func (app *Application) tick(ctx context.Context) error {
	interval := time.Duration(app.config.TickMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	var carry time.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			carry += now.Sub(last)
			last = now
			ms := carry.Milliseconds()
			if ms <= 0 {
				continue
			}
			if ms > cli.MaxTickMS {
				ms = cli.MaxTickMS
			}
			carry -= time.Duration(ms) * time.Millisecond
			app.sched.PostTick(int16(ms))
		}
	}
}

// handleLine 入力一行を処理する
//
//	!1 - !8   トリガー入力
//	!M        メトロ
//	!I        INITスクリプト
//	!RESET    エンジンのリセット
//	それ以外   ライブコマンド
func (app *Application) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if directive, ok := strings.CutPrefix(line, "!"); ok {
		switch d := strings.ToUpper(directive); d {
		case "M":
			app.sched.PostMetro()
		case "I":
			app.sched.PostScript(scene.InitScript)
		case "RESET":
			app.sched.PostReset()
		default:
			n, err := strconv.Atoi(d)
			if err != nil || n < 1 || n > scene.TriggerInputs {
				app.printf("error: unknown directive %q\n", line)
				return
			}
			app.sched.PostTrigger(n - 1)
		}
		return
	}

	cmd, err := app.table.Parse(line)
	if err != nil {
		app.printf("error: %v\n", err)
		return
	}
	if cmd.Empty() {
		return
	}
	if !app.sched.PostCommand(cmd) {
		app.printf("error: busy, command dropped\n")
	}
}

// onResult スケジューラのゴルーチンで呼ばれる
func (app *Application) onResult(ev scheduler.Event, res engine.Result, err error) {
	if ev.Type == scheduler.EventCommand {
		switch {
		case err != nil:
			app.printf("error: %v\n", err)
		case res.HasValue:
			app.printf("%d\n", res.Value)
		}
	}
	app.followScene()
}

// followScene SCENEで番号が変わったらバンクのシーンに切り替える
func (app *Application) followScene() {
	n := int(app.eng.Scene().Variables.Scene)
	if n == app.current {
		return
	}
	if n < 0 || n >= len(app.bank) {
		app.log.Warn("Scene not in bank", "scene", n, "bank", len(app.bank))
		app.current = n
		return
	}
	if err := app.eng.SwapScene(app.sceneFromBank(n)); err != nil {
		app.log.Error("Scene switch failed", "scene", n, "error", err)
		return
	}
	app.current = n
	app.log.Info("Scene switched", "scene", n, "file", app.bank[n].FileName)
	app.runInit()
}

func (app *Application) printf(format string, args ...any) {
	app.outMu.Lock()
	defer app.outMu.Unlock()
	fmt.Fprintf(app.out, format, args...)
}

// logOutput は出力（TR/CV）の変化をログに記録する
type logOutput struct {
	log *slog.Logger
}

func (o *logOutput) SetTR(i int, high bool) {
	o.log.Info("TR", "output", i+1, "high", high)
}

func (o *logOutput) SetCV(i int, value, slew int16) {
	o.log.Info("CV", "output", i+1, "value", value, "slew", slew)
}
