package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexflint/go-filemutex"
	"github.com/tidwall/buntdb"
	"github.com/urfave/cli/v2"

	"gridtap/config"
	"gridtap/gridtap"
	"gridtap/gridtap_event"
	"gridtap/hooktap"
	"gridtap/monitor"
	"gridtap/runloop"
	"gridtap/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gridtap:", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.App{
		Name:  "gridtap",
		Usage: "haptic tick whenever the pointer crosses a grid boundary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default <data dir>/config.yaml)", EnvVars: []string{"GRIDTAP_CONFIG"}},
			&cli.StringFlag{Name: "policy", Usage: "crossing policy: distance|grid", EnvVars: []string{"GRIDTAP_POLICY"}},
			&cli.Float64Flag{Name: "delta", Usage: "crossing distance or grid cell size in points", EnvVars: []string{"GRIDTAP_DELTA"}},
			&cli.StringFlag{Name: "feedback", Usage: "feedback: haptic|bell|log|none", EnvVars: []string{"GRIDTAP_FEEDBACK"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error", EnvVars: []string{"GRIDTAP_LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			watchCommand,
			liveCommand,
			viewCommand,
			checkCommand,
		},
	}
	return app.Run(os.Args)
}

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "watch input and give feedback on every crossing",
	Action: func(c *cli.Context) error {
		env, err := setup(c)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr, err := env.newManager(os.Stdout)
		if err != nil {
			return err
		}
		return permissionHint(mgr.Watch(ctx))
	},
}

var liveCommand = &cli.Command{
	Name:  "live",
	Usage: "watch input and show activity as it happens",
	Action: func(c *cli.Context) error {
		env, err := setup(c)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		live := view.NewLiveView(env.logger, env.cfg.LiveBuffer)
		mgr, err := env.newManager(os.Stderr, live)
		if err != nil {
			return err
		}

		watchErr := make(chan error, 1)
		go func() {
			err := mgr.Watch(ctx)
			cancel()
			watchErr <- err
		}()

		if err := live.Run(ctx, cancel); err != nil {
			return err
		}
		return permissionHint(<-watchErr)
	},
}

var viewCommand = &cli.Command{
	Name:      "view",
	Usage:     "show daily statistics for a month",
	ArgsUsage: "[YYYY-MM]",
	Action: func(c *cli.Context) error {
		env, err := setup(c)
		if err != nil {
			return err
		}
		defer env.Close()

		yearMonth := c.Args().First()
		if yearMonth == "" {
			yearMonth = time.Now().Format("2006-01")
		}

		repo := gridtap.NewStatsRepository(env.db)
		v := view.NewTableViewer(view.NewViewRepository(repo), c.App.Writer)
		return v.Do(yearMonth)
	},
}

var checkCommand = &cli.Command{
	Name:  "check",
	Usage: "check that input monitoring is permitted",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dir, err := config.ResolveDir()
		if err != nil {
			return err
		}
		logOut, logger, err := newLogger(dir, cfg)
		if err != nil {
			return err
		}
		defer logOut.Close()

		facility := hooktap.New(logger, cfg.EnableTimeout)
		mon := monitor.New(facility, monitor.WithLogger(logger))
		defer mon.Close()
		mon.Handle(monitor.Keyboard, func(monitor.Event) {})

		if err := mon.Start(monitor.WithRunLoop(runloop.New())); err != nil {
			logger.Error("input monitoring check failed", slog.String("err", err.Error()))
			return cli.Exit(permissionHint(err), 1)
		}
		fmt.Fprintln(c.App.Writer, "input monitoring is available")
		return nil
	},
}

func permissionHint(err error) error {
	if errors.Is(err, monitor.ErrHookCreationFailed) {
		return fmt.Errorf("%w\ngrant Input Monitoring to this terminal in System Settings > Privacy & Security, then retry", err)
	}
	return err
}

type env struct {
	cfg    *config.Config
	dir    string
	db     *buntdb.DB
	logger *slog.Logger
	logOut *os.File
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	dir, err := config.ResolveDir()
	if err != nil {
		return nil, err
	}

	logOut, logger, err := newLogger(dir, cfg)
	if err != nil {
		return nil, err
	}
	db, err := initDB(dir)
	if err != nil {
		logOut.Close()
		return nil, err
	}
	return &env{cfg: cfg, dir: dir, db: db, logger: logger, logOut: logOut}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.logOut.Close()
}

func (e *env) newManager(feedbackOut *os.File, sinks ...gridtap_event.Sink) (*gridtap.Manager, error) {
	policy, err := gridtap_event.NewCrossingPolicy(e.cfg.Policy, e.cfg.Delta)
	if err != nil {
		return nil, err
	}
	performer, err := gridtap_event.NewPerformer(e.cfg.Feedback, feedbackOut, e.logger)
	if err != nil {
		return nil, err
	}
	fm, err := newFileMutex(e.dir)
	if err != nil {
		return nil, err
	}

	repo := gridtap.NewStatsRepository(e.db)
	reporter := gridtap.NewStatsReporter(repo, e.logger, fm)
	ws := gridtap_event.NewAllWatchers(e.logger, policy, performer)
	facility := hooktap.New(e.logger, e.cfg.EnableTimeout)
	return gridtap.NewManager(facility, reporter, ws, e.logger, e.cfg.FlushInterval, sinks...), nil
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}

	if c.IsSet("policy") {
		cfg.Policy = c.String("policy")
	}
	if c.IsSet("delta") {
		cfg.Delta = c.Float64("delta")
	}
	if c.IsSet("feedback") {
		cfg.Feedback = c.String("feedback")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initDB(dir string) (*buntdb.DB, error) {
	db, err := buntdb.Open(filepath.Join(dir, "gridtap.db"))
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newLogger(dir string, cfg *config.Config) (*os.File, *slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(filepath.Join(dir, "gridtap.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, err
	}

	return logFile, slog.New(
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: level,
		}),
	), nil
}

func newFileMutex(dir string) (*filemutex.FileMutex, error) {
	return filemutex.New(filepath.Join(dir, "gridtap.lock"))
}
