package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dshills/asciienc/internal/asciicodec"
	"github.com/dshills/asciienc/internal/bridge"
	"github.com/dshills/asciienc/internal/config"
	"github.com/dshills/asciienc/internal/logging"
	"github.com/dshills/asciienc/internal/process"
	"github.com/dshills/asciienc/internal/pty"
)

// options holds the command-line flags. Only flags the user set override
// the configuration.
type options struct {
	configPath string
	mode       string
	record     string
	logLevel   string
	logFile    string
	raw        bool
	bufferSize int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "asciienc [flags] -- <program> [args...]",
		Short: "Run a program behind a printable-ASCII byte stream",
		Long: `asciienc starts a program attached to a pseudoterminal and relays its
output to stdout encoded as printable ASCII. Encoded input read from stdin
is decoded and delivered to the program; in-band resize commands resize
its terminal.

Control bytes are written as a backtick followed by their caret letter, a
literal backtick is doubled, and ` + "`r<cols>:<rows>;" + ` resizes the terminal.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, cmd.Flags())
			if err != nil {
				return err
			}
			code, err := run(cmd.Context(), cfg, opts.configPath, args, os.Stdin, os.Stdout, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return exitCode(code)
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a .toml or .yaml configuration file")
	flags.StringVar(&opts.mode, "mode", "", "spawn mode: native, bypass or pipe")
	flags.StringVar(&opts.record, "record", "", "record child output to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&opts.raw, "raw", false, "put the controlling terminal in raw mode")
	flags.IntVar(&opts.bufferSize, "buffer-size", 0, "bridge read size in bytes")

	return cmd
}

// execute runs the root command and returns the process exit code.
func execute() int {
	return executeArgs(os.Args[1:], os.Stderr)
}

func executeArgs(args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if code, ok := isExitCode(err); ok {
		return code
	}
	if err != nil {
		fmt.Fprintf(stderr, "asciienc: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig resolves the configuration and applies the flags that were set.
func loadConfig(opts *options, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("mode") {
		cfg.PTY.Mode = opts.mode
	}
	if flags.Changed("record") {
		cfg.Record.Path = opts.record
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if flags.Changed("raw") {
		cfg.Bridge.Raw = opts.raw
	}
	if flags.Changed("buffer-size") {
		cfg.Bridge.BufferSize = opts.bufferSize
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run spawns the program named by args and bridges it to in and out until
// it exits. It returns the child's exit code, or an error if the session
// could not be set up. A non-empty configPath is watched for log level
// changes.
func run(ctx context.Context, cfg config.Config, configPath string, args []string, in *os.File, out *os.File, stderr io.Writer) (int, error) {
	logger, closeLog, err := openLogger(cfg.Log, stderr)
	if err != nil {
		return 1, err
	}
	defer closeLog()

	mode, err := cfg.Mode()
	if err != nil {
		return 1, err
	}

	size := cfg.Size()
	if term.IsTerminal(int(out.Fd())) {
		if cols, rows, err := term.GetSize(int(out.Fd())); err == nil {
			size = pty.Size{Cols: cols, Rows: rows}
		}
	}

	command := pty.Command{
		Path: args[0],
		Args: args[1:],
		Env:  cfg.PTY.Env,
		Dir:  cfg.PTY.Dir,
	}
	sup, err := process.Spawn(command, mode, size,
		process.WithLogger(logger),
		process.WithTerminatedCallback(func(code int) {
			logger.Info("%s exited with code %d", command, code)
		}),
	)
	if err != nil {
		return 1, err
	}
	defer sup.Close()

	if cfg.Record.Path != "" {
		if err := sup.RecordInput(cfg.Record.Path); err != nil {
			return 1, fmt.Errorf("recording to %s: %w", cfg.Record.Path, err)
		}
	}

	if cfg.Bridge.Raw && term.IsTerminal(int(in.Fd())) {
		state, err := term.MakeRaw(int(in.Fd()))
		if err != nil {
			return 1, fmt.Errorf("entering raw mode: %w", err)
		}
		defer term.Restore(int(in.Fd()), state)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("session %s started in %s mode at %dx%d", sup.ID, mode, size.Cols, size.Rows)
	if configPath != "" {
		watchConfig(ctx, configPath, logger)
	}
	go bridge.WatchResize(ctx)

	b := bridge.New(sup, in, out,
		bridge.WithBufferSize(cfg.Bridge.BufferSize),
		bridge.WithSizeFunc(bridge.TerminalSize(out)),
		bridge.WithLogger(logger),
		bridge.WithErrorHandler(func(err error) {
			if errors.Is(err, asciicodec.ErrFraming) {
				fmt.Fprintf(stderr, "asciienc: stream corruption on input: %v\n", err)
			}
		}),
	)

	code, err := b.Run(ctx)
	if err != nil {
		logger.Warn("bridge finished with errors: %v", err)
	}
	return code, nil
}

// openLogger returns a logger writing to the configured file, or to stderr.
// Stdout is never used: it carries the encoded stream.
func openLogger(cfg config.LogConfig, stderr io.Writer) (*logging.Logger, func(), error) {
	level, _ := logging.ParseLevel(cfg.Level)
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Output = stderr

	if cfg.File == "" {
		return logging.New(lc), func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	lc.Output = f
	return logging.New(lc), func() { f.Close() }, nil
}

// watchConfig applies log level changes made to the config file while the
// session runs.
func watchConfig(ctx context.Context, path string, logger *logging.Logger) {
	w, err := config.NewWatcher(path,
		func(cfg config.Config) {
			if level := cfg.LogLevel(); level != logger.Level() {
				logger.SetLevel(level)
				logger.Info("log level changed to %s", level)
			}
		},
		config.WithWatchErrorHandler(func(err error) {
			logger.Warn("%v", err)
		}),
	)
	if err != nil {
		logger.Warn("not watching %s: %v", path, err)
		return
	}
	go w.Run(ctx)
}
