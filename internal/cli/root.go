// Package cli wires the timeclock commands together.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"example.com/timeclock/internal/clock"
	"example.com/timeclock/internal/store"
	"example.com/timeclock/internal/util/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	usageLine      = "Usage: timeclock [in|out|status|weekly|all|clear n|listen]"
	clearUsageLine = "Usage: timeclock clear n"
)

// usageError is printed as its usage line and is not a failure.
type usageError struct {
	line string
}

func (e *usageError) Error() string { return e.line }

type options struct {
	configPath string
	file       string
	logLevel   string
}

func (o *options) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "timeclock.yaml", "path to config file")
	fs.StringVar(&o.file, "file", "", "clock log file (overrides config)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	opts  options
	out   io.Writer
	errw  io.Writer
	now   func() time.Time
	style style

	cfg     config.Config
	log     *slog.Logger
	store   *store.FileStore
	tracker *clock.Tracker
}

func (a *app) setup() error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.file != "" {
		cfg.Store.Path = a.opts.file
	}
	if a.opts.logLevel != "" {
		cfg.App.LogLevel = a.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = newLogger(a.errw, cfg.App.LogLevel)
	a.store = store.NewFileStore(cfg.Store.Path)
	a.tracker = clock.NewTracker(a.store).WithClock(a.now)
	a.log.Debug("config loaded", "config", a.opts.configPath, "store", cfg.Store.Path)
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	config.LoadEnvFile()
	return run(args, os.Stdout, os.Stderr, time.Now)
}

func run(args []string, stdout, stderr io.Writer, now func() time.Time) int {
	a := &app{out: stdout, errw: stderr, now: now, style: newStyle(stdout)}
	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stdout, ue.line)
		return 0
	}
	fmt.Fprintln(stdout, a.style.errorf("Error: %v", err))
	return 1
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "timeclock",
		Short:         "Personal clock-in/clock-out tracker",
		Long:          "timeclock records clock-in and clock-out events in a plain text log and reports elapsed time and weekly hours.",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintln(a.out, "Unknown command.")
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.out)
	root.SetErr(a.errw)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if cmd.Name() == "clear" {
			return &usageError{line: clearUsageLine}
		}
		return &usageError{line: usageLine}
	})
	a.opts.bind(root.PersistentFlags())

	root.AddCommand(
		newInCommand(a),
		newOutCommand(a),
		newStatusCommand(a),
		newWeeklyCommand(a),
		newAllCommand(a),
		newClearCommand(a),
		newListenCommand(a),
	)
	return root
}

// noArgs rejects any positional argument with the general usage line.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return &usageError{line: usageLine}
	}
	return nil
}
