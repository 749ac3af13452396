package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"thememig/common"
	"thememig/config"
	"thememig/exclusion"
	"thememig/ledger"
	"thememig/migrate"
	"thememig/misc"
	"thememig/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()), zap.Stringer("run", env.RunID))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling - cli.Exit() is not needed, we
// return regular errors from subcommands.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// allow graceful shutdown on interrupt, themes may be processed in parallel
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "removes shared chrome (header, navigation, footer) rules from dealer site stylesheets",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "migrate",
				Usage:        "Filters chrome rules out of theme stylesheet(s)",
				OnUsageError: usageErrorHandler,
				Action:       migrate.Run,
				Flags:        migrate.Flags(),
				ArgsUsage:    "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to stylesheet(s) to process, following formats are supported:
        path to a file: "[path_to_file]site.css"
        path to a directory: "[path_to_directory]directory" - recursively process all stylesheets and theme bundles under directory
        path to theme bundle with path inside it: "[path_to_archive]bundle.zip[path_in_archive]" - process all stylesheets under archive path

    Only files with configured extensions are considered, archives inside
    archives are not supported. Theme is the first directory below the
    source root, stylesheets at the root belong to the theme named after
    the directory or bundle (unless --theme is given).

DESTINATION:
    always a path, output file name(s) are derived from source and configuration
    if absent - current working directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "classify",
				Usage:        "Shows which chrome category (if any) selector belongs to",
				OnUsageError: usageErrorHandler,
				Action:       classifySelectors,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "classify whole stylesheet `FILE` and print summary instead"},
				},
				ArgsUsage: "SELECTOR...",
			},
			{
				Name:         "history",
				Usage:        "Prints per theme totals recorded in the ledger",
				OnUsageError: usageErrorHandler,
				Action:       printHistory,
				ArgsUsage:    "[THEME]",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func classifySelectors(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	c, err := exclusion.New(append(env.Cfg.Classifier.Options(), exclusion.WithLogger(env.Log))...)
	if err != nil {
		return fmt.Errorf("unable to prepare classifier: %w", err)
	}

	if fname := cmd.String("file"); len(fname) > 0 {
		data, err := os.ReadFile(fname)
		if err != nil {
			return fmt.Errorf("unable to read stylesheet: %w", err)
		}
		_, res := c.Filter(string(data), filepath.Base(filepath.Dir(fname)))
		fmt.Fprint(cmd.Root().Writer, exclusion.Summary(res))
		return nil
	}

	if cmd.Args().Len() == 0 {
		return errors.New("no selectors have been specified")
	}
	for _, sel := range cmd.Args().Slice() {
		// single rule stylesheet goes through the same path as real ones
		_, res := c.Filter(sel+" {}", "")
		if res.ExcludedCount == 0 {
			fmt.Fprintf(cmd.Root().Writer, "%s\tkept\n", sel)
			continue
		}
		m := res.Excluded[0]
		fmt.Fprintf(cmd.Root().Writer, "%s\t%s\t%s\n", sel, m.Category, m.Pattern)
	}
	return nil
}

func printHistory(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if len(env.Cfg.Ledger.Path) == 0 {
		return errors.New("ledger is not configured (ledger.path)")
	}
	if _, err := os.Stat(env.Cfg.Ledger.Path); err != nil {
		return fmt.Errorf("unable to access ledger: %w", err)
	}
	lg, err := ledger.Open(env.Cfg.Ledger.Path, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lg.Close())
	}()

	totals, err := lg.History(cmd.Args().First())
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		env.Log.Info("Nothing recorded", zap.String("theme", cmd.Args().First()))
		return nil
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "%-24s %5s %6s %9s %9s %7s %11s %7s %9s  %s\n",
		"THEME", "RUNS", "FILES", "EXCLUDED", "INCLUDED", "HEADER", "NAVIGATION", "FOOTER", "DEGRADED", "LAST RUN")
	for _, t := range totals {
		fmt.Fprintf(w, "%-24s %5d %6d %9d %9d %7d %11d %7d %9d  %s\n",
			t.Theme, t.Runs, t.Files, t.Excluded, t.Included,
			t.ByCategory[common.CategoryHeader], t.ByCategory[common.CategoryNavigation], t.ByCategory[common.CategoryFooter],
			t.Degraded, t.LastRun.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
