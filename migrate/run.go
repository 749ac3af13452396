// Package migrate implements the migrate command: it finds theme stylesheets,
// filters chrome rules out of them and writes the results.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/ianaindex"

	"thememig/common"
	"thememig/exclusion"
	"thememig/ledger"
	"thememig/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("migrate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if s := cmd.String("strategy"); len(s) > 0 {
		if strategy, err := common.ParseStrategy(s); err != nil {
			log.Warn("Unknown strategy requested, using configured one", zap.Error(err), zap.Stringer("strategy", env.Cfg.Classifier.Strategy))
		} else {
			env.Cfg.Classifier.Strategy = strategy
		}
	}
	if p := cmd.String("preprocess"); len(p) > 0 {
		if mode, err := common.ParsePreprocessMode(p); err != nil {
			log.Warn("Unknown preprocessing requested, using configured one", zap.Error(err), zap.Stringer("preprocess", env.Cfg.Classifier.Preprocess))
		} else {
			env.Cfg.Classifier.Preprocess = mode
		}
	}

	env.NoDirs, env.Overwrite, env.DryRun = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("dry-run")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set name. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	opts := env.Cfg.Classifier.Options()
	// fail early, every theme gets its own classifier later
	if _, err := exclusion.New(opts...); err != nil {
		return fmt.Errorf("unable to prepare classifier: %w", err)
	}

	var lg *ledger.Ledger
	if len(env.Cfg.Ledger.Path) > 0 && !env.DryRun {
		if lg, err = ledger.Open(env.Cfg.Ledger.Path, env.Log); err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, lg.Close())
		}()
		if err := lg.BeginRun(env.RunID, env.Started(), env.Cfg.Classifier.Strategy, env.Cfg.Classifier.Preprocess); err != nil {
			return err
		}
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst),
		zap.Stringer("strategy", env.Cfg.Classifier.Strategy), zap.Stringer("preprocess", env.Cfg.Classifier.Preprocess),
		zap.Stringer("run", env.RunID))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	d := &discovery{exts: env.Cfg.Output.Extensions, theme: cmd.String("theme"), log: log}
	if err := discover(ctx, src, d); err != nil {
		return err
	}
	if len(d.found) == 0 {
		log.Warn("Nothing to process", zap.String("source", src))
		return nil
	}

	return process(ctx, groupByTheme(d.found), dst, int(cmd.Int("jobs")), opts, lg, log)
}

type outcome struct {
	sheet    stylesheet
	filtered string
	res      *exclusion.Result
	err      error
}

type themeOutcome struct {
	theme string
	files []outcome
	stats exclusion.Stats
}

// process classifies themes in parallel, each theme with its own classifier.
// Everything with side effects (output files, report, ledger) happens on the
// calling goroutine as themes complete.
func process(ctx context.Context, themes []themeSheets, dst string, jobs int, opts []exclusion.Option, lg *ledger.Ledger, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	done := make(chan themeOutcome)
	waited := make(chan error, 1)
	go func() {
		for _, t := range themes {
			g.Go(func() error {
				out := classifyTheme(gctx, t, opts, log)
				select {
				case done <- out:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waited <- g.Wait()
		close(done)
	}()

	var (
		errs                error
		files, failed, degr int
	)
	for to := range done {
		for _, o := range to.files {
			files++
			if err := handleOutcome(o, dst, lg, env, log); err != nil {
				failed++
				log.Error("Unable to process stylesheet", zap.String("file", o.sheet.origin), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", o.sheet.origin, err))
				continue
			}
			if o.res.Degraded() {
				degr++
			}
		}
		log.Info("Theme completed",
			zap.String("theme", to.theme),
			zap.Int("files", to.stats.Processed),
			zap.Int("excluded", to.stats.Excluded),
			zap.Int("included", to.stats.Included))
	}
	if err := <-waited; err != nil {
		errs = multierr.Append(errs, err)
	}

	log.Info("Themes processed",
		zap.Int("themes", len(themes)), zap.Int("files", files), zap.Int("failed", failed), zap.Int("degraded", degr))
	return errs
}

func classifyTheme(ctx context.Context, t themeSheets, opts []exclusion.Option, log *zap.Logger) themeOutcome {
	out := themeOutcome{theme: t.theme, files: make([]outcome, 0, len(t.sheets))}

	c, err := exclusion.New(append(opts[:len(opts):len(opts)], exclusion.WithLogger(log))...)
	for _, s := range t.sheets {
		switch {
		case err != nil:
			out.files = append(out.files, outcome{sheet: s, err: err})
		case ctx.Err() != nil:
			out.files = append(out.files, outcome{sheet: s, err: ctx.Err()})
		default:
			out.files = append(out.files, classifySheet(c, s, log))
		}
	}
	if c != nil {
		out.stats = c.Stats()
	}
	return out
}

// classifySheet processes single stylesheet. Classifier never fails, but
// source decoding may, and we do not want one bad file to stop the theme.
func classifySheet(c *exclusion.Classifier, s stylesheet, log *zap.Logger) (out outcome) {
	out.sheet = s
	if s.err != nil {
		out.err = fmt.Errorf("unable to read stylesheet: %w", s.err)
		return out
	}

	log.Debug("Classification starting", zap.String("theme", s.theme), zap.String("from", s.origin))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Classification ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("from", s.origin), zap.ByteString("stack", debug.Stack()))
			out.err = fmt.Errorf("classification panic: %v", r)
		}
	}(time.Now())

	text, err := decodeSource(s.data)
	if err != nil {
		out.err = err
		return out
	}
	out.filtered, out.res = c.Filter(text, s.theme)
	return out
}

// handleOutcome runs on the calling goroutine only.
func handleOutcome(o outcome, dst string, lg *ledger.Ledger, env *state.LocalEnv, log *zap.Logger) error {
	if o.err != nil {
		return o.err
	}

	name := path.Join(o.sheet.theme, filepath.ToSlash(o.sheet.src))
	env.Rpt.StoreData(path.Join("original", name), o.sheet.data)
	if err := env.Rpt.StoreYAML(path.Join("results", name+".yaml"), o.res); err != nil {
		log.Warn("Unable to store result in report", zap.Error(err))
	}
	log.Debug("Classification summary", zap.String("file", o.sheet.origin), zap.String("summary", exclusion.Summary(o.res)))

	if lg != nil {
		if err := lg.Record(filepath.ToSlash(o.sheet.src), o.res); err != nil {
			return err
		}
	}

	if !o.res.Complete() {
		return fmt.Errorf("stylesheet was not classified (%v), source left untouched", o.res.Failures)
	}
	if o.res.Degraded() {
		log.Warn("Stylesheet could not be parsed structurally, verify chrome exclusion manually",
			zap.String("file", o.sheet.origin), zap.Stringer("tier", o.res.Tier), zap.Strings("failures", o.res.Failures))
	}

	outputName := buildOutputPath(o.sheet.src, o.sheet.theme, dst, o.res.Tier, env)
	log.Info("Stylesheet classified",
		zap.String("file", o.sheet.origin),
		zap.String("to", outputName),
		zap.Stringer("tier", o.res.Tier),
		zap.Int("excluded", o.res.ExcludedCount),
		zap.Int("included", o.res.IncludedCount))

	env.Rpt.StoreData(path.Join("filtered", name), []byte(o.filtered))
	if env.DryRun {
		return nil
	}
	return writeOutput(outputName, o.filtered, env, log)
}

func writeOutput(outputName, text string, env *state.LocalEnv, log *zap.Logger) error {
	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return os.WriteFile(outputName, []byte(text), 0644)
}
