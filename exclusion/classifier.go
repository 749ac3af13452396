package exclusion

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"thememig/common"
)

type options struct {
	log        *zap.Logger
	reg        *Registry
	strategy   common.Strategy
	preprocess common.PreprocessMode
	markers    bool
	extra      []PatternDef
}

// Option configures Classifier.
type Option func(*options)

// WithLogger sets logger, by default nothing is logged.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRegistry replaces built-in patterns.
func WithRegistry(reg *Registry) Option {
	return func(o *options) { o.reg = reg }
}

func WithStrategy(s common.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

func WithPreprocess(m common.PreprocessMode) Option {
	return func(o *options) { o.preprocess = m }
}

// WithMarkers controls whether excluded rules leave a comment behind.
func WithMarkers(on bool) Option {
	return func(o *options) { o.markers = on }
}

// WithExtraPatterns adds patterns after built-in ones of the same category.
func WithExtraPatterns(defs ...PatternDef) Option {
	return func(o *options) { o.extra = append(o.extra, defs...) }
}

// Classifier filters chrome rules out of stylesheets and keeps running
// statistics. Instance is not safe for concurrent use, create one per
// goroutine.
type Classifier struct {
	log        *zap.Logger
	preprocess common.PreprocessMode
	tiers      []tier
	stats      Stats
}

// New creates classifier. Defaults are auto strategy, minimal preprocessing
// and markers on.
func New(opts ...Option) (*Classifier, error) {
	o := options{
		strategy:   common.StrategyAuto,
		preprocess: common.PreprocessModeMinimal,
		markers:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if !o.strategy.IsValid() {
		return nil, fmt.Errorf("strategy %d: %w", o.strategy, common.ErrInvalidStrategy)
	}
	if !o.preprocess.IsValid() {
		return nil, fmt.Errorf("preprocess mode %d: %w", o.preprocess, common.ErrInvalidPreprocessMode)
	}

	reg, err := registry(o.reg, o.extra)
	if err != nil {
		return nil, err
	}

	log := o.log.Named("classifier")
	return &Classifier{
		log:        log,
		preprocess: o.preprocess,
		tiers:      tiersFor(o.strategy, &engine{reg: reg, markers: o.markers, log: log}),
		stats:      newStats(),
	}, nil
}

func registry(reg *Registry, extra []PatternDef) (*Registry, error) {
	switch {
	case reg != nil && len(extra) > 0:
		return nil, errors.New("extra patterns cannot be added to explicitly provided registry")
	case reg != nil:
		return reg, nil
	case len(extra) > 0:
		reg, err := NewRegistry(append(DefaultPatterns(), extra...))
		if err != nil {
			return nil, fmt.Errorf("unable to build pattern registry: %w", err)
		}
		return reg, nil
	default:
		return DefaultRegistry()
	}
}

// Filter removes chrome rules from source. It never fails: when structural
// parsing is not possible weaker tiers are used (see Result.Tier) and when
// strategy does not allow any of them source is returned untouched with
// incomplete result.
func (c *Classifier) Filter(source, theme string) (string, *Result) {
	text := Preprocess(c.preprocess, source)

	var (
		out      string
		res      *Result
		failures []string
	)
	for _, t := range c.tiers {
		o, r, err := runTier(t, text, c.log)
		if err != nil {
			c.log.Debug("Tier failed", zap.String("theme", theme), zap.Stringer("tier", t.kind()), zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", t.kind(), err))
			continue
		}
		out, res = o, r
		res.Tier = t.kind()
		break
	}
	if res == nil {
		out, res = source, newResult()
		res.Tier = common.TierNone
	}
	res.Theme = theme
	res.Failures = failures

	c.stats.add(res)
	c.log.Debug("Stylesheet classified",
		zap.String("theme", theme),
		zap.Stringer("tier", res.Tier),
		zap.Int("excluded", res.ExcludedCount),
		zap.Int("included", res.IncludedCount))
	return out, res
}

// Stats returns copy of accumulated statistics.
func (c *Classifier) Stats() Stats {
	return c.stats.clone()
}

// Reset clears accumulated statistics.
func (c *Classifier) Reset() {
	c.stats = newStats()
}
