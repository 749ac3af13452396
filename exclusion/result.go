package exclusion

import (
	"maps"

	"thememig/common"
)

// Match records one rule removed from the output.
type Match struct {
	Category  common.Category `yaml:"category"`
	Pattern   string          `yaml:"pattern"`
	Selector  string          `yaml:"selector"`
	StartLine int             `yaml:"start_line"`
	EndLine   int             `yaml:"end_line"`
}

// Result is produced by every Filter call. Tier and Failures are
// informational: results of all tiers are equally valid.
type Result struct {
	Theme           string                  `yaml:"theme,omitempty"`
	Tier            common.Tier             `yaml:"tier"`
	ExcludedCount   int                     `yaml:"excluded_count"`
	IncludedCount   int                     `yaml:"included_count"`
	Excluded        []Match                 `yaml:"excluded_rules"`
	PatternsMatched map[common.Category]int `yaml:"patterns_matched"`
	Failures        []string                `yaml:"failures,omitempty"`
}

func newResult() *Result {
	return &Result{
		Excluded:        make([]Match, 0),
		PatternsMatched: make(map[common.Category]int),
	}
}

func (r *Result) exclude(m Match) {
	r.Excluded = append(r.Excluded, m)
	r.PatternsMatched[m.Category]++
	r.ExcludedCount++
}

func (r *Result) include() {
	r.IncludedCount++
}

// Total returns number of rule units seen by the tier which produced result.
func (r *Result) Total() int {
	return r.ExcludedCount + r.IncludedCount
}

// Complete is false only when no tier was allowed to classify the source and
// it was returned untouched.
func (r *Result) Complete() bool {
	return r.Tier != common.TierNone
}

// Degraded reports whether one of the fallback tiers produced the result, in
// which case chrome exclusion deserves a human look.
func (r *Result) Degraded() bool {
	return r.Tier.Degraded()
}

// Stats accumulates results of all Filter calls made on a single Classifier.
type Stats struct {
	Processed  int
	Excluded   int
	Included   int
	ByCategory map[common.Category]int
	ByTier     map[common.Tier]int
}

func newStats() Stats {
	return Stats{
		ByCategory: make(map[common.Category]int),
		ByTier:     make(map[common.Tier]int),
	}
}

func (s *Stats) add(r *Result) {
	s.Processed++
	s.Excluded += r.ExcludedCount
	s.Included += r.IncludedCount
	for c, n := range r.PatternsMatched {
		s.ByCategory[c] += n
	}
	s.ByTier[r.Tier]++
}

func (s Stats) clone() Stats {
	return Stats{
		Processed:  s.Processed,
		Excluded:   s.Excluded,
		Included:   s.Included,
		ByCategory: maps.Clone(s.ByCategory),
		ByTier:     maps.Clone(s.ByTier),
	}
}
