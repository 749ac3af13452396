// Package common holds closed enumerations shared by the classifier, the
// configuration and the command line, so none of them has to import another
// just to name a category or a strategy.
package common

// Chrome area a stylesheet rule belongs to. Declaration order is also the
// attribution order when a selector could belong to more than one category.
// ENUM(header, navigation, footer)
type Category int

// Strategy controls how far classification may degrade on malformed input.
// ENUM(auto, structural-only, conservative-only)
type Strategy int

// AllowsDegradation reports whether lower tiers may be tried after the
// structural one fails.
func (s Strategy) AllowsDegradation() bool {
	return s == StrategyAuto
}

// PreprocessMode selects source normalization performed before scanning.
// ENUM(none, minimal, variables)
type PreprocessMode int

// Classification tier which produced a result. None means no tier was allowed
// to produce one.
// ENUM(none, structural, lenient, conservative)
type Tier int

// Degraded reports whether result was produced by one of the fallback tiers.
func (t Tier) Degraded() bool {
	return t == TierLenient || t == TierConservative
}
