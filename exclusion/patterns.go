package exclusion

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"thememig/common"
)

// PatternDef is uncompiled definition of a chrome selector pattern. Expr is
// RE2 syntax matched against a single selector (no top level commas).
type PatternDef struct {
	Category common.Category `yaml:"category"`
	Name     string          `yaml:"name" validate:"required"`
	Expr     string          `yaml:"expr" validate:"required"`
}

// Pattern is a compiled PatternDef.
type Pattern struct {
	Category common.Category
	Name     string
	re       *regexp.Regexp
}

// MatchString reports whether selector matches the pattern.
func (p Pattern) MatchString(selector string) bool {
	return p.re.MatchString(selector)
}

// classWord builds expression matching class (or id when prefix is '#')
// names where word is one of hyphen or underscore delimited parts:
// ".header", ".main-header", ".header__logo", but not ".subheader".
func classWord(prefix, word string) string {
	return `(?i)` + regexp.QuoteMeta(prefix) + `(?:[a-z0-9]+[-_]+)*` + word + `(?:[-_]+[a-z0-9]+)*(?:[^a-z0-9_-]|$)`
}

func attribute(name string) string {
	return `(?i)\[\s*` + name + `\b`
}

// element matches HTML type selector, "header" in "body > header .logo".
func element(name string) string {
	return `(?i)(?:^|[\s>+~(,])` + name + `(?:$|[\s.:#\[>+~),])`
}

// DefaultPatterns returns built-in chrome patterns. Within a category more
// specific names come first so reports name the closest pattern.
func DefaultPatterns() []PatternDef {
	return []PatternDef{
		{Category: common.CategoryHeader, Name: ".header", Expr: classWord(".", "header")},
		{Category: common.CategoryHeader, Name: "#header", Expr: classWord("#", "header")},
		{Category: common.CategoryHeader, Name: "[data-header]", Expr: attribute("data-header")},
		{Category: common.CategoryHeader, Name: "header", Expr: element("header")},

		{Category: common.CategoryNavigation, Name: ".navbar", Expr: classWord(".", "navbar")},
		{Category: common.CategoryNavigation, Name: ".navigation", Expr: classWord(".", "navigation")},
		{Category: common.CategoryNavigation, Name: ".nav", Expr: classWord(".", "nav")},
		{Category: common.CategoryNavigation, Name: ".menu", Expr: classWord(".", "menu")},
		{Category: common.CategoryNavigation, Name: "#navbar", Expr: classWord("#", "navbar")},
		{Category: common.CategoryNavigation, Name: "#navigation", Expr: classWord("#", "navigation")},
		{Category: common.CategoryNavigation, Name: "#nav", Expr: classWord("#", "nav")},
		{Category: common.CategoryNavigation, Name: "#menu", Expr: classWord("#", "menu")},
		{Category: common.CategoryNavigation, Name: "[data-navigation]", Expr: attribute("data-navigation")},
		{Category: common.CategoryNavigation, Name: "[data-nav]", Expr: attribute("data-nav")},
		{Category: common.CategoryNavigation, Name: "[data-menu]", Expr: attribute("data-menu")},
		{Category: common.CategoryNavigation, Name: "nav", Expr: element("nav")},

		{Category: common.CategoryFooter, Name: ".footer", Expr: classWord(".", "footer")},
		{Category: common.CategoryFooter, Name: "#footer", Expr: classWord("#", "footer")},
		{Category: common.CategoryFooter, Name: "[data-footer]", Expr: attribute("data-footer")},
		{Category: common.CategoryFooter, Name: "footer", Expr: element("footer")},
	}
}

// Bare keywords used by the conservative tier, whole word, case insensitive.
var (
	keywordRe       = regexp.MustCompile(`(?i)\b(header|navbar|navigation|nav|menu|footer)\b`)
	keywordCategory = map[string]common.Category{
		"header":     common.CategoryHeader,
		"navbar":     common.CategoryNavigation,
		"navigation": common.CategoryNavigation,
		"nav":        common.CategoryNavigation,
		"menu":       common.CategoryNavigation,
		"footer":     common.CategoryFooter,
	}
)

// Registry owns compiled pattern sets. It is never modified after
// construction and is safe for concurrent use.
type Registry struct {
	patterns []Pattern
}

// NewRegistry compiles definitions. Any invalid definition fails the whole
// registry: patterns are static and a bad one is a programming error.
func NewRegistry(defs []PatternDef) (*Registry, error) {
	r := &Registry{patterns: make([]Pattern, 0, len(defs))}
	for _, def := range defs {
		if !def.Category.IsValid() {
			return nil, fmt.Errorf("pattern %q: %w", def.Name, common.ErrInvalidCategory)
		}
		if len(strings.TrimSpace(def.Name)) == 0 {
			return nil, errors.New("pattern without name")
		}
		re, err := regexp.Compile(def.Expr)
		if err != nil {
			return nil, fmt.Errorf("unable to compile %s pattern %q: %w", def.Category, def.Name, err)
		}
		r.patterns = append(r.patterns, Pattern{Category: def.Category, Name: def.Name, re: re})
	}
	// category order is the tie-break order, declaration order is kept inside category
	slices.SortStableFunc(r.patterns, func(a, b Pattern) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return r, nil
}

// DefaultRegistry returns process wide registry of built-in patterns.
var DefaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return NewRegistry(DefaultPatterns())
})

// ClassifySelector returns category and pattern of the first pattern matching
// selector. Selector is expected to be a single segment of a selector list,
// but whole lists work too.
func (r *Registry) ClassifySelector(selector string) (Match, bool) {
	selector = strings.TrimSpace(selector)
	if len(selector) == 0 {
		return Match{}, false
	}
	for _, p := range r.patterns {
		if p.MatchString(selector) {
			return Match{Category: p.Category, Pattern: p.Name, Selector: selector}, true
		}
	}
	return Match{}, false
}

// MatchKeyword looks for bare chrome keyword anywhere in text as a whole word.
func (r *Registry) MatchKeyword(text string) (Match, bool) {
	kw := keywordRe.FindString(text)
	if len(kw) == 0 {
		return Match{}, false
	}
	kw = strings.ToLower(kw)
	return Match{Category: keywordCategory[kw], Pattern: kw, Selector: strings.TrimSpace(text)}, true
}

// Patterns returns compiled patterns in matching order.
func (r *Registry) Patterns() []Pattern {
	return slices.Clone(r.patterns)
}
