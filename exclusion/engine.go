package exclusion

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"thememig/common"
)

// engine classifies scanned rule units and rebuilds output text.
type engine struct {
	reg     *Registry
	markers bool
	log     *zap.Logger
}

// classify emits pass-through segments and kept rules verbatim, excluded rules
// are replaced with a marker (or nothing).
func (e *engine) classify(segments []Segment, res *Result) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Rule == nil {
			sb.WriteString(seg.Text)
			continue
		}
		m, ok := e.match(seg.Rule)
		if !ok {
			res.include()
			sb.WriteString(seg.Text)
			continue
		}
		res.exclude(m)
		e.log.Debug("Rule excluded",
			zap.Stringer("category", m.Category),
			zap.String("pattern", m.Pattern),
			zap.String("selector", m.Selector),
			zap.Int("line", m.StartLine))
		if e.markers {
			sb.WriteString(marker(m))
		}
	}
	return sb.String()
}

// match checks every segment of the unit selector list, any matching segment
// excludes the whole unit.
func (e *engine) match(u *RuleUnit) (Match, bool) {
	m, ok := e.matchSelector(u.Selector)
	if ok {
		m.StartLine, m.EndLine = u.StartLine, u.EndLine
	}
	return m, ok
}

func (e *engine) matchSelector(selector string) (Match, bool) {
	selector = collapseSpace(selector)
	if rest, ok := strings.CutPrefix(selector, "@at-root "); ok {
		selector = strings.TrimSpace(rest)
	}
	if len(selector) == 0 || strings.HasPrefix(selector, "@") {
		// @font-face, @keyframes, @mixin... are never chrome
		return Match{}, false
	}

	parts, err := SplitSelectors(selector)
	if err != nil {
		if !errors.Is(err, ErrUnbalancedSelector) {
			e.log.Debug("Unable to split selector list", zap.String("selector", selector), zap.Error(err))
		}
		parts = []string{selector}
	}
	for _, part := range parts {
		if m, ok := e.reg.ClassifySelector(part); ok {
			m.Selector = selector
			return m, true
		}
	}
	return Match{}, false
}

// marker is a comment left in place of excluded rule. Selector text cannot
// close the comment early.
func marker(m Match) string {
	return fmt.Sprintf("/* EXCLUDED %s RULE: %s */",
		strings.ToUpper(m.Category.String()),
		strings.ReplaceAll(m.Selector, "*/", "* /"))
}

// categories lists all categories in tie-break order.
var categories = []common.Category{
	common.CategoryHeader,
	common.CategoryNavigation,
	common.CategoryFooter,
}
