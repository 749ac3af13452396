package exclusion

import (
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"thememig/common"
)

// LenientError is returned when line oriented tier cannot make sense of
// input.
type LenientError struct {
	Line   int
	Reason string
}

func (e *LenientError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

type tier interface {
	kind() common.Tier
	run(src string) (string, *Result, error)
}

// tiersFor returns tiers to try in order for strategy.
func tiersFor(strategy common.Strategy, e *engine) []tier {
	switch {
	case strategy == common.StrategyConservativeOnly:
		return []tier{conservativeTier{e}}
	case !strategy.AllowsDegradation():
		return []tier{structuralTier{e}}
	default:
		return []tier{structuralTier{e}, lenientTier{e}, conservativeTier{e}}
	}
}

// runTier never lets panic escape, it becomes tier failure instead.
func runTier(t tier, src string, log *zap.Logger) (out string, res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Tier panicked", zap.Stringer("tier", t.kind()), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			out, res, err = "", nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return t.run(src)
}

// structuralTier is rule boundary scanner followed by classifier engine.
type structuralTier struct {
	e *engine
}

func (structuralTier) kind() common.Tier { return common.TierStructural }

func (t structuralTier) run(src string) (string, *Result, error) {
	segments, err := Scan(src)
	if err != nil {
		return "", nil, err
	}
	res := newResult()
	return t.e.classify(segments, res), res, nil
}

// lenientTier treats every line with an opening brace as start of a rule and
// drops matching rules by naive brace counting.
type lenientTier struct {
	e *engine
}

func (lenientTier) kind() common.Tier { return common.TierLenient }

func (t lenientTier) run(src string) (string, *Result, error) {
	var (
		out       strings.Builder
		res       = newResult()
		pending   []string // raw lines of selector waiting for its brace
		selector  strings.Builder
		pendingAt int
		inComment bool
		skip      int  // brace depth of excluded rule being dropped
		current   int  // index of excluded rule being dropped
		settled   bool // last dropped line ended a declaration or block
	)
	flush := func() {
		for _, l := range pending {
			out.WriteString(l)
		}
		pending = pending[:0]
		selector.Reset()
	}

	for i, line := range strings.SplitAfter(src, "\n") {
		n := i + 1

		var code string
		code, inComment = lineCode(line, inComment)
		first, opens, closes := braces(code)

		if skip > 0 {
			if skip > 1 || opens == 0 || !startsRule(line) || !settled {
				skip = max(skip+opens-closes, 0)
				res.Excluded[current].EndLine = n
				if trimmed := strings.TrimSpace(code); len(trimmed) > 0 {
					settled = endsStatement(trimmed)
				}
				continue
			}
			// closing brace went missing, new rule starts here
			t.e.log.Debug("Excluded rule is not closed, resuming", zap.Int("line", n))
			skip = 0
		}

		if first < 0 {
			trimmed := strings.TrimSpace(code)
			switch {
			case len(pending) > 0 && (strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}")):
				pending = append(pending, line)
				flush()
			case len(pending) > 0 || (len(trimmed) > 0 && !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}")):
				if len(pending) == 0 {
					pendingAt = n
				}
				pending = append(pending, line)
				selector.WriteString(code)
				selector.WriteByte(' ')
			default:
				out.WriteString(line)
			}
			continue
		}

		start := n
		if len(pending) > 0 {
			start = pendingAt
		}
		selector.WriteString(code[:first])
		m, ok := t.e.matchSelector(selector.String())
		if !ok {
			if len(strings.TrimSpace(selector.String())) > 0 {
				res.include()
			}
			flush()
			out.WriteString(line)
			continue
		}

		m.StartLine, m.EndLine = start, n
		res.exclude(m)
		current = len(res.Excluded) - 1
		pending = pending[:0]
		selector.Reset()
		t.e.log.Debug("Rule excluded",
			zap.Stringer("category", m.Category),
			zap.String("pattern", m.Pattern),
			zap.String("selector", m.Selector),
			zap.Int("line", m.StartLine))
		if t.e.markers {
			writeMarkerLine(&out, m, line)
		}
		skip = max(opens-closes, 0)
		settled = endsStatement(strings.TrimSpace(code))
	}

	if len(pending) > 0 {
		if strings.HasSuffix(strings.TrimSpace(selector.String()), ",") {
			return "", nil, &LenientError{Line: pendingAt, Reason: "selector list is never terminated"}
		}
		flush()
	}
	return out.String(), res, nil
}

// conservativeTier drops every line mentioning a chrome keyword. It cannot
// fail.
type conservativeTier struct {
	e *engine
}

func (conservativeTier) kind() common.Tier { return common.TierConservative }

func (t conservativeTier) run(src string) (string, *Result, error) {
	var (
		out       strings.Builder
		res       = newResult()
		inComment bool
	)
	for i, line := range strings.SplitAfter(src, "\n") {
		var code string
		code, inComment = lineCode(line, inComment)
		if len(strings.TrimSpace(code)) == 0 {
			out.WriteString(line)
			continue
		}
		m, ok := t.e.reg.MatchKeyword(code)
		if !ok {
			res.include()
			out.WriteString(line)
			continue
		}
		m.StartLine, m.EndLine = i+1, i+1
		res.exclude(m)
		t.e.log.Debug("Line excluded", zap.Stringer("category", m.Category), zap.String("keyword", m.Pattern), zap.Int("line", m.StartLine))
		if t.e.markers {
			writeMarkerLine(&out, m, line)
		}
	}
	return out.String(), res, nil
}

// writeMarkerLine puts marker in place of a dropped line keeping its line end.
func writeMarkerLine(out *strings.Builder, m Match, line string) {
	out.WriteString(marker(m))
	if strings.HasSuffix(line, "\n") {
		out.WriteByte('\n')
	}
}

// startsRule reports whether line begins at column 0 with something that
// could be a selector.
func startsRule(line string) bool {
	if len(line) == 0 || isSpace(line[0]) {
		return false
	}
	switch line[0] {
	case '}', '/', '*':
		return false
	}
	return true
}

// endsStatement reports whether trimmed code ends a declaration or a block.
// Unindented rule right after an opening brace is a nested child, not a sign
// of missing closing brace.
func endsStatement(trimmed string) bool {
	return strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}")
}

// lineCode returns line with comments removed. inComment tells whether line
// starts inside block comment, returned flag whether the next one does.
func lineCode(line string, inComment bool) (string, bool) {
	var (
		sb     strings.Builder
		quote  byte
		parens int
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		next := byte(0)
		if i+1 < len(line) {
			next = line[i+1]
		}
		switch {
		case inComment:
			if c == '*' && next == '/' {
				inComment = false
				i++
			}
		case quote != 0:
			sb.WriteByte(c)
			if c == '\\' && next != 0 {
				sb.WriteByte(next)
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			sb.WriteByte(c)
		case c == '/' && next == '*':
			inComment = true
			i++
		case c == '/' && next == '/' && parens == 0:
			return sb.String(), false
		default:
			switch c {
			case '(':
				parens++
			case ')':
				parens = max(parens-1, 0)
			}
			sb.WriteByte(c)
		}
	}
	return sb.String(), inComment
}

// braces returns index of the first structural opening brace in code (or -1)
// and number of structural braces. Braces in strings and SCSS interpolation
// are not counted.
func braces(code string) (first, opens, closes int) {
	var (
		quote  byte
		interp int
	)
	first = -1
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#' && i+1 < len(code) && code[i+1] == '{':
			interp++
			i++
		case c == '{':
			if interp > 0 {
				interp++
				continue
			}
			if first < 0 {
				first = i
			}
			opens++
		case c == '}':
			if interp > 0 {
				interp--
				continue
			}
			closes++
		}
	}
	return first, opens, closes
}
