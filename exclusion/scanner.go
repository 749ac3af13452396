package exclusion

import (
	"fmt"
	"sort"
	"strings"
)

// RuleUnit is one selector list with its brace delimited body.
type RuleUnit struct {
	Selector  string // whitespace collapsed, may contain top level commas
	Body      string // from opening to matching closing brace inclusive
	StartLine int
	EndLine   int
	Depth     int // number of enclosing transparent at-rules (@media, @include...)
}

// Segment is a piece of scanned text. Segments returned by Scan cover the
// whole input in order; Rule is nil for pass-through text.
type Segment struct {
	Text string
	Rule *RuleUnit

	start, end int
}

// StructuralError describes why text could not be split into rules.
type StructuralError struct {
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Grouping at-rules contain rules rather than declarations, their content is
// scanned as a nested level instead of being treated as a single unit.
var groupingAtRules = map[string]bool{
	"@media":         true,
	"@supports":      true,
	"@container":     true,
	"@layer":         true,
	"@document":      true,
	"@-moz-document": true,
}

func atRuleName(selector string) string {
	if !strings.HasPrefix(selector, "@") {
		return ""
	}
	name := selector
	if i := strings.IndexAny(selector, " \t(\"'"); i > 0 {
		name = selector[:i]
	}
	return strings.ToLower(name)
}

func isGroupingAtRule(selector string) bool {
	return groupingAtRules[atRuleName(selector)]
}

// isTransparent reports whether at-rule block which opens at the tokenizer
// position should be scanned as a nested level. Mixin content blocks
// ("@include m { .a {} }") and "@at-root { ... }" are transparent when they
// contain rules, declarations only blocks stay single units.
func (s *scanner) isTransparent(selector string) bool {
	switch atRuleName(selector) {
	case "":
		return false
	case "@include":
	case "@at-root":
		if selector != "@at-root" {
			// "@at-root .a {" is a rule with declarations
			return false
		}
	default:
		return isGroupingAtRule(selector)
	}
	look := s.tok
	for {
		switch look.next().kind {
		case tokOpen:
			return true
		case tokClose, tokEOF:
			return false
		}
	}
}

type scanner struct {
	text  string
	tok   tokenizer
	lines []int // offsets of line starts
	units []Segment
}

// Scan splits text into rule units and pass-through segments in a single
// forward pass. Nested rules stay inside the unit of their top level rule.
// Unbalanced braces and unterminated selector lists are reported as
// *StructuralError.
func Scan(text string) ([]Segment, error) {
	s := &scanner{
		text:  text,
		tok:   tokenizer{text: text},
		lines: lineStarts(text),
	}
	if err := s.level(0, -1); err != nil {
		return nil, err
	}
	return s.segments(), nil
}

// level scans rules at a single nesting level. For nested levels openedAt is
// offset of the grouping at-rule and level ends on its closing brace.
func (s *scanner) level(depth, openedAt int) error {
	var (
		pending = -1 // offset of the first code character since last terminator
		sel     strings.Builder
		last    byte
	)
	reset := func() {
		pending, last = -1, 0
		sel.Reset()
	}

	for {
		tk := s.tok.next()

		switch tk.kind {
		case tokSpace, tokComment:
			if pending >= 0 {
				sel.WriteByte(' ')
			}

		case tokCode:
			if pending < 0 {
				pending = tk.start
			}
			sel.WriteString(s.text[tk.start:tk.end])
			last = s.text[tk.end-1]

		case tokSemi:
			// top level statement: $var, @use, @import - passes through
			reset()

		case tokOpen:
			if pending < 0 {
				return s.fail(tk.start, "opening brace without selector")
			}
			selector, start := collapseSpace(sel.String()), pending
			reset()

			if s.isTransparent(selector) {
				if err := s.level(depth+1, start); err != nil {
					return err
				}
				continue
			}
			end, err := s.body(start)
			if err != nil {
				return err
			}
			s.units = append(s.units, Segment{
				Text: s.text[start:end],
				Rule: &RuleUnit{
					Selector:  selector,
					Body:      s.text[tk.start:end],
					StartLine: s.lineOf(start),
					EndLine:   s.lineOf(end - 1),
					Depth:     depth,
				},
				start: start,
				end:   end,
			})

		case tokClose:
			if openedAt >= 0 {
				return nil
			}
			return s.fail(tk.start, "closing brace without matching opening brace")

		case tokEOF:
			if openedAt >= 0 {
				return s.fail(openedAt, "block is never closed")
			}
			if pending >= 0 && last == ',' {
				return s.fail(pending, "selector list is never terminated")
			}
			return nil
		}
	}
}

// body consumes rule body after its opening brace and returns offset right
// after the matching closing brace.
func (s *scanner) body(start int) (int, error) {
	depth := 1
	for {
		tk := s.tok.next()
		switch tk.kind {
		case tokOpen:
			depth++
		case tokClose:
			depth--
			if depth == 0 {
				return tk.end, nil
			}
		case tokEOF:
			return 0, s.fail(start, "rule is never closed")
		}
	}
}

func (s *scanner) fail(offset int, reason string) error {
	return &StructuralError{Line: s.lineOf(offset), Reason: reason}
}

// segments fills gaps between rule units with pass-through text.
func (s *scanner) segments() []Segment {
	out := make([]Segment, 0, 2*len(s.units)+1)
	pos := 0
	for _, u := range s.units {
		if u.start > pos {
			out = append(out, Segment{Text: s.text[pos:u.start], start: pos, end: u.start})
		}
		out = append(out, u)
		pos = u.end
	}
	if pos < len(s.text) {
		out = append(out, Segment{Text: s.text[pos:], start: pos, end: len(s.text)})
	}
	return out
}

// lineOf returns 1-based line number of offset.
func (s *scanner) lineOf(offset int) int {
	return sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset })
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSpace
	tokComment
	tokCode
	tokOpen
	tokClose
	tokSemi
)

type token struct {
	kind       tokenKind
	start, end int
}

// tokenizer knows just enough of stylesheet lexical structure to find
// structural braces: comments, strings, escapes and SCSS interpolation are
// returned as opaque tokens.
type tokenizer struct {
	text   string
	pos    int
	parens int
}

func (t *tokenizer) peek(n int) byte {
	if t.pos+n < len(t.text) {
		return t.text[t.pos+n]
	}
	return 0
}

func (t *tokenizer) emit(kind tokenKind, start int) token {
	t.pos = min(t.pos, len(t.text))
	return token{kind: kind, start: start, end: t.pos}
}

func (t *tokenizer) next() token {
	start := t.pos
	if t.pos >= len(t.text) {
		return token{kind: tokEOF, start: start, end: start}
	}

	c := t.text[t.pos]
	switch {
	case isSpace(c):
		for t.pos < len(t.text) && isSpace(t.text[t.pos]) {
			t.pos++
		}
		return t.emit(tokSpace, start)

	case c == '/' && t.peek(1) == '*':
		if end := strings.Index(t.text[t.pos+2:], "*/"); end >= 0 {
			t.pos += end + 4
		} else {
			t.pos = len(t.text)
		}
		return t.emit(tokComment, start)

	case c == '/' && t.peek(1) == '/' && t.parens == 0:
		// not inside url(...) or other functions
		if end := strings.IndexByte(t.text[t.pos:], '\n'); end >= 0 {
			t.pos += end
		} else {
			t.pos = len(t.text)
		}
		return t.emit(tokComment, start)

	case c == '"' || c == '\'':
		t.pos++
		for t.pos < len(t.text) {
			ch := t.text[t.pos]
			if ch == '\\' {
				t.pos += 2
				continue
			}
			if ch == '\n' {
				// unterminated string ends at line end
				break
			}
			t.pos++
			if ch == c {
				break
			}
		}
		return t.emit(tokCode, start)

	case c == '#' && t.peek(1) == '{':
		t.pos += 2
		for depth := 1; t.pos < len(t.text) && depth > 0; t.pos++ {
			switch t.text[t.pos] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		return t.emit(tokCode, start)

	case c == '\\':
		t.pos += 2
		return t.emit(tokCode, start)

	case c == '{':
		t.pos++
		t.parens = 0
		return t.emit(tokOpen, start)

	case c == '}':
		t.pos++
		t.parens = 0
		return t.emit(tokClose, start)

	case c == ';':
		t.pos++
		t.parens = 0
		return t.emit(tokSemi, start)

	case c == '(':
		t.parens++
	case c == ')':
		if t.parens > 0 {
			t.parens--
		}
	}
	t.pos++
	return t.emit(tokCode, start)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
