package exclusion

import (
	"regexp"
	"strings"

	"thememig/common"
)

// Preprocess normalizes source before classification. All modes keep number
// of lines and brace structure intact so reported line numbers address the
// original source.
func Preprocess(mode common.PreprocessMode, text string) string {
	switch mode {
	case common.PreprocessModeMinimal:
		return StripComments(text)
	case common.PreprocessModeVariables:
		return RewriteVariables(StripComments(text))
	default:
		return text
	}
}

// StripComments removes block and line comments. Newlines inside block
// comments are kept. Comment markers inside strings and url(...) are left
// alone.
func StripComments(text string) string {
	var (
		sb  strings.Builder
		tok = tokenizer{text: text}
	)
	sb.Grow(len(text))
	for {
		tk := tok.next()
		if tk.kind == tokEOF {
			break
		}
		if tk.kind != tokComment {
			sb.WriteString(text[tk.start:tk.end])
			continue
		}
		sb.WriteString(strings.Repeat("\n", strings.Count(text[tk.start:tk.end], "\n")))
	}
	return sb.String()
}

var (
	variableDeclRe = regexp.MustCompile(`(?m)^([ \t]*)\$([A-Za-z_][A-Za-z0-9_-]*)([ \t]*):`)
	variableRefRe  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_-]*)`)
	variableFlagRe = regexp.MustCompile(`[ \t]*!(?:default|global)\b`)
)

// RewriteVariables turns SCSS variables into custom properties:
// "$brand: red !default;" becomes "--brand: red;" and "$brand" references
// become "var(--brand)". Variables inside strings, interpolation and
// parameter lists of @mixin, @function, @each and @for are not touched.
func RewriteVariables(text string) string {
	text = variableDeclRe.ReplaceAllString(text, "${1}--${2}${3}:")
	text = variableFlagRe.ReplaceAllString(text, "")

	spans := protectedSpans(text)
	var (
		sb   strings.Builder
		prev int
	)
	for _, loc := range variableRefRe.FindAllStringSubmatchIndex(text, -1) {
		if inSpans(spans, loc[0]) {
			continue
		}
		sb.WriteString(text[prev:loc[0]])
		sb.WriteString("var(--")
		sb.WriteString(text[loc[2]:loc[3]])
		sb.WriteByte(')')
		prev = loc[1]
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// protectedSpans returns [start, end) offsets of strings, "#{...}" spans and
// at-rule headers declaring variables.
func protectedSpans(text string) [][2]int {
	var (
		spans  [][2]int
		tok    = tokenizer{text: text}
		header = -1
	)
	for {
		tk := tok.next()
		switch tk.kind {
		case tokEOF:
			if header >= 0 {
				spans = append(spans, [2]int{header, len(text)})
			}
			return spans
		case tokOpen, tokClose, tokSemi:
			if header >= 0 {
				spans = append(spans, [2]int{header, tk.start})
				header = -1
			}
		case tokCode:
			switch c := text[tk.start]; {
			case c == '"' || c == '\'' || (c == '#' && tk.end-tk.start > 1):
				spans = append(spans, [2]int{tk.start, tk.end})
			case c == '@' && header < 0 && declaresVariables(text[tk.start:]):
				header = tk.start
			}
		}
	}
}

var declaringAtRules = []string{"@mixin", "@function", "@each", "@for"}

func declaresVariables(s string) bool {
	for _, name := range declaringAtRules {
		rest, ok := strings.CutPrefix(s, name)
		if ok && (len(rest) == 0 || !isNameChar(rest[0])) {
			return true
		}
	}
	return false
}

func isNameChar(c byte) bool {
	return c == '-' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func inSpans(spans [][2]int, pos int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}
