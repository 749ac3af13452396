package exclusion

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ErrUnbalancedSelector is returned when brackets in selector do not pair up
// and top level commas cannot be found reliably.
var ErrUnbalancedSelector = errors.New("unbalanced brackets in selector")

// SplitSelectors splits selector list on top level commas. Commas inside
// functional pseudo classes (":not(a, b)"), attribute brackets and SCSS
// interpolation ("#{a, b}") do not split. Comments are dropped and whitespace
// in each part is collapsed.
func SplitSelectors(selector string) ([]string, error) {
	lexer := css.NewLexer(parse.NewInputString(selector))

	var (
		parts []string
		sb    strings.Builder
		depth int
	)
	for {
		tt, data := lexer.Next()

		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("unable to tokenize selector: %w", err)
			}
			if depth != 0 {
				return nil, ErrUnbalancedSelector
			}
			return appendSegment(parts, sb.String()), nil

		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++

		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			depth--
			if depth < 0 {
				return nil, ErrUnbalancedSelector
			}

		case css.CommaToken:
			if depth == 0 {
				parts = appendSegment(parts, sb.String())
				sb.Reset()
				continue
			}

		case css.CommentToken:
			continue
		}
		sb.Write(data)
	}
}

func appendSegment(parts []string, s string) []string {
	if s = collapseSpace(s); len(s) > 0 {
		parts = append(parts, s)
	}
	return parts
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
