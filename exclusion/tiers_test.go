package exclusion

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"thememig/common"
)

func testEngine(t *testing.T, markers bool) *engine {
	t.Helper()
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	return &engine{reg: reg, markers: markers, log: zap.NewNop()}
}

func TestLenientTier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		spans    [][2]int
		included int
	}{
		{
			name:     "comma list and nested block",
			input:    ".navbar,\n.menu {\n  color: red;\n  a { b: c; }\n}\n.content {\n  padding: 0;\n}\n",
			want:     ".content {\n  padding: 0;\n}\n",
			spans:    [][2]int{{1, 5}},
			included: 1,
		},
		{
			name:     "missing closing brace",
			input:    ".header {\n  color: red;\n.content {\n  padding: 0;\n}\n",
			want:     ".content {\n  padding: 0;\n}\n",
			spans:    [][2]int{{1, 2}},
			included: 1,
		},
		{
			name:     "unindented nested child",
			input:    ".header {\n.logo {\nheight: 1px;\n}\n}\n.content { a: b; }\n",
			want:     ".content { a: b; }\n",
			spans:    [][2]int{{1, 5}},
			included: 1,
		},
		{
			name:     "unindented nested child and missing brace",
			input:    ".header {\n.logo {\nheight: 1px;\n}\n.content { a: b; }\n",
			want:     ".content { a: b; }\n",
			spans:    [][2]int{{1, 4}},
			included: 1,
		},
		{
			name:     "one line rule",
			input:    ".footer { a: b; }\n}\n.x { y: z; }\n",
			want:     "}\n.x { y: z; }\n",
			spans:    [][2]int{{1, 1}},
			included: 1,
		},
		{
			name:     "brace on its own line",
			input:    ".main-nav\n{\n  a: b;\n}\n",
			want:     "",
			spans:    [][2]int{{1, 4}},
			included: 0,
		},
		{
			name:     "nested chrome inside kept rule",
			input:    ".content {\n  .nav-item { a: b; }\n  c: d;\n}\n",
			want:     ".content {\n  c: d;\n}\n",
			spans:    [][2]int{{2, 2}},
			included: 1,
		},
		{
			name:     "comments are ignored",
			input:    "/* .header {\n */\n.a { b: c; } // .footer {\n",
			want:     "/* .header {\n */\n.a { b: c; } // .footer {\n",
			included: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res, err := lenientTier{testEngine(t, false)}.run(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output:\n%q\nwant:\n%q", out, tt.want)
			}
			if len(res.Excluded) != len(tt.spans) {
				t.Fatalf("excluded %d rules, want %d: %+v", len(res.Excluded), len(tt.spans), res.Excluded)
			}
			for i, m := range res.Excluded {
				if m.StartLine != tt.spans[i][0] || m.EndLine != tt.spans[i][1] {
					t.Errorf("rule %d lines %d-%d, want %d-%d", i, m.StartLine, m.EndLine, tt.spans[i][0], tt.spans[i][1])
				}
			}
			if res.IncludedCount != tt.included {
				t.Errorf("included %d, want %d", res.IncludedCount, tt.included)
			}
		})
	}
}

func TestLenientTier_UnterminatedList(t *testing.T) {
	_, _, err := lenientTier{testEngine(t, false)}.run(".a { b: c; }\n.header,\n.nav,\n")
	var lerr *LenientError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *LenientError, got %v", err)
	}
	if lerr.Line != 2 {
		t.Errorf("line = %d", lerr.Line)
	}
}

func TestConservativeTier(t *testing.T) {
	input := "/* header */\n.main-nav a { x: y; }\n.content {\n  background: url(footer.png);\n}"

	out, res, err := conservativeTier{testEngine(t, true)}.run(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "/* header */\n/* EXCLUDED NAVIGATION RULE: .main-nav a { x: y; } */\n.content {\n/* EXCLUDED FOOTER RULE: background: url(footer.png); */\n}"
	if out != want {
		t.Errorf("output:\n%s", out)
	}
	if res.ExcludedCount != 2 || res.IncludedCount != 2 {
		t.Errorf("excluded %d, included %d", res.ExcludedCount, res.IncludedCount)
	}
	if m := res.Excluded[1]; m.StartLine != 4 || m.Pattern != "footer" {
		t.Errorf("unexpected match %+v", m)
	}
	if strings.Count(out, "\n") != strings.Count(input, "\n") {
		t.Error("conservative tier with markers must keep line count")
	}
}

type panicTier struct{}

func (panicTier) kind() common.Tier { return common.TierStructural }

func (panicTier) run(string) (string, *Result, error) {
	var m map[string]int
	m["boom"]++
	return "", nil, nil
}

func TestRunTier_Panic(t *testing.T) {
	_, res, err := runTier(panicTier{}, ".a {}", zap.NewNop())
	if err == nil || res != nil {
		t.Fatalf("expected panic to become failure, got %v, %v", res, err)
	}
}

func TestTiersFor(t *testing.T) {
	e := testEngine(t, true)
	tests := []struct {
		strategy common.Strategy
		want     []common.Tier
	}{
		{common.StrategyAuto, []common.Tier{common.TierStructural, common.TierLenient, common.TierConservative}},
		{common.StrategyStructuralOnly, []common.Tier{common.TierStructural}},
		{common.StrategyConservativeOnly, []common.Tier{common.TierConservative}},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			tiers := tiersFor(tt.strategy, e)
			if len(tiers) != len(tt.want) {
				t.Fatalf("got %d tiers", len(tiers))
			}
			for i := range tiers {
				if tiers[i].kind() != tt.want[i] {
					t.Errorf("tier %d = %s, want %s", i, tiers[i].kind(), tt.want[i])
				}
			}
		})
	}
}

func TestLineCode(t *testing.T) {
	tests := []struct {
		line      string
		inComment bool
		want      string
		still     bool
	}{
		{".a { b: c; } /* x */ .d", false, ".a { b: c; }  .d", false},
		{".a /* open", false, ".a ", true},
		{"still */ .b {", true, " .b {", false},
		{"all comment", true, "", true},
		{".a { background: url(//x/y.png); } // tail", false, ".a { background: url(//x/y.png); } ", false},
		{`.a::before { content: "/* no */"; }`, false, `.a::before { content: "/* no */"; }`, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, still := lineCode(tt.line, tt.inComment)
			if got != tt.want || still != tt.still {
				t.Errorf("lineCode(%q) = %q, %v; want %q, %v", tt.line, got, still, tt.want, tt.still)
			}
		})
	}
}

func TestBraces(t *testing.T) {
	tests := []struct {
		code                 string
		first, opens, closes int
	}{
		{".a { b: c; }", 3, 1, 1},
		{".a-#{$x} {", 9, 1, 0},
		{`.a::before { content: "{"; }`, 11, 1, 1},
		{"}}", -1, 0, 2},
		{"color: red;", -1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			first, opens, closes := braces(tt.code)
			if first != tt.first || opens != tt.opens || closes != tt.closes {
				t.Errorf("braces(%q) = %d, %d, %d", tt.code, first, opens, closes)
			}
		})
	}
}
