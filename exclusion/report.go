package exclusion

import (
	"fmt"
	"strings"
)

const maxExamples = 5

// Summary renders result for humans reviewing a migration.
func Summary(res *Result) string {
	var sb strings.Builder

	theme := res.Theme
	if len(theme) == 0 {
		theme = "(unnamed)"
	}
	if !res.Complete() {
		fmt.Fprintf(&sb, "Theme %s: stylesheet was not classified, source left untouched\n", theme)
		writeFailures(&sb, res.Failures)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Theme %s: classified by %s tier\n", theme, res.Tier)
	fmt.Fprintf(&sb, "Rules kept: %d, excluded: %d\n", res.IncludedCount, res.ExcludedCount)
	for _, c := range categories {
		fmt.Fprintf(&sb, "  %-10s %d\n", c.String()+":", res.PatternsMatched[c])
	}

	if len(res.Excluded) > 0 {
		sb.WriteString("Excluded rules:\n")
		for _, m := range res.Excluded[:min(len(res.Excluded), maxExamples)] {
			fmt.Fprintf(&sb, "  %s (lines %d-%d, %s pattern %q)\n", m.Selector, m.StartLine, m.EndLine, m.Category, m.Pattern)
		}
		if more := len(res.Excluded) - maxExamples; more > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", more)
		}
		sb.WriteString("Header, navigation and footer are provided by the platform. Move any custom chrome styling into platform theme settings.\n")
	}

	if res.Degraded() {
		fmt.Fprintf(&sb, "WARNING: stylesheet could not be parsed structurally, %s tier was used. Verify chrome exclusion manually.\n", res.Tier)
		writeFailures(&sb, res.Failures)
	}
	return sb.String()
}

func writeFailures(sb *strings.Builder, failures []string) {
	for _, f := range failures {
		fmt.Fprintf(sb, "  failure: %s\n", f)
	}
}
