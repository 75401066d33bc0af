// Package render produces human-readable reports from an evaluation.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sharveshsanjay/clash-royale/internal/domain/evaluation"
)

// Markdown renders a clan review as a Markdown report.
func Markdown(r evaluation.Report, clanTag string) string {
	var b strings.Builder

	b.WriteString("# Clan Review")
	if clanTag != "" {
		fmt.Fprintf(&b, " %s", clanTag)
	}
	b.WriteString("\n\n")

	agg := r.Aggregate
	fmt.Fprintf(&b, "**Eligible members:** %d\n", agg.EligibleCount)
	fmt.Fprintf(&b, "**Average trophies:** %.1f\n", agg.AvgTrophies)
	fmt.Fprintf(&b, "**Average donations:** %.1f\n", agg.AvgDonations)
	fmt.Fprintf(&b, "**Average support:** %.1f\n", agg.AvgSupport)
	fmt.Fprintf(&b, "**Average contribution:** %.1f\n\n", agg.AvgContribution)

	section(&b, "Promotion / Reward List",
		"Members with zero violations and strong support activity.", r.Promotion)
	section(&b, "Members Under Nomination (Week 1)",
		"Failed to meet clan contribution rules.", r.Nomination)
	section(&b, "Demote / Kick List (Week 2)",
		"Lowest-performing members this week.", r.Kick)

	return b.String()
}

func section(b *strings.Builder, title, blurb string, list []evaluation.ScoredMember) {
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, blurb)
	if len(list) == 0 {
		b.WriteString("No members listed.\n\n")
		return
	}
	for _, m := range list {
		fmt.Fprintf(b, "- **%s** (%s)\n", escape(m.Name), m.Tag)
		fmt.Fprintf(b, "  - Violations: %d\n", m.ViolationScore)
		fmt.Fprintf(b, "  - Reasons: %s\n", reasons(m.ViolationReasons))
	}
	b.WriteString("\n")
}

func reasons(rs []evaluation.Reason) string {
	if len(rs) == 0 {
		return "none"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// escape neutralises Markdown emphasis characters in player names.
func escape(s string) string {
	return strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`").Replace(s)
}

// JSON renders the report as indented JSON.
func JSON(r evaluation.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
