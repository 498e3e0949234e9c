package reporting

import (
	"fmt"
	"strings"
	"time"

	"listing-lab/internal/domain"
	"listing-lab/internal/liquidity"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Liquidity Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	scope := "all markets"
	if r.Market != "" {
		scope = r.Market
	}
	sb.WriteString(fmt.Sprintf("As of %s | %s | %d-day lookback | Grade %s (coverage %.1f%%)\n\n",
		r.AsOf.Format(domain.DateFormat), scope, r.LookbackDays,
		r.Confidence.Grade, r.Confidence.Coverage))

	// Inventory
	sb.WriteString("## Inventory\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Active Listings | %d |\n", r.Inventory.ActiveListings))
	sb.WriteString(fmt.Sprintf("| Total Value | %s |\n", fmtDollars(r.Inventory.TotalValue)))
	sb.WriteString(fmt.Sprintf("| Avg Price | %s |\n", fmtDollars(r.Inventory.AvgPrice)))
	for _, cohort := range []domain.CohortName{domain.CohortNew, domain.CohortMid, domain.CohortOld, domain.CohortToxic} {
		if n, ok := r.Inventory.Cohorts[cohort]; ok {
			sb.WriteString(fmt.Sprintf("| Cohort %s | %d |\n", cohort, n))
		}
	}
	sb.WriteString("\n")

	// Velocity
	sb.WriteString("## Velocity\n\n")
	sb.WriteString("| Metric | Value | Signal |\n")
	sb.WriteString("|--------|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Exits (30d) | %d | |\n", r.Velocity.Exits30d))
	sb.WriteString(fmt.Sprintf("| Exits (90d) | %d | |\n", r.Velocity.Exits90d))
	sb.WriteString(fmt.Sprintf("| Monthly Velocity | %d | |\n", r.Velocity.MonthlyVelocity))
	sb.WriteString(fmt.Sprintf("| 90-Day Turnover | %.1f%% | %s |\n",
		r.Velocity.TurnoverRate90d, signalIcon(r.Velocity.TurnoverSignal)))
	sb.WriteString(fmt.Sprintf("| Months of Inventory | %s | %s |\n",
		fmtFloat(r.Velocity.MonthsOfInventory, "%.1f"), signalIcon(r.Velocity.MonthsInvSignal)))
	sb.WriteString("\n")

	// Days to pending
	sb.WriteString(fmt.Sprintf("## Days to Pending (n=%d)\n\n", r.Pending.SampleSize))
	if r.Pending.SampleSize == 0 {
		sb.WriteString("No completed transitions in window.\n\n")
	} else {
		sb.WriteString("| Metric | Days |\n")
		sb.WriteString("|--------|------|\n")
		sb.WriteString(fmt.Sprintf("| Median | %s |\n", fmtFloat(r.Pending.Median, "%.1f")))
		sb.WriteString(fmt.Sprintf("| Mean | %s |\n", fmtFloat(r.Pending.Mean, "%.1f")))
		sb.WriteString("\n")
	}

	// Survival
	sb.WriteString("## Survival\n\n")
	sb.WriteString("| Horizon | Still Listed |\n")
	sb.WriteString("|---------|-------------|\n")
	sb.WriteString(fmt.Sprintf("| 30 days | %s |\n", fmtPct(r.Survival.Rate30d)))
	sb.WriteString(fmt.Sprintf("| 60 days | %s |\n", fmtPct(r.Survival.Rate60d)))
	sb.WriteString(fmt.Sprintf("| 90 days | %s |\n", fmtPct(r.Survival.Rate90d)))
	sb.WriteString(fmt.Sprintf("\nWeekly hazard: %s\n\n", fmtFloat(r.Survival.WeeklyHazard, "%.4f")))

	// Price stress
	sb.WriteString("## Price Stress\n\n")
	sb.WriteString(fmt.Sprintf("%.1f%% of active listings have cut price (%d cuts total).\n\n",
		r.Stress.PctWithPriceCuts, r.Stress.TotalPriceCuts))

	// Market breakdown
	sb.WriteString("## Markets by Turnover\n\n")
	if len(r.ByMarket) > 0 {
		sb.WriteString("| Market | Active | Exits 90d | Turnover | Median DtP | Survival 30d | n |\n")
		sb.WriteString("|--------|--------|-----------|----------|------------|--------------|---|\n")
		for _, m := range r.ByMarket {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% | %s | %s | %d |\n",
				m.Market, m.ActiveCount, m.Exits90d, m.TurnoverRate,
				fmtFloat(m.MedianDaysToPending, "%.1f"), fmtPct(m.SurvivalRate30d), m.SampleSize))
		}
	} else {
		sb.WriteString("No market breakdown available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderTrendMarkdown renders a movement section computed from two archived
// snapshots, suitable for appending to a markdown report.
func RenderTrendMarkdown(t *liquidity.Trend) string {
	var sb strings.Builder

	days := domain.DaysBetween(t.From.AsOf, t.To.AsOf)
	sb.WriteString(fmt.Sprintf("## Trend (%s -> %s, %d days)\n\n",
		t.From.AsOf.Format(domain.DateFormat), t.To.AsOf.Format(domain.DateFormat), days))
	sb.WriteString("| Metric | Change |\n")
	sb.WriteString("|--------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Active Listings | %+d |\n", t.ActiveInventoryChange))
	sb.WriteString(fmt.Sprintf("| 90-Day Turnover | %+.1f pp |\n", t.TurnoverChange))
	sb.WriteString(fmt.Sprintf("| Months of Inventory | %s |\n", fmtFloat(t.MonthsInventoryChange, "%+.1f")))
	sb.WriteString(fmt.Sprintf("| Median Days to Pending | %s |\n", fmtFloat(t.MedianDaysChange, "%+.1f")))
	sb.WriteString("\n")

	return sb.String()
}

func signalIcon(s liquidity.SignalStatus) string {
	switch s {
	case liquidity.SignalGreen:
		return "GREEN"
	case liquidity.SignalYellow:
		return "YELLOW"
	case liquidity.SignalRed:
		return "RED"
	default:
		return "-"
	}
}

func fmtFloat(v *float64, format string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf(format, *v)
}

func fmtPct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func fmtDollars(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.0f", *v)
}
