package reporting

import (
	"fmt"
	"strings"
)

// RenderMarketCSV renders the market breakdown as a CSV string.
func RenderMarketCSV(rows []MarketRow) string {
	var sb strings.Builder

	sb.WriteString("market,active_count,exits_90d,turnover_rate,median_days_to_pending,survival_rate_30d,sample_size\n")

	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.2f,%s,%s,%d\n",
			m.Market,
			m.ActiveCount,
			m.Exits90d,
			m.TurnoverRate,
			csvFloat(m.MedianDaysToPending),
			csvFloat(m.SurvivalRate30d),
			m.SampleSize,
		))
	}

	return sb.String()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *v)
}
