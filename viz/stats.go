// ABOUTME: CRM lead statistics and terminal dashboard rendering
// ABOUTME: Stats are derived from the lead collection on demand, never stored
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/duoproservices/portal/models"
)

// LeadStats summarizes a lead collection.
type LeadStats struct {
	Total       int
	New         int
	Contacted   int
	QuoteSent   int
	Negotiating int
	Won         int
	Lost        int

	ByStatus        map[models.LeadStatus]int
	ByContactMethod map[models.ContactMethod]int

	// TotalValue sums estimatedValue over won leads.
	TotalValue float64
	// EstimatedPipeline sums estimatedValue over leads that are neither won nor lost.
	EstimatedPipeline float64
	// ConversionRate is won/total as a rounded percentage, 0 with no leads.
	ConversionRate int
}

// ComputeLeadStats aggregates leads. It is pure; the input is not modified.
func ComputeLeadStats(leads []models.Lead) LeadStats {
	stats := LeadStats{
		Total:           len(leads),
		ByStatus:        make(map[models.LeadStatus]int),
		ByContactMethod: make(map[models.ContactMethod]int),
	}

	for _, lead := range leads {
		stats.ByStatus[lead.Status]++
		if lead.ContactMethod != "" {
			stats.ByContactMethod[lead.ContactMethod]++
		}

		switch lead.Status {
		case models.LeadNew:
			stats.New++
		case models.LeadContacted:
			stats.Contacted++
		case models.LeadQuoteSent:
			stats.QuoteSent++
		case models.LeadNegotiating:
			stats.Negotiating++
		case models.LeadWon:
			stats.Won++
		case models.LeadLost:
			stats.Lost++
		}

		switch {
		case lead.Status == models.LeadWon:
			stats.TotalValue += lead.EstimatedValue
		case !lead.Status.Closed():
			stats.EstimatedPipeline += lead.EstimatedValue
		}
	}

	if stats.Total > 0 {
		stats.ConversionRate = int(math.Round(float64(stats.Won) / float64(stats.Total) * 100))
	}
	return stats
}

// RenderDashboard draws the lead funnel and totals for a terminal.
func RenderDashboard(stats LeadStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DUOPRO LEADS DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE\n")
	renderFunnel(&out, stats)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d leads  %d%% conversion  $%.0f won  $%.0f in pipeline\n\n",
		stats.Total, stats.ConversionRate, stats.TotalValue, stats.EstimatedPipeline))

	if len(stats.ByContactMethod) > 0 {
		out.WriteString("BY CONTACT METHOD\n")
		for _, method := range models.ContactMethods {
			if n := stats.ByContactMethod[method]; n > 0 {
				out.WriteString(fmt.Sprintf("  %-10s %d\n", method, n))
			}
		}
	}

	return out.String()
}

func renderFunnel(out *strings.Builder, stats LeadStats) {
	maxCount := 0
	for _, n := range stats.ByStatus {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, status := range models.LeadStatuses {
		count := stats.ByStatus[status]
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-12s %s  %2d\n", status, bar, count))
	}
}
