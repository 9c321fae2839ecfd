// ABOUTME: Lead funnel graph generation with graphviz
// ABOUTME: Renders status nodes with counts and the forward edges between them
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/duoproservices/portal/models"
)

var statusColors = map[models.LeadStatus]string{
	models.LeadNew:         "lightyellow",
	models.LeadContacted:   "lightblue",
	models.LeadQuoteSent:   "lightcyan",
	models.LeadNegotiating: "lightsalmon",
	models.LeadWon:         "lightgreen",
	models.LeadLost:        "lightgray",
}

// PipelineGraph renders the lead funnel as DOT source.
func PipelineGraph(ctx context.Context, stats LeadStats) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("Lead pipeline (%d leads, %d%% conversion)", stats.Total, stats.ConversionRate))

	nodes := make(map[models.LeadStatus]*cgraph.Node, len(models.LeadStatuses))
	for _, status := range models.LeadStatuses {
		node, err := graph.CreateNodeByName(string(status))
		if err != nil {
			return "", fmt.Errorf("failed to create %s node: %w", status, err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d", status, stats.ByStatus[status]))
		node.SetShape("box")
		node.SetStyle("filled")
		node.SetFillColor(statusColors[status])
		nodes[status] = node
	}

	funnel := []models.LeadStatus{models.LeadNew, models.LeadContacted, models.LeadQuoteSent, models.LeadNegotiating}
	for i := 0; i+1 < len(funnel); i++ {
		if _, err := graph.CreateEdgeByName("", nodes[funnel[i]], nodes[funnel[i+1]]); err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
	}
	last := nodes[models.LeadNegotiating]
	for _, closed := range []models.LeadStatus{models.LeadWon, models.LeadLost} {
		edge, err := graph.CreateEdgeByName("", last, nodes[closed])
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		if closed == models.LeadWon {
			edge.SetLabel(fmt.Sprintf("$%.0f", stats.TotalValue))
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
