// ABOUTME: Team activity and connectivity MCP tool handlers
// ABOUTME: Implements list_activities and connectivity_status
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/localapi"
)

type ActivityHandlers struct {
	activities *localapi.ActivitiesAPI
}

func NewActivityHandlers(activities *localapi.ActivitiesAPI) *ActivityHandlers {
	return &ActivityHandlers{activities: activities}
}

type ListActivitiesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of activities (default 50)"`
}

func (h *ActivityHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ActivitiesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	activities, err := h.activities.GetActivities(ctx, limit)
	if err != nil {
		return nil, ActivitiesOutput{}, fmt.Errorf("failed to list activities: %w", err)
	}

	out := ActivitiesOutput{Activities: make([]ActivityOutput, 0, len(activities))}
	for _, a := range activities {
		out.Activities = append(out.Activities, activityToOutput(a))
	}
	return nil, out, nil
}

// Module is the read-only view of a controller the status tool needs.
type Module interface {
	Module() string
	State() connectivity.State
	Flag() *connectivity.Flag
}

type StatusHandlers struct {
	gate    *connectivity.Gate
	modules []Module
}

// NewStatusHandlers reports on modules; gate may be nil when no backend is configured.
func NewStatusHandlers(gate *connectivity.Gate, modules ...Module) *StatusHandlers {
	return &StatusHandlers{gate: gate, modules: modules}
}

type ConnectivityStatusInput struct {
	Probe bool `json:"probe,omitempty" jsonschema:"Probe the backend now instead of using the cached result"`
}

type ModuleStatus struct {
	Module      string `json:"module"`
	Mode        string `json:"mode"`
	OfflineFlag bool   `json:"offline_flag"`
	LastCheck   string `json:"last_check,omitempty"`
}

type ConnectivityOutput struct {
	BackendAvailable bool           `json:"backend_available"`
	LastProbe        string         `json:"last_probe,omitempty"`
	Modules          []ModuleStatus `json:"modules"`
}

func (h *StatusHandlers) ConnectivityStatus(ctx context.Context, _ *mcp.CallToolRequest, input ConnectivityStatusInput) (*mcp.CallToolResult, ConnectivityOutput, error) {
	var out ConnectivityOutput
	if h.gate != nil {
		if input.Probe {
			h.gate.Reset()
		}
		out.BackendAvailable = h.gate.Available(ctx)
		at, _ := h.gate.LastCheck()
		out.LastProbe = stamp(at)
	}

	out.Modules = make([]ModuleStatus, 0, len(h.modules))
	for _, m := range h.modules {
		state := m.State()
		out.Modules = append(out.Modules, ModuleStatus{
			Module:      m.Module(),
			Mode:        state.Mode.String(),
			OfflineFlag: m.Flag().IsSet(ctx),
			LastCheck:   stamp(state.LastCheck),
		})
	}
	return nil, out, nil
}
