package mcp

import (
	"context"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
)

type handlers struct {
	svc    Services
	logger *slog.Logger
}

func registerTools(server *sdkmcp.Server, h *handlers) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the sub-applications found under the projects root",
	}, h.listProjects)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "build_project",
		Description: "Install dependencies and run the build script of a project; returns the combined output",
	}, h.buildProject)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "record_launch",
		Description: "Count one launch of a project and return its new launch count",
	}, h.recordLaunch)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rate_project",
		Description: "Append a rating between 0 and 5 for a project",
	}, h.rateProject)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_stats",
		Description: "Get launch counts, rating summaries and the online session count",
	}, h.getStats)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List recent realtime sessions, most recent first",
	}, h.listSessions)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activity",
		Description: "List recent build, import and sweep events, newest first",
	}, h.listActivity)
}

// fail logs errors that map to INTERNAL and returns the client-facing error.
func (h *handlers) fail(tool string, err error) error {
	apiErr := MapError(err)
	if apiErr.Code == "INTERNAL" {
		h.logger.Error("mcp tool failed", "tool", tool, "error", err)
	}
	return apiErr
}

func (h *handlers) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListProjectsInput) (*sdkmcp.CallToolResult, ListProjectsOutput, error) {
	list, err := h.svc.Projects.List(ctx)
	if err != nil {
		return nil, ListProjectsOutput{}, h.fail("list_projects", err)
	}
	return nil, ListProjectsOutput{Projects: toProjectOutputs(list)}, nil
}

// buildProject reports a failed build as a normal result carrying the logs;
// only rejected builds become tool errors.
func (h *handlers) buildProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, BuildProjectOutput, error) {
	result, err := h.svc.Builds.Build(ctx, in.ProjectID)
	if err != nil {
		var failure *build.Failure
		if errors.As(err, &failure) {
			return nil, BuildProjectOutput{
				ProjectID: in.ProjectID,
				Logs:      failure.Logs,
				Error:     failure.Error(),
			}, nil
		}
		return nil, BuildProjectOutput{}, h.fail("build_project", err)
	}
	return nil, BuildProjectOutput{
		ProjectID: in.ProjectID,
		Success:   result.OK,
		Logs:      result.Logs,
	}, nil
}

func (h *handlers) recordLaunch(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectIDInput) (*sdkmcp.CallToolResult, RecordLaunchOutput, error) {
	count, err := h.svc.Stats.RecordLaunch(ctx, in.ProjectID)
	if err != nil {
		return nil, RecordLaunchOutput{}, h.fail("record_launch", err)
	}
	return nil, RecordLaunchOutput{ProjectID: in.ProjectID, Launches: count}, nil
}

func (h *handlers) rateProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in RateProjectInput) (*sdkmcp.CallToolResult, RateProjectOutput, error) {
	count, err := h.svc.Stats.RecordRating(ctx, in.ProjectID, in.Rating)
	if err != nil {
		return nil, RateProjectOutput{}, h.fail("rate_project", err)
	}
	return nil, RateProjectOutput{ProjectID: in.ProjectID, RatingCount: count}, nil
}

func (h *handlers) getStats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetStatsInput) (*sdkmcp.CallToolResult, StatsOutput, error) {
	snap, err := h.svc.Stats.Snapshot(ctx)
	if err != nil {
		return nil, StatsOutput{}, h.fail("get_stats", err)
	}
	return nil, toStatsOutput(snap), nil
}

func (h *handlers) listSessions(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListSessionsInput) (*sdkmcp.CallToolResult, ListSessionsOutput, error) {
	list, err := h.svc.Sessions.List(ctx, in.Limit)
	if err != nil {
		return nil, ListSessionsOutput{}, h.fail("list_sessions", err)
	}
	return nil, ListSessionsOutput{Sessions: toSessionOutputs(list)}, nil
}

func (h *handlers) listActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListActivityInput) (*sdkmcp.CallToolResult, ListActivityOutput, error) {
	if h.svc.Activity == nil {
		return nil, ListActivityOutput{Entries: []ActivityOutput{}}, nil
	}
	opts := activity.ListActivityOptions{ProjectID: in.ProjectID, Limit: in.Limit}
	if in.Type != "" {
		typ := activity.ActivityType(in.Type)
		opts.ActivityType = &typ
	}
	entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return nil, ListActivityOutput{}, h.fail("list_activity", err)
	}
	return nil, ListActivityOutput{Entries: toActivityOutputs(entries)}, nil
}
