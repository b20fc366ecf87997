package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	StatsURI = "apprunner://stats"
	GuideURI = "apprunner://docs/guide"
)

const serverInstructions = `app-runner serves a set of sub-applications (projects) found under one root directory.

Concepts:
- Project: a directory under the projects root. Its id is the directory name.
- Build: npm install (or ci when a lockfile exists) followed by npm run build in the project directory. One build per project at a time.
- Stats: launch counters and ratings (0-5) per project, plus the number of connected dashboard sessions.

Typical workflow:
1) list_projects to find ids.
2) build_project when a project has no dist output yet; read the logs on failure.
3) record_launch / rate_project to update stats; get_stats or the apprunner://stats resource to read them.
4) list_sessions and list_activity for recent connections and build history.
`

const guideContent = `# app-runner guide

## Project ids

Ids are plain directory names. Anything containing "..", "/", "\" or a NUL
byte is rejected with INVALID_PROJECT_ID before the filesystem is touched.

## Builds

` + "`build_project`" + ` returns ` + "`success: false`" + ` with the captured output when a
step fails, times out or produces more than the output cap. A second build of
the same project while one is running fails with BUILD_IN_PROGRESS.

## Stats

Launch counts only go up. Ratings are appended, never replaced; the summary is
the average and count of every rating recorded for the project.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         GuideURI,
		Name:        "guide",
		Title:       "app-runner guide",
		Description: "Project ids, build behaviour and stats semantics.",
		Content:     guideContent,
	},
}

func registerResources(server *sdkmcp.Server, h *handlers) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}

	server.AddResource(&sdkmcp.Resource{
		URI:         StatsURI,
		Name:        "stats",
		Title:       "Dashboard stats",
		Description: "Current launch counts, rating summaries and online session count.",
		MIMEType:    "application/json",
	}, h.readStats)
}

func (h *handlers) readStats(ctx context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	snap, err := h.svc.Stats.Snapshot(ctx)
	if err != nil {
		return nil, h.fail("read_stats", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding stats: %w", err)
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{{
			URI:      StatsURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
