package server

import (
	"context"
	"net/http"

	"github.com/mikeboe/lab-dashboard/pkg/api"
	"github.com/mikeboe/lab-dashboard/pkg/collab"
	"github.com/mikeboe/lab-dashboard/pkg/metrics"
	"github.com/mikeboe/lab-dashboard/pkg/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchDashboardArgs struct {
	Query string `json:"query" jsonschema:"text to look for in dashboard page, feature and help titles and descriptions"`
}

type SearchDashboardResult struct {
	Results []search.Entry `json:"results"`
}

type ListSuggestionsArgs struct{}

type ListSuggestionsResult struct {
	Suggestions []api.Suggestion `json:"suggestions"`
}

type DraftEmailArgs struct {
	ToLabID      int      `json:"to_lab_id" jsonschema:"id of the recipient lab"`
	LabName      string   `json:"lab_name" jsonschema:"name of the recipient lab"`
	SharedDomain string   `json:"shared_domain" jsonschema:"research domain both labs share"`
	Reason       string   `json:"reason,omitempty" jsonschema:"why the labs should work together"`
	Projects     []string `json:"recommended_projects,omitempty" jsonschema:"project ideas to list in the letter"`
}

type DraftEmailResult struct {
	ToLabID   int    `json:"to_lab_id"`
	ToLabName string `json:"to_lab_name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// NewMCPServer exposes dashboard search and the collaboration workflow as
// MCP tools.
func (s *Service) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "lab-dashboard-mcp", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_dashboard",
		Description: "Search the dashboard's pages, features and help topics.",
	}, s.searchDashboardTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collaboration_suggestions",
		Description: "List the rule-based lab collaboration suggestions from the lab backend.",
	}, s.listSuggestionsTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_collaboration_email",
		Description: "Write the collaboration proposal letter for a lab without sending it.",
	}, s.draftEmailTool)

	return server
}

// MCPHandler serves the MCP server over streamable HTTP.
func (s *Service) MCPHandler() http.Handler {
	server := s.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (s *Service) searchDashboardTool(ctx context.Context, req *mcp.CallToolRequest, args SearchDashboardArgs) (*mcp.CallToolResult, SearchDashboardResult, error) {
	results := s.Index.Search(args.Query)
	if results == nil {
		results = []search.Entry{}
	} else {
		metrics.RecordSearch(len(results))
	}
	return nil, SearchDashboardResult{Results: results}, nil
}

func (s *Service) listSuggestionsTool(ctx context.Context, req *mcp.CallToolRequest, args ListSuggestionsArgs) (*mcp.CallToolResult, ListSuggestionsResult, error) {
	// Suggestions are public, so no session token is attached.
	list, err := s.NewBackend(nil, s.Logger).Suggestions(ctx)
	if err != nil {
		return nil, ListSuggestionsResult{}, err
	}
	if list == nil {
		list = []api.Suggestion{}
	}
	return nil, ListSuggestionsResult{Suggestions: list}, nil
}

func (s *Service) draftEmailTool(ctx context.Context, req *mcp.CallToolRequest, args DraftEmailArgs) (*mcp.CallToolResult, DraftEmailResult, error) {
	src := collab.DraftSource{
		ToLab:               args.LabName,
		SharedDomain:        args.SharedDomain,
		Reason:              args.Reason,
		RecommendedProjects: args.Projects,
	}
	if args.ToLabID > 0 {
		src.ToLabID = &args.ToLabID
	}

	d := collab.OpenEmailDraft(src, s.Cfg.OrgName)
	out := DraftEmailResult{ToLabName: d.ToLabName, Subject: d.Subject, Body: d.Body}
	if d.ToLabID != nil {
		out.ToLabID = *d.ToLabID
	}
	return nil, out, nil
}
