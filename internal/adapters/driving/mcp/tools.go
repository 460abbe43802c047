package mcp

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
)

// SessionRefInput addresses a session by UUID or alias.
type SessionRefInput struct {
	Session string `json:"session" jsonschema:"session UUID or alias"`
}

// CreateSessionInput is the input schema for the create_session tool.
type CreateSessionInput struct {
	TemplateID string `json:"template_id" jsonschema:"template to instantiate, e.g. basic_report"`
	Alias      string `json:"alias" jsonschema:"3-64 characters of letters, digits, '-' and '_'; unique in your group"`
}

// SetGlobalsInput is the input schema for the set_globals tool.
type SetGlobalsInput struct {
	Session string         `json:"session" jsonschema:"session UUID or alias"`
	Params  map[string]any `json:"params" jsonschema:"complete global parameter map; replaces the previous one"`
}

// AddFragmentInput is the input schema for the add_fragment tool.
type AddFragmentInput struct {
	Session    string         `json:"session" jsonschema:"session UUID or alias"`
	FragmentID string         `json:"fragment_id" jsonschema:"fragment type declared by the session's template"`
	Params     map[string]any `json:"params" jsonschema:"fragment parameters"`
}

// ReplaceFragmentInput is the input schema for the replace_fragment tool.
type ReplaceFragmentInput struct {
	Session    string         `json:"session" jsonschema:"session UUID or alias"`
	InstanceID string         `json:"instance_id" jsonschema:"fragment instance to replace"`
	Params     map[string]any `json:"params" jsonschema:"parameters of the replacement instance"`
}

// RemoveFragmentInput is the input schema for the remove_fragment tool.
type RemoveFragmentInput struct {
	Session    string `json:"session" jsonschema:"session UUID or alias"`
	InstanceID string `json:"instance_id" jsonschema:"fragment instance to remove"`
}

// RenderInput is the input schema for the render tool.
type RenderInput struct {
	Session string `json:"session" jsonschema:"session UUID or alias"`
	Format  string `json:"format,omitempty" jsonschema:"canonical (html), paginated (pdf) or markdown (md); default canonical"`
	StyleID string `json:"style_id,omitempty" jsonschema:"style to apply; default is the configured default style"`
	Proxy   bool   `json:"proxy,omitempty" jsonschema:"store the output and return a proxy GUID instead of the content"`
}

// EmptyInput is used by tools without arguments.
type EmptyInput struct{}

// FragmentOutput is one fragment instance.
type FragmentOutput struct {
	InstanceID string         `json:"instance_id"`
	FragmentID string         `json:"fragment_id"`
	Seq        int64          `json:"seq"`
	Params     map[string]any `json:"params"`
}

// SessionOutput is a session snapshot.
type SessionOutput struct {
	ID         string           `json:"id"`
	Alias      string           `json:"alias"`
	TemplateID string           `json:"template_id"`
	Group      string           `json:"group"`
	Status     string           `json:"status"`
	Globals    map[string]any   `json:"globals"`
	Fragments  []FragmentOutput `json:"fragments"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

// SessionListOutput is the output schema for the list_sessions tool.
type SessionListOutput struct {
	Sessions []SessionSummary `json:"sessions"`
	Count    int              `json:"count"`
}

// SessionSummary is one row of list_sessions.
type SessionSummary struct {
	ID            string `json:"id"`
	Alias         string `json:"alias"`
	TemplateID    string `json:"template_id"`
	FragmentCount int    `json:"fragment_count"`
	UpdatedAt     string `json:"updated_at"`
}

// InstanceOutput reports the instance created by a fragment mutation.
type InstanceOutput struct {
	InstanceID string `json:"instance_id"`
}

// StatusOutput is the output schema for the session_status tool.
type StatusOutput struct {
	SessionID      string   `json:"session_id"`
	Alias          string   `json:"alias"`
	TemplateID     string   `json:"template_id"`
	Status         string   `json:"status"`
	GlobalsSet     bool     `json:"globals_set"`
	MissingGlobals []string `json:"missing_globals,omitempty"`
	FragmentCount  int      `json:"fragment_count"`
	Ready          bool     `json:"ready"`
}

// OKOutput acknowledges a mutation without a payload.
type OKOutput struct {
	OK bool `json:"ok"`
}

// RenderOutput is the output schema for the render tool. Exactly one of
// Content, ContentBase64 and ProxyGUID is set.
type RenderOutput struct {
	SessionID     string `json:"session_id"`
	Format        string `json:"format"`
	StyleID       string `json:"style_id"`
	ContentType   string `json:"content_type"`
	Content       string `json:"content,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	ProxyGUID     string `json:"proxy_guid,omitempty"`
	ProxyURL      string `json:"proxy_url,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_session",
		Description: "Start a document session from a template",
	}, s.handleCreateSession)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List the active document sessions of your group",
	}, s.handleListSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_session",
		Description: "Show a session with its global parameters and fragments",
	}, s.handleGetSession)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_globals",
		Description: "Validate and replace the session's global parameters",
	}, s.handleSetGlobals)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_fragment",
		Description: "Validate and append a fragment to the session",
	}, s.handleAddFragment)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "replace_fragment",
		Description: "Replace a fragment instance with a new one of the same type",
	}, s.handleReplaceFragment)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_fragment",
		Description: "Remove a fragment instance from the session",
	}, s.handleRemoveFragment)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "session_status",
		Description: "Report parameter completeness, fragment count and readiness",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "abort_session",
		Description: "End the session and delete its state and proxy artifacts",
	}, s.handleAbort)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render",
		Description: "Render the session as canonical HTML, PDF or markdown",
	}, s.handleRender)
}

func (s *Server) handleCreateSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateSessionInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	sess, err := s.ports.Sessions.Create(ctx, input.TemplateID, input.Alias, s.group)
	if err != nil {
		return nil, SessionOutput{}, toolError(err)
	}
	return nil, sessionOutput(sess), nil
}

func (s *Server) handleListSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, SessionListOutput, error) {
	sessions, err := s.ports.Sessions.List(ctx, s.group)
	if err != nil {
		return nil, SessionListOutput{}, toolError(err)
	}

	output := SessionListOutput{
		Sessions: make([]SessionSummary, len(sessions)),
		Count:    len(sessions),
	}
	for i := range sessions {
		output.Sessions[i] = SessionSummary{
			ID:            sessions[i].ID,
			Alias:         sessions[i].Alias,
			TemplateID:    sessions[i].TemplateID,
			FragmentCount: len(sessions[i].Fragments),
			UpdatedAt:     timestamp(sessions[i].UpdatedAt),
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionRefInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	sess, err := s.ports.Sessions.Get(ctx, input.Session, s.group)
	if err != nil {
		return nil, SessionOutput{}, toolError(err)
	}
	return nil, sessionOutput(sess), nil
}

func (s *Server) handleSetGlobals(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetGlobalsInput,
) (*mcp.CallToolResult, OKOutput, error) {
	if err := s.ports.Sessions.SetGlobals(ctx, input.Session, s.group, input.Params); err != nil {
		return nil, OKOutput{}, toolError(err)
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleAddFragment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddFragmentInput,
) (*mcp.CallToolResult, InstanceOutput, error) {
	id, err := s.ports.Sessions.AddFragment(ctx, input.Session, s.group, input.FragmentID, input.Params)
	if err != nil {
		return nil, InstanceOutput{}, toolError(err)
	}
	return nil, InstanceOutput{InstanceID: id}, nil
}

func (s *Server) handleReplaceFragment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReplaceFragmentInput,
) (*mcp.CallToolResult, InstanceOutput, error) {
	id, err := s.ports.Sessions.ReplaceFragment(ctx, input.Session, s.group, input.InstanceID, input.Params)
	if err != nil {
		return nil, InstanceOutput{}, toolError(err)
	}
	return nil, InstanceOutput{InstanceID: id}, nil
}

func (s *Server) handleRemoveFragment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveFragmentInput,
) (*mcp.CallToolResult, OKOutput, error) {
	if err := s.ports.Sessions.RemoveFragment(ctx, input.Session, s.group, input.InstanceID); err != nil {
		return nil, OKOutput{}, toolError(err)
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionRefInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	report, err := s.ports.Sessions.Status(ctx, input.Session, s.group)
	if err != nil {
		return nil, StatusOutput{}, toolError(err)
	}
	return nil, StatusOutput{
		SessionID:      report.SessionID,
		Alias:          report.Alias,
		TemplateID:     report.TemplateID,
		Status:         string(report.Status),
		GlobalsSet:     report.GlobalsSet,
		MissingGlobals: report.MissingGlobals,
		FragmentCount:  report.FragmentCount,
		Ready:          report.Ready,
	}, nil
}

func (s *Server) handleAbort(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionRefInput,
) (*mcp.CallToolResult, OKOutput, error) {
	if err := s.ports.Sessions.Abort(ctx, input.Session, s.group); err != nil {
		return nil, OKOutput{}, toolError(err)
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleRender(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenderInput,
) (*mcp.CallToolResult, RenderOutput, error) {
	format := domain.FormatCanonical
	if input.Format != "" {
		f, err := domain.ParseFormat(input.Format)
		if err != nil {
			return nil, RenderOutput{}, toolError(err)
		}
		format = f
	}

	res, err := s.ports.Render.Render(ctx, input.Session, s.group, driving.RenderRequest{
		Format:  format,
		StyleID: input.StyleID,
		Proxy:   input.Proxy,
	})
	if err != nil {
		logger.Debug("mcp: render %s for %q failed: %v", input.Session, s.group, err)
		return nil, RenderOutput{}, toolError(err)
	}

	output := RenderOutput{
		SessionID:   res.SessionID,
		Format:      string(res.Format),
		StyleID:     res.StyleID,
		ContentType: res.ContentType,
	}
	switch {
	case res.ProxyGUID != "":
		output.ProxyGUID = res.ProxyGUID
		if s.opts.ProxyBaseURL != "" {
			output.ProxyURL = s.opts.ProxyBaseURL + "/proxy/" + res.ProxyGUID
		}
	case res.Format.Binary():
		output.ContentBase64 = base64.StdEncoding.EncodeToString(res.Data)
	default:
		output.Content = string(res.Data)
	}
	return nil, output, nil
}

// sessionOutput converts a session snapshot to its tool representation.
func sessionOutput(sess *domain.Session) SessionOutput {
	out := SessionOutput{
		ID:         sess.ID,
		Alias:      sess.Alias,
		TemplateID: sess.TemplateID,
		Group:      sess.Group,
		Status:     string(sess.Status),
		Globals:    nonNil(sess.Globals),
		Fragments:  make([]FragmentOutput, len(sess.Fragments)),
		CreatedAt:  timestamp(sess.CreatedAt),
		UpdatedAt:  timestamp(sess.UpdatedAt),
	}
	for i, f := range sess.Fragments {
		out.Fragments[i] = FragmentOutput{
			InstanceID: f.InstanceID,
			FragmentID: f.FragmentID,
			Seq:        f.Seq,
			Params:     nonNil(f.Params),
		}
	}
	return out
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
