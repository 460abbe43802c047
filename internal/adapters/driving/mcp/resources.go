package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docforge resources.
	uriScheme = "docforge://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "templates",
		Name:        "templates",
		Description: "Templates available to your group",
		MIMEType:    "application/json",
	}, s.handleTemplatesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "styles",
		Name:        "styles",
		Description: "Styles available to your group",
		MIMEType:    "application/json",
	}, s.handleStylesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "templates/{templateId}",
		Name:        "template",
		Description: "Global parameters and fragment types of a template",
		MIMEType:    "application/json",
	}, s.handleTemplateResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "artifacts/{guid}",
		Name:        "artifact",
		Description: "A stored proxy artifact",
	}, s.handleArtifactResource)
}

// templateInfo is the listing form of a template.
type templateInfo struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Group             string   `json:"group"`
	MinFragments      int      `json:"min_fragments"`
	RequiredFragments []string `json:"required_fragments,omitempty"`
}

// templateDetail adds the parameter contracts to templateInfo.
type templateDetail struct {
	templateInfo
	Globals   []fieldInfo    `json:"globals"`
	Fragments []fragmentInfo `json:"fragments"`
}

type fragmentInfo struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"`
	Description string      `json:"description,omitempty"`
	Params      []fieldInfo `json:"params"`
}

type fieldInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Required    bool     `json:"required,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

type styleInfo struct {
	ID         string  `json:"id"`
	Group      string  `json:"group"`
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	Accent     string  `json:"accent_color,omitempty"`
}

// handleTemplatesResource lists the templates visible to the server's group.
func (s *Server) handleTemplatesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return jsonResult(req.Params.URI, []templateInfo{})
	}

	templates, err := s.ports.Catalog.Templates(ctx, s.group)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	infos := make([]templateInfo, len(templates))
	for i := range templates {
		infos[i] = newTemplateInfo(&templates[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleStylesResource lists the styles visible to the server's group.
func (s *Server) handleStylesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return jsonResult(req.Params.URI, []styleInfo{})
	}

	styles, err := s.ports.Catalog.Styles(ctx, s.group)
	if err != nil {
		return nil, fmt.Errorf("listing styles: %w", err)
	}

	infos := make([]styleInfo, len(styles))
	for i, st := range styles {
		infos[i] = styleInfo{
			ID:         st.ID,
			Group:      st.Group,
			FontFamily: st.FontFamily,
			FontSize:   st.FontSize,
			Accent:     st.AccentColor,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleTemplateResource describes one template.
func (s *Server) handleTemplateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// docforge://templates/{templateId}
	id := extractSuffix(req.Params.URI, "templates/")
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	tpl, err := s.ports.Catalog.Template(ctx, id, s.group)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	detail := templateDetail{
		templateInfo: newTemplateInfo(tpl),
		Globals:      fieldInfos(tpl.GlobalSchema),
	}
	ids := make([]string, 0, len(tpl.Fragments))
	for fid := range tpl.Fragments {
		ids = append(ids, fid)
	}
	sort.Strings(ids)
	for _, fid := range ids {
		ft := tpl.Fragments[fid]
		detail.Fragments = append(detail.Fragments, fragmentInfo{
			ID:          ft.ID,
			Kind:        ft.Kind,
			Description: ft.Description,
			Params:      fieldInfos(ft.Schema),
		})
	}
	return jsonResult(req.Params.URI, detail)
}

// handleArtifactResource returns a proxy artifact's bytes. Binary formats
// are returned as a blob.
func (s *Server) handleArtifactResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Proxy == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// docforge://artifacts/{guid}
	guid := extractSuffix(req.Params.URI, "artifacts/")
	if guid == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	art, err := s.ports.Proxy.Fetch(ctx, guid, s.group)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	contents := &mcp.ResourceContents{
		URI:      req.Params.URI,
		MIMEType: art.Format.ContentType(),
	}
	if art.Format.Binary() {
		contents.Blob = art.Data
	} else {
		contents.Text = string(art.Data)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{contents}}, nil
}

// extractSuffix returns the part of uri after docforge://<prefix>, or empty
// when uri does not start with it or names a nested path.
func extractSuffix(uri, prefix string) string {
	full := uriScheme + prefix
	if !strings.HasPrefix(uri, full) {
		return ""
	}
	rest := strings.TrimPrefix(uri, full)
	if strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

func newTemplateInfo(tpl *domain.Template) templateInfo {
	return templateInfo{
		ID:                tpl.ID,
		Title:             tpl.Title,
		Group:             tpl.Group,
		MinFragments:      tpl.MinFragments,
		RequiredFragments: tpl.RequiredFragments,
	}
}

func fieldInfos(schema domain.Schema) []fieldInfo {
	infos := make([]fieldInfo, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		infos = append(infos, fieldInfo{
			Name:        f.Name,
			Type:        string(f.Type),
			Required:    f.Required,
			Description: f.Description,
			Enum:        f.Enum,
			Default:     f.Default,
		})
	}
	return infos
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
