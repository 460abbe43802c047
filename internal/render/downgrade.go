package render

import (
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// Directive is a canonical styling directive.
type Directive string

// Canonical styling directives.
const (
	DirectiveAlign      Directive = "align"
	DirectiveColor      Directive = "color"
	DirectiveBackground Directive = "background"
	DirectiveBorder     Directive = "border"
	DirectiveFontWeight Directive = "font-weight"
	DirectiveFontFamily Directive = "font-family"
	DirectiveFontSize   Directive = "font-size"
)

// Action is what a format does with a directive.
type Action string

// Downgrade actions.
const (
	// ActionKeep reproduces the directive.
	ActionKeep Action = "keep"

	// ActionMarker expresses the directive with the format's native marker syntax.
	ActionMarker Action = "marker"

	// ActionDrop discards the directive.
	ActionDrop Action = "drop"
)

// Downgrades maps each format's capability set. It is the only place that
// decides which styling survives a conversion.
var Downgrades = map[domain.Format]map[Directive]Action{
	domain.FormatCanonical: {
		DirectiveAlign:      ActionKeep,
		DirectiveColor:      ActionKeep,
		DirectiveBackground: ActionKeep,
		DirectiveBorder:     ActionKeep,
		DirectiveFontWeight: ActionKeep,
		DirectiveFontFamily: ActionKeep,
		DirectiveFontSize:   ActionKeep,
	},
	domain.FormatPaginated: {
		DirectiveAlign:      ActionKeep,
		DirectiveColor:      ActionKeep,
		DirectiveBackground: ActionKeep,
		DirectiveBorder:     ActionKeep,
		DirectiveFontWeight: ActionKeep,
		DirectiveFontFamily: ActionKeep,
		DirectiveFontSize:   ActionKeep,
	},
	domain.FormatMarkdown: {
		DirectiveAlign:      ActionMarker,
		DirectiveColor:      ActionDrop,
		DirectiveBackground: ActionDrop,
		DirectiveBorder:     ActionDrop,
		DirectiveFontWeight: ActionMarker,
		DirectiveFontFamily: ActionDrop,
		DirectiveFontSize:   ActionDrop,
	},
}

// Downgrade returns the action format takes for d. Unlisted pairs drop.
func Downgrade(format domain.Format, d Directive) Action {
	if a, ok := Downgrades[format][d]; ok {
		return a
	}
	return ActionDrop
}

// directiveOf classifies a CSS property. ok is false for layout properties
// that are not styling directives (e.g. border-collapse, margin).
func directiveOf(prop string) (Directive, bool) {
	switch {
	case prop == "text-align":
		return DirectiveAlign, true
	case prop == "color":
		return DirectiveColor, true
	case prop == "background" || prop == "background-color":
		return DirectiveBackground, true
	case prop == "border" || (strings.HasPrefix(prop, "border-") && prop != "border-collapse"):
		return DirectiveBorder, true
	case prop == "font-weight":
		return DirectiveFontWeight, true
	case prop == "font-family":
		return DirectiveFontFamily, true
	case prop == "font-size":
		return DirectiveFontSize, true
	default:
		return "", false
	}
}

// styleDecls is a parsed inline style attribute.
type styleDecls map[string]string

func parseStyle(attr string) styleDecls {
	decls := make(styleDecls)
	for _, part := range strings.Split(attr, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop != "" && value != "" {
			decls[prop] = value
		}
	}
	return decls
}

// filter keeps only the declarations format does not drop.
func (d styleDecls) filter(format domain.Format) styleDecls {
	out := make(styleDecls, len(d))
	for prop, value := range d {
		dir, ok := directiveOf(prop)
		if ok && Downgrade(format, dir) == ActionDrop {
			continue
		}
		out[prop] = value
	}
	return out
}
