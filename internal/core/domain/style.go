package domain

// DefaultStyleID is used when a render request names no style.
const DefaultStyleID = "default"

// Style is a format-agnostic block of styling directives.
// Colours are #RRGGBB strings; empty means "not set".
type Style struct {
	ID               string
	Group            string
	FontFamily       string
	FontSize         float64
	TextColor        string
	HeadingColor     string
	HeaderBackground string
	HeaderForeground string
	BorderColor      string
	BorderWidth      float64
	StripeBackground string
	AccentColor      string
}

// VisibleTo reports whether the style may be used by group.
func (s *Style) VisibleTo(group string) bool {
	return s.Group == group || s.Group == PublicGroup || s.Group == ""
}
