package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary)
	assert.NotEmpty(t, theme.Success)
	assert.NotEmpty(t, theme.Warning)
	assert.NotEmpty(t, theme.Error)
}

func TestDefaultTheme_StatusColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	assert.NotEqual(t, theme.Success, theme.Warning)
	assert.NotEqual(t, theme.Success, theme.Error)
	assert.NotEqual(t, theme.Warning, theme.Error)
}

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Primary = "#000000"

	s := NewStyles(theme)

	assert.Equal(t, theme, s.Theme())
}

func TestStyles_TitleIsBold(t *testing.T) {
	s := DefaultStyles()

	assert.True(t, s.Title.GetBold())
}

func TestStyles_Readiness(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Readiness(true), "READY")
	assert.Contains(t, s.Readiness(false), "INCOMPLETE")
}

func TestStyles_Table(t *testing.T) {
	s := DefaultStyles()

	ts := s.Table()

	assert.True(t, ts.Header.GetBold())
	assert.True(t, ts.Selected.GetBold())
}
