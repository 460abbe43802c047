// Package fragments holds the built-in fragment kinds: their parameter
// schemas and the renderers that turn a validated parameter map into
// canonical markup.
//
// Every renderer writes inline style attributes derived from the resolved
// domain.Style, in a fixed declaration order, so two renders of the same
// input are byte-identical and converters can read styling back from the
// markup alone.
package fragments
