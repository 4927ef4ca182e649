package filters

import (
	"regexp"
	"strings"
)

var (
	reSpaceRun = regexp.MustCompile(`\s+`)
	reTag      = regexp.MustCompile(`\[/?[^\[\]]*\]`)
)

// Builtin returns a registry pre-populated with the stock filters.
func Builtin() *Registry {
	r := NewRegistry()

	r.RegisterInput("trim", strings.TrimSpace)
	r.RegisterInput("collapse_space", collapseSpace)

	r.RegisterOutput("trim", strings.TrimSpace)
	r.RegisterOutput("collapse_space", collapseSpace)
	r.RegisterOutput("strip_markup", stripMarkup)

	r.RegisterDisplay("plain", displayPlain)
	r.RegisterDisplay("spaced", displaySpaced)

	return r
}

// collapseSpace folds every whitespace run, including newlines, into a
// single space.
func collapseSpace(text string) string {
	return reSpaceRun.ReplaceAllString(text, " ")
}

// stripMarkup removes square-bracket markup tags the generator may emit, so
// they cannot collide with the client's highlighting tags.
func stripMarkup(text string) string {
	return reTag.ReplaceAllString(text, "")
}

func displayPlain(entries []string) string {
	return strings.Join(entries, "\n\n")
}

func displaySpaced(entries []string) string {
	return strings.Join(entries, " ")
}
