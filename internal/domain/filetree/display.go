package filetree

import (
	"path"
	"strings"
)

// Ellipsis stands in for collapsed breadcrumb segments.
const Ellipsis = "…"

// MaxBreadcrumbSegments is the longest breadcrumb shown without collapsing.
const MaxBreadcrumbSegments = 4

var languages = map[string]string{
	"js":   "javascript",
	"ts":   "typescript",
	"jsx":  "jsx",
	"tsx":  "tsx",
	"html": "html",
	"css":  "css",
	"json": "json",
	"md":   "markdown",
	"py":   "python",
	"java": "java",
	"cpp":  "cpp",
	"go":   "go",
}

// Language picks the syntax highlighting name for a file, "text" if unknown.
func Language(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if l, ok := languages[ext]; ok {
		return l
	}
	return "text"
}

// Breadcrumb returns the segments to display for p. Paths longer than max keep
// the first and last segment around an ellipsis.
func Breadcrumb(p string, max int) []string {
	segs := Segments(p)
	if max <= 0 {
		max = MaxBreadcrumbSegments
	}
	if len(segs) <= max {
		return segs
	}
	return []string{segs[0], Ellipsis, segs[len(segs)-1]}
}
