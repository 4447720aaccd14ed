package engine

import (
	"fmt"
	"strings"

	"stackpr.dev/stackpr/internal/stack"
)

const (
	stackSectionBegin = "<!-- stackpr:begin -->"
	stackSectionEnd   = "<!-- stackpr:end -->"
)

// RenderBody builds the PR description for a freshly created entry: the
// commit message body followed by the generated stack overview section.
// The section sits between markers so later refreshes can find it.
func RenderBody(entry *stack.Entry, entries []*stack.Entry) string {
	var b strings.Builder

	if body := entry.Body(); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	b.WriteString(renderStackSection(entry, entries))

	return b.String()
}

// RefreshBody rebuilds the generated stack section inside an existing PR
// description. Everything the user wrote around the markers is preserved
// verbatim; only the marked section is replaced.
func RefreshBody(remoteBody string, entry *stack.Entry, entries []*stack.Entry) string {
	section := renderStackSection(entry, entries)

	begin := strings.Index(remoteBody, stackSectionBegin)
	if begin < 0 {
		if StripStackSection(remoteBody) == "" {
			return RenderBody(entry, entries)
		}
		// Someone removed the markers entirely; re-append the section
		// after their text.
		return strings.TrimRight(remoteBody, "\n") + "\n\n" + section
	}
	end := strings.Index(remoteBody, stackSectionEnd)
	if end < 0 {
		return remoteBody[:begin] + section
	}
	return remoteBody[:begin] + section + remoteBody[end+len(stackSectionEnd):]
}

func renderStackSection(entry *stack.Entry, entries []*stack.Entry) string {
	var b strings.Builder

	b.WriteString(stackSectionBegin)
	b.WriteString("\n---\n**Stack**:\n")
	// Render top-down, the way the PRs merge last-to-first reads naturally.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		marker := ""
		if e.Index == entry.Index {
			marker = " ⬅"
		}
		if n := e.PRNumber(); n > 0 {
			fmt.Fprintf(&b, "- #%d%s\n", n, marker)
		} else {
			fmt.Fprintf(&b, "- %s%s\n", e.Title(), marker)
		}
	}
	b.WriteString(stackSectionEnd)

	return b.String()
}

// StripStackSection removes the generated stack overview from a PR body so
// remote descriptions can be compared against local commit messages
func StripStackSection(body string) string {
	begin := strings.Index(body, stackSectionBegin)
	if begin < 0 {
		return strings.TrimSpace(body)
	}
	end := strings.Index(body, stackSectionEnd)
	if end < 0 {
		return strings.TrimSpace(body[:begin])
	}
	return strings.TrimSpace(body[:begin] + body[end+len(stackSectionEnd):])
}
