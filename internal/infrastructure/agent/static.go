package agent

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// StaticGenerator answers every prompt with a one-page app that shows the
// prompt. It lets the whole pipeline run locally without an agent.
type StaticGenerator struct {
	SandboxBaseURL string
}

// Generate implements ports.Generator.
func (g StaticGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (*ports.GenerationOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title := req.Prompt
	if r := []rune(title); len(r) > 40 {
		title = strings.TrimSpace(string(r[:40])) + "…"
	}
	page := fmt.Sprintf(`export default function Page() {
  return (
    <main className="p-8">
      <h1 className="text-2xl font-bold">%s</h1>
      <p className="text-muted-foreground">Generated from %d earlier messages.</p>
    </main>
  );
}
`, html.EscapeString(req.Prompt), len(req.History))
	out := &ports.GenerationOutput{
		Summary: fmt.Sprintf("Created a starter page for %q.", title),
		Title:   title,
		Files: map[string]string{
			"app/page.tsx": page,
			"README.md":    "# " + title + "\n",
		},
	}
	if g.SandboxBaseURL != "" {
		out.SandboxURL = strings.TrimRight(g.SandboxBaseURL, "/") + "/" + req.JobID
	}
	return out, nil
}

var _ ports.Generator = StaticGenerator{}
