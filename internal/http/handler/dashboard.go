package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"zamahub/internal/browser"
	"zamahub/internal/logging"
)

var dashboardTmpl = template.Must(template.New("spaces").Funcs(template.FuncMap{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		d := time.Since(t)
		switch {
		case d < time.Hour:
			return "just now"
		case d < 24*time.Hour:
			return fmt.Sprintf("%dh ago", int(d.Hours()))
		default:
			return t.In(logging.Location()).Format("2 Jan 2006")
		}
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Spaces</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 2rem; color: #111; }
    form { margin-bottom: 1.5rem; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 1rem; }
    .card { border: 1px solid #e5e7eb; border-radius: 8px; padding: 1rem; }
    .owned { border-color: #4D89B0; }
    .meta { color: #6b7280; font-size: .85rem; }
    .badge { background: #4D89B0; color: #fff; border-radius: 4px; padding: 0 .4rem; font-size: .75rem; }
  </style>
</head>
<body>
  <h1>Spaces</h1>
  <p class="meta">Discover and join private DAO governance spaces ({{len .Spaces}} shown)</p>
  <form method="get" action="/spaces">
    <input type="search" name="q" value="{{.Query.Q}}" placeholder="Search spaces" />
    {{if .Query.Owner}}<input type="hidden" name="owner" value="{{.Query.Owner}}" />{{end}}
    <button type="submit">Search</button>
  </form>
  {{if .Warning}}<p class="meta">{{.Warning}}</p>{{end}}
  <div class="grid">
  {{range .Spaces}}
    <div class="card{{if .IsOwned}} owned{{end}}">
      <h3>{{.DisplayName}} {{if .IsOwned}}<span class="badge">Owned</span>{{end}}</h3>
      <p class="meta">{{.ENSName}} · {{ago .CreatedAt}}</p>
      <p>{{.Description}}</p>
      <a href="/api/spaces/{{.SpaceID}}">View</a>
    </div>
  {{else}}
    <p>No spaces found.</p>
  {{end}}
  </div>
</body>
</html>
`))

type dashboardData struct {
	Query   browser.Query
	Spaces  []browser.SpaceSummary
	Warning string
}

// SpacesDashboard renders the space browser as a server-side HTML page.
func SpacesDashboard(b SpaceLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := browser.Query{Q: c.Query("q"), Owner: c.Query("owner")}
		data := dashboardData{Query: q}

		items, err := b.List(c.UserContext(), q)
		if err != nil {
			// Render without ownership marks rather than failing the page.
			data.Warning = "Ownership could not be determined for this address."
			q.Owner = ""
			if items, err = b.List(c.UserContext(), q); err != nil {
				return writeServiceError(c, err)
			}
		}
		data.Spaces = items

		var buf bytes.Buffer
		if err := dashboardTmpl.Execute(&buf, data); err != nil {
			logging.Error("dashboard_render_failed", map[string]any{"error": err})
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}
