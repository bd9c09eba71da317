package restserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"

	"github.com/chrissnell/pm10dash/internal/dashboard"
)

// Embed the REST server assets
//
//go:embed all:assets
var assetsFS embed.FS

// GetAssets returns the assets filesystem, either from disk or embedded
func GetAssets(dir string) (fs.FS, error) {
	// Serving from disk removes the need to recompile the binary every time
	// a template or stylesheet is tweaked.
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("assets directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("assets directory %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}

	// Return a sub-filesystem starting from the "assets" directory
	return fs.Sub(assetsFS, "assets")
}

// views holds the parsed page templates
type views struct {
	dashboard *template.Template
}

func loadViews(assets fs.FS) (*views, error) {
	sub, err := fs.Sub(assets, "templates")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(sub, "dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing dashboard template: %w", err)
	}
	return &views{dashboard: tmpl}, nil
}

func (v *views) renderDashboard(w io.Writer, page *dashboard.Page) error {
	return v.dashboard.ExecuteTemplate(w, "dashboard.html.tmpl", page)
}
