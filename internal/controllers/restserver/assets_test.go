package restserver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/chrissnell/pm10dash/internal/dashboard"
)

func TestGetAssetsEmbedded(t *testing.T) {
	assets, err := GetAssets("")
	if err != nil {
		t.Fatalf("GetAssets(\"\") error = %v", err)
	}
	if _, err := loadViews(assets); err != nil {
		t.Fatalf("loadViews(embedded) error = %v", err)
	}
}

func TestGetAssetsFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "templates", "dashboard.html.tmpl"), []byte("<h1>{{ .Title }}</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	assets, err := GetAssets(dir)
	if err != nil {
		t.Fatalf("GetAssets(%q) error = %v", dir, err)
	}
	v, err := loadViews(assets)
	if err != nil {
		t.Fatalf("loadViews() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.renderDashboard(&buf, &dashboard.Page{Title: "hello"}); err != nil {
		t.Fatalf("renderDashboard() error = %v", err)
	}
	if got := buf.String(); got != "<h1>hello</h1>" {
		t.Errorf("renderDashboard() = %q, want <h1>hello</h1>", got)
	}
}

func TestGetAssetsBadDir(t *testing.T) {
	if _, err := GetAssets(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("GetAssets(missing dir) = nil error; want error")
	}
}

func TestLoadViewsFailures(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no templates", fstest.MapFS{}},
		{"bad syntax", fstest.MapFS{"templates/dashboard.html.tmpl": {Data: []byte("{{ .")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadViews(tt.fsys); err == nil {
				t.Error("loadViews() = nil error; want error")
			}
		})
	}
}
