package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSchemesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write schemes file: %v", err)
	}
	return path
}

func TestLoadSchemes(t *testing.T) {
	path := writeSchemesFile(t, `schemes:
  - name: HDFC Large Cap Fund
    category: Large Cap
    url: https://groww.in/mutual-funds/hdfc-large-cap-fund-direct-growth
  - name: HDFC Mid Cap Fund
    category: Mid Cap
    url: https://groww.in/mutual-funds/hdfc-mid-cap-fund-direct-growth
`)

	schemes, err := LoadSchemes(path)
	if err != nil {
		t.Fatalf("LoadSchemes() error = %v", err)
	}

	if len(schemes) != 2 {
		t.Fatalf("LoadSchemes() returned %d schemes, want 2", len(schemes))
	}

	want := Scheme{
		Name:     "HDFC Large Cap Fund",
		Category: "Large Cap",
		URL:      "https://groww.in/mutual-funds/hdfc-large-cap-fund-direct-growth",
	}
	if schemes[0] != want {
		t.Errorf("LoadSchemes()[0] = %+v, want %+v", schemes[0], want)
	}
	if schemes[1].Name != "HDFC Mid Cap Fund" {
		t.Errorf("LoadSchemes()[1].Name = %q", schemes[1].Name)
	}
}

func TestLoadSchemes_Errors(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantErrSub string
	}{
		{
			name:       "empty list",
			content:    "schemes: []\n",
			wantErrSub: "lists no schemes",
		},
		{
			name:       "no schemes key",
			content:    "other: value\n",
			wantErrSub: "lists no schemes",
		},
		{
			name: "entry missing name",
			content: `schemes:
  - category: Large Cap
    url: https://groww.in/mutual-funds/hdfc-large-cap-fund-direct-growth
`,
			wantErrSub: "missing a name",
		},
		{
			name: "entry missing url",
			content: `schemes:
  - name: HDFC Large Cap Fund
    category: Large Cap
`,
			wantErrSub: "missing a url",
		},
		{
			name:       "invalid yaml",
			content:    "schemes: [\n",
			wantErrSub: "failed to parse schemes config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSchemesFile(t, tt.content)

			_, err := LoadSchemes(path)
			if err == nil {
				t.Fatal("LoadSchemes() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErrSub) {
				t.Errorf("LoadSchemes() error = %v, want containing %q", err, tt.wantErrSub)
			}
		})
	}
}

func TestLoadSchemes_MissingFile(t *testing.T) {
	_, err := LoadSchemes(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadSchemes() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read schemes config") {
		t.Errorf("LoadSchemes() error = %v", err)
	}
}
