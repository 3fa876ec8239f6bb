package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootSubcommands(t *testing.T) {
	root := testCLI().RootCommand()
	want := []string{"convert", "batch", "sniff", "types", "cache", "serve", "debug", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSniffCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.mmd")
	if err := os.WriteFile(path, []byte("sequenceDiagram\nA->>B: hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "sniff", path)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if strings.TrimSpace(out) != "sequence" {
		t.Errorf("output = %q, want sequence", out)
	}
}

func TestSniffCommandUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.mmd")
	if err := os.WriteFile(path, []byte("erDiagram\nA ||--o{ B : has\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "sniff", path); err == nil {
		t.Fatal("expected an error for an unknown grammar")
	}
}

func TestTypesCommand(t *testing.T) {
	out, err := execute(t, "types")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	for _, want := range []string{"flowchart", "sequence", "gantt", "pie", "swot"} {
		if !strings.Contains(out, want) {
			t.Errorf("types output missing %q", want)
		}
	}
}

func TestCachePathCommand(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Errorf("cache path = %q, want it to contain %q", out, appName)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input    string
		override string
		want     string
	}{
		{"diagrams/flow.mmd", "", "diagrams/flow.drawio"},
		{"flow.txt", "out.drawio", "out.drawio"},
		{"-", "", "diagram.drawio"},
		{"noext", "", "noext.drawio"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.override); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.input, tt.override, got, tt.want)
		}
	}
}

func TestWriteDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "flow.drawio")
	if err := writeDocument(out, []byte("<mxfile/>")); err != nil {
		t.Fatalf("writeDocument() = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<mxfile/>" {
		t.Errorf("written document = %q", data)
	}

	for _, bad := range []string{"", "../escape.drawio", "dir/../../escape.drawio"} {
		if err := writeDocument(bad, []byte("x")); err == nil {
			t.Errorf("writeDocument(%q) accepted invalid path", bad)
		}
	}
}

func TestLoadConfigRendererFallback(t *testing.T) {
	c := testCLI()
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RendererURL != defaultRendererURL {
		t.Errorf("renderer url = %q", cfg.RendererURL)
	}

	c.rendererURL = "http://renderer.internal:9000"
	cfg, err = c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RendererURL != "http://renderer.internal:9000" {
		t.Errorf("renderer url override = %q", cfg.RendererURL)
	}
}
