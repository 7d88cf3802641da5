// # internal/output/output_test.go
package output

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"depmap/internal/graph"
)

func buildGraph(t *testing.T, files map[string]string, entry string) *graph.Graph {
	t.Helper()
	root := t.TempDir()
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, abs)
	}
	sort.Strings(paths)
	g, err := graph.Build(context.Background(), paths, root, graph.Options{Entry: entry})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestConsoleRenderer(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"app/main.py": "import app.util\n",
		"app/util.py": "",
	}, "app/main.py")

	var buf strings.Builder
	if err := NewConsoleRenderer(g, false).Render(&buf, g.DetectCycles()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "main -> [util]") {
		t.Errorf("expected trimmed module line, got:\n%s", out)
	}
	if !strings.Contains(out, "util -> []") {
		t.Errorf("expected empty dep list line, got:\n%s", out)
	}
	if !strings.Contains(out, "No dependency cycles detected.") {
		t.Errorf("expected no-cycle notice, got:\n%s", out)
	}
	if !strings.Contains(out, "2 files, 1 edges, 0 cycles, 1 source nodes (entry: main)") {
		t.Errorf("unexpected summary, got:\n%s", out)
	}
}

func TestConsoleRendererCycles(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import a\n",
	}, "a.py")

	var buf strings.Builder
	if err := NewConsoleRenderer(g, true).Render(&buf, g.DetectCycles()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Contains(out, "a -> [b]") {
		t.Errorf("quiet mode must suppress the listing, got:\n%s", out)
	}
	if !strings.Contains(out, "Warning: dependency cycles detected:") {
		t.Errorf("expected cycle warning, got:\n%s", out)
	}
	if !strings.Contains(out, "a -> b -> a") {
		t.Errorf("expected cycle chain, got:\n%s", out)
	}
}

func TestCommonModulePrefix(t *testing.T) {
	cases := []struct {
		name    string
		modules []string
		want    string
	}{
		{"Empty", nil, ""},
		{"Single", []string{"app.main"}, "app.main"},
		{"Shared", []string{"src.app.main", "src.app.util", "src.lib"}, "src"},
		{"NoneShared", []string{"app.main", "lib.util"}, ""},
		{"WholeModule", []string{"app", "app.util"}, "app"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := commonModulePrefix(tc.modules); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTrimModule(t *testing.T) {
	if got := trimModule("app.util", "app"); got != "util" {
		t.Errorf("expected util, got %q", got)
	}
	if got := trimModule("app", "app"); got != "app" {
		t.Errorf("prefix-equal module must keep its name, got %q", got)
	}
	if got := trimModule("lib.util", "app"); got != "lib.util" {
		t.Errorf("unrelated module must stay untouched, got %q", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"main.py":     "import pkg.util\n",
		"pkg/util.py": "",
	}, "")

	data, err := MarshalView(g)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n    \"") {
		t.Error("expected four-space indentation")
	}

	view, err := ParseView(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(view, g.DependencyView()) {
		t.Fatalf("round trip diverged: %v vs %v", view, g.DependencyView())
	}
}

func TestWriteJSON(t *testing.T) {
	g := buildGraph(t, map[string]string{"main.py": ""}, "")

	path := filepath.Join(t.TempDir(), "out", "deps.json")
	if err := WriteJSON(path, g); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseView(data); err != nil {
		t.Fatalf("written file is not a valid view: %v", err)
	}
}

func TestDOTGenerator(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import a\n",
		"c.py": "",
	}, "a.py")

	dot, err := NewDOTGenerator(g).Generate(g.DetectCycles())
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(dot, "digraph dependencies") {
		t.Error("missing digraph header")
	}
	if !strings.Contains(dot, "\"a\" -> \"b\"") {
		t.Error("missing edge a -> b")
	}
	if !strings.Contains(dot, "CYCLE") {
		t.Error("missing CYCLE label")
	}
	if !strings.Contains(dot, "\"c\" [fillcolor=\"palegreen\"") {
		t.Error("source node not highlighted")
	}
}

func TestTSVGenerator(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"a.py": "import b\n",
		"b.py": "import a\n",
		"c.py": "import a\n",
	}, "a.py")

	tsv, err := NewTSVGenerator(g).Generate(g.DetectCycles())
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	want := []string{
		"From\tTo\tInCycle",
		"a\tb\ttrue",
		"b\ta\ttrue",
		"c\ta\tfalse",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
}

func TestMermaidGenerator(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"pkg/a.py": "import pkg.b\n",
		"pkg/b.py": "import pkg.a\n",
		"main.py":  "",
	}, "")

	out, err := NewMermaidGenerator(g).Generate(g.DetectCycles())
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "graph LR\n") {
		t.Error("missing graph header")
	}
	if !strings.Contains(out, "pkg_a[\"pkg.a\"]") {
		t.Errorf("expected sanitized node id, got:\n%s", out)
	}
	if !strings.Contains(out, "-->|CYCLE|") {
		t.Error("missing cycle edge label")
	}
	if !strings.Contains(out, "linkStyle") {
		t.Error("missing cycle link styling")
	}
	if !strings.Contains(out, "class main sourceNode;") {
		t.Errorf("expected source node class, got:\n%s", out)
	}
}

func TestSanitizeMermaidID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"pkg.util", "pkg_util"},
		{"", "m"},
		{"0x", "m_0x"},
		{"___", "___"},
	}
	for _, tc := range cases {
		if got := sanitizeMermaidID(tc.in); got != tc.want {
			t.Errorf("sanitizeMermaidID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
