package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"depmap/internal/discover"
	"depmap/internal/graph"
	"depmap/internal/history"
	"depmap/internal/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, tmpDir string) {
	mainPy := `import pkg.alpha

def main():
    pkg.alpha.run()
`
	err := os.WriteFile(filepath.Join(tmpDir, "main.py"), []byte(mainPy), 0644)
	require.NoError(t, err)

	err = os.Mkdir(filepath.Join(tmpDir, "pkg"), 0755)
	require.NoError(t, err)

	alphaPy := `from . import beta

def run():
    beta.helper()
`
	err = os.WriteFile(filepath.Join(tmpDir, "pkg/alpha.py"), []byte(alphaPy), 0644)
	require.NoError(t, err)

	betaPy := `import pkg.alpha
import os
`
	err = os.WriteFile(filepath.Join(tmpDir, "pkg/beta.py"), []byte(betaPy), 0644)
	require.NoError(t, err)

	// Must be pruned by the built-in ignore patterns.
	err = os.Mkdir(filepath.Join(tmpDir, "__pycache__"), 0755)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(tmpDir, "__pycache__/alpha.py"), []byte("import main\n"), 0644)
	require.NoError(t, err)
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	scanner, err := discover.New(tmpDir, discover.Options{})
	require.NoError(t, err)

	paths, err := scanner.Scan()
	require.NoError(t, err)
	assert.Len(t, paths, 3, "cache directory should have been pruned")

	g, err := graph.Build(context.Background(), paths, tmpDir, graph.Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, "main.py", g.Entry().RelPath)
	assert.Empty(t, g.ParseFailures())

	main, ok := g.Get("main.py")
	require.True(t, ok)
	assert.Equal(t, []string{"pkg/alpha.py"}, main.DepPaths())

	alpha, ok := g.Get("pkg/alpha.py")
	require.True(t, ok)
	assert.Equal(t, []string{"pkg/beta.py"}, alpha.DepPaths())

	beta, ok := g.Get("pkg/beta.py")
	require.True(t, ok)
	assert.Equal(t, []string{"pkg/alpha.py"}, beta.DepPaths(),
		"the os import is external and must contribute no edge")

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 3)
	assert.Equal(t, cycles[0][0], cycles[0][len(cycles[0])-1])

	assert.Empty(t, g.SourceNodes(), "every file has at least one dependency")
}

func TestJSONRoundTripIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	scanner, err := discover.New(tmpDir, discover.Options{})
	require.NoError(t, err)
	paths, err := scanner.Scan()
	require.NoError(t, err)

	g, err := graph.Build(context.Background(), paths, tmpDir, graph.Options{})
	require.NoError(t, err)

	outPath := filepath.Join(tmpDir, "out", "deps.json")
	require.NoError(t, output.WriteJSON(outPath, g))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	view, err := output.ParseView(data)
	require.NoError(t, err)
	assert.Equal(t, g.DependencyView(), view)
}

func TestHistoryRecordsRunIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestProject(t, tmpDir)

	scanner, err := discover.New(tmpDir, discover.Options{})
	require.NoError(t, err)
	paths, err := scanner.Scan()
	require.NoError(t, err)

	g, err := graph.Build(context.Background(), paths, tmpDir, graph.Options{})
	require.NoError(t, err)
	cycles := g.DetectCycles()

	store, err := history.Open(filepath.Join(tmpDir, "depmap.db"))
	require.NoError(t, err)
	defer store.Close()

	run := history.Run{
		RunID:       "integration-run",
		Timestamp:   time.Now().UTC(),
		Root:        tmpDir,
		Files:       g.Len(),
		Edges:       g.EdgeCount(),
		Cycles:      len(cycles),
		SourceNodes: len(g.SourceNodes()),
		ParseErrors: len(g.ParseFailures()),
		Duration:    25 * time.Millisecond,
	}
	require.NoError(t, store.SaveRun(run))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, 3, runs[0].Files)
	assert.Equal(t, 1, runs[0].Cycles)
}
