// # internal/output/json.go
package output

import (
	"encoding/json"

	"depmap/internal/depmaperr"
	"depmap/internal/graph"
	"depmap/internal/shared/util"
)

// MarshalView renders the relative-path dependency view with four-space
// indentation, one key per analyzed file.
func MarshalView(g *graph.Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g.DependencyView(), "", "    ")
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeOutput, "marshal dependency view")
	}
	return append(data, '\n'), nil
}

// ParseView is the inverse of MarshalView.
func ParseView(data []byte) (map[string][]string, error) {
	var view map[string][]string
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeOutput, "parse dependency view")
	}
	return view, nil
}

// WriteJSON writes the dependency view to path, creating parent
// directories as needed.
func WriteJSON(path string, g *graph.Graph) error {
	data, err := MarshalView(g)
	if err != nil {
		return err
	}
	if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
		return depmaperr.Wrap(err, depmaperr.CodeOutput, "write dependency view")
	}
	return nil
}
