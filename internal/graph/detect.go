// # internal/graph/detect.go
package graph

// DetectCycles runs a depth-first traversal over the whole graph and
// returns every cycle it closes, as relative-path lists that start and
// end with the same entry. A file importing itself yields [a, a].
//
// Only the first encounter of a cycle per traversal is reported; other
// rotations and alternative paths into the same cycle are not enumerated.
// Consumers rely on that count, so the behavior is deliberate.
//
// The walk uses an explicit frame stack instead of recursion so deep
// import chains cannot exhaust the goroutine stack; push, visit and pop
// happen exactly where a recursive version would do them.
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string

	visited := make(map[string]bool, len(g.files))
	onStack := make(map[string]bool, len(g.files))
	var path []string

	type frame struct {
		rel  string
		deps []string
		next int
	}
	var stack []frame

	push := func(rel string) {
		visited[rel] = true
		onStack[rel] = true
		path = append(path, rel)
		stack = append(stack, frame{rel: rel, deps: g.files[rel].DepPaths()})
	}

	for _, start := range g.RelPaths() {
		if visited[start] {
			continue
		}
		push(start)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next >= len(top.deps) {
				// post-order cleanup, on every exit path
				onStack[top.rel] = false
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}

			dep := top.deps[top.next]
			top.next++

			if onStack[dep] {
				cycleStart := -1
				for i, rel := range path {
					if rel == dep {
						cycleStart = i
						break
					}
				}
				if cycleStart != -1 {
					cycle := make([]string, 0, len(path)-cycleStart+1)
					cycle = append(cycle, path[cycleStart:]...)
					cycle = append(cycle, dep)
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[dep] {
				push(dep)
			}
		}
	}

	return cycles
}
