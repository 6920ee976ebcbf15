package pipeline

import (
	"fmt"
	"sort"
)

// buildLevels uses Kahn's algorithm over the stage dependency graph to group
// stages by level. A stage depends on the last earlier stage that made or
// updated each column it needs or updates; source columns add no edge.
func buildLevels[T any](source []string, stages []Stage[T]) ([][]string, error) {
	index := make(map[string]int, len(stages))
	writer := make(map[string]string, len(source)+len(stages))
	inDegree := make(map[string]int, len(stages))
	dependents := make(map[string][]string)

	for i, s := range stages {
		index[s.Name] = i
		inDegree[s.Name] = 0

		deps := make(map[string]bool)
		for _, col := range append(append([]string(nil), s.Needs...), s.Updates...) {
			if w, ok := writer[col]; ok && w != s.Name {
				deps[w] = true
			}
		}
		for from := range deps {
			inDegree[s.Name]++
			dependents[from] = append(dependents[from], s.Name)
		}

		for _, col := range s.Makes {
			writer[col] = s.Name
		}
		for _, col := range s.Updates {
			writer[col] = s.Name
		}
	}

	byIndex := func(names []string) {
		sort.Slice(names, func(a, b int) bool { return index[names[a]] < index[names[b]] })
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		byIndex(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(stages) {
		return nil, fmt.Errorf("pipeline: cycle detected, ordered %d of %d stages", visited, len(stages))
	}
	return levels, nil
}
