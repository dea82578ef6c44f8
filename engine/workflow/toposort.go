package workflow

import (
	"fmt"
	"sort"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/step"
)

// topologicalOrder computes a stable topological ordering of w's steps,
// breaking ties among steps with no outstanding dependency by ascending
// Order (spec §4.4 step 2). It rejects a cyclic graph with ConfigInvalid
// (spec §4.4 step 1).
func topologicalOrder(steps []*step.Step) ([]*step.Step, error) {
	byID := make(map[string]*step.Step, len(steps))
	inDegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))

	for _, s := range steps {
		byID[s.ID] = s
		inDegree[s.ID] = 0
	}
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, core.NewError(core.ErrConfigInvalid,
					fmt.Sprintf("step %q depends on unknown step %q", s.ID, dep))
			}
			inDegree[s.ID]++
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	var ordered []*step.Step
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			si, sj := byID[ready[i]], byID[ready[j]]
			if si.Order != sj.Order {
				return si.Order < sj.Order
			}
			return si.ID < sj.ID
		})
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[next])

		for _, child := range dependents[next] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(ordered) != len(steps) {
		return nil, core.NewError(core.ErrConfigInvalid, "workflow step graph contains a cycle")
	}
	return ordered, nil
}
