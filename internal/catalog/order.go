// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package catalog

import (
	"fmt"
	"slices"
	"sort"

	"github.com/goombaio/dag"
)

// Order sorts the handlers so that each comes after every handler it
// requires. Dependencies on kinds not among the handlers are ignored.
// Handlers are grouped by longest dependency path from a source; within a
// group they keep declaration order.
func Order(hs []Handler) ([]Handler, error) {
	graph := dag.NewDAG()
	for _, h := range hs {
		if err := graph.AddVertex(dag.NewVertex(h.Name, h)); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", h.Name, err)
		}
	}

	for _, h := range hs {
		head, err := graph.GetVertex(h.Name)
		if err != nil {
			return nil, err
		}
		for _, req := range h.Requires {
			tail, err := graph.GetVertex(req.String())
			if err != nil {
				// Not part of this plan.
				continue
			}
			if err := graph.AddEdge(tail, head); err != nil {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", req, h.Name, err)
			}
		}
	}

	depths := make(map[string]int, len(hs))
	for _, root := range graph.SourceVertices() {
		depths[root.ID] = 0
	}
	for _, h := range hs {
		if _, err := depth(graph, h.Name, depths, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	ordered := make([]Handler, len(hs))
	copy(ordered, hs)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := depths[ordered[i].Name], depths[ordered[j].Name]
		if di != dj {
			return di < dj
		}
		return ordered[i].Kind < ordered[j].Kind
	})
	return ordered, nil
}

func depth(graph *dag.DAG, id string, depths map[string]int, visiting map[string]bool) (int, error) {
	if d, ok := depths[id]; ok {
		return d, nil
	}
	if visiting[id] {
		return 0, fmt.Errorf("dependency cycle through %s", id)
	}
	visiting[id] = true

	v, err := graph.GetVertex(id)
	if err != nil {
		return 0, err
	}
	preds, err := graph.Predecessors(v)
	if err != nil {
		return 0, err
	}

	d := 0
	for _, p := range preds {
		pd, err := depth(graph, p.ID, depths, visiting)
		if err != nil {
			return 0, err
		}
		if pd+1 > d {
			d = pd + 1
		}
	}
	depths[id] = d
	return d, nil
}

// Plan returns the handlers requested by spec in creation order.
func Plan(spec map[string]interface{}) ([]Handler, error) {
	var requested []Handler
	for _, h := range handlers {
		if h.Requested(spec) {
			requested = append(requested, h)
		}
	}
	return Order(requested)
}

// CreationOrder returns every handler in the order a spec requesting all of
// them would be applied.
func CreationOrder() []Handler {
	ordered, err := Order(All())
	if err != nil {
		panic(err)
	}
	return ordered
}

// DeletionOrder returns every handler in reverse creation order.
func DeletionOrder() []Handler {
	ordered := CreationOrder()
	slices.Reverse(ordered)
	return ordered
}
