package dag

import (
	"context"
	"fmt"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/matrix"
)

// Build constructs the instance dependency graph from the expanded
// instance set. Template-level needs are projected onto instances by axis
// overlap: an instance depends on every instance of a needed template
// whose shared-axis bindings match its own; templates sharing no axes
// fan in on every instance of the dependency.
func Build(ctx context.Context, p *config.Pipeline, instances []*matrix.Instance) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := &Graph{Nodes: make(map[string]*Node, len(instances))}
	byTemplate := make(map[string][]*Node)

	for _, inst := range instances {
		if _, exists := graph.Nodes[inst.ID]; exists {
			return nil, fmt.Errorf("duplicate instance identity %q", inst.ID)
		}
		node := &Node{
			Instance:   inst,
			Deps:       make(map[string]*Node),
			Dependents: make(map[string]*Node),
		}
		graph.Nodes[inst.ID] = node
		byTemplate[inst.Template.Name] = append(byTemplate[inst.Template.Name], node)
	}
	logger.Debug("Build: node creation complete.", "node_count", len(graph.Nodes))

	for _, node := range graph.Nodes {
		template := node.Instance.Template
		for _, needName := range template.Needs {
			needJob := p.Job(needName)
			if needJob == nil {
				// Validation runs before Build; this guards direct misuse.
				return nil, fmt.Errorf("job %q needs unknown job %q", template.Name, needName)
			}
			shared := sharedAxes(template, needJob)
			for _, candidate := range byTemplate[needName] {
				if !bindingsMatch(node.Instance, candidate.Instance, shared) {
					continue
				}
				node.Deps[candidate.ID()] = candidate
				candidate.Dependents[node.ID()] = node
			}
		}
	}
	logger.Debug("Build: node linking complete.")

	for _, node := range graph.Nodes {
		node.SetInitialCounters()
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: graph construction successful.")
	return graph, nil
}

// sharedAxes returns the axes of need that dependent also declares, in
// need's axis order.
func sharedAxes(dependent, need *config.Job) []string {
	var shared []string
	for _, axis := range need.Axes {
		if dependent.HasAxis(axis.Name) {
			shared = append(shared, axis.Name)
		}
	}
	return shared
}

// bindingsMatch reports whether both instances bind the same value on
// every listed axis. An empty axis list matches unconditionally, which is
// what produces the full fan-in for templates with no matrix overlap.
func bindingsMatch(a, b *matrix.Instance, axes []string) bool {
	for _, axis := range axes {
		av, aok := a.BindingValue(axis)
		bv, bok := b.BindingValue(axis)
		if !aok || !bok || av != bv {
			return false
		}
	}
	return true
}

// detectCycles checks for circular dependencies using DFS with visiting
// and visited sets.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(node *Node) error
	visit = func(node *Node) error {
		visiting[node.ID()] = true
		for _, dep := range node.Deps {
			if visiting[dep.ID()] {
				return fmt.Errorf("cycle detected involving %q", dep.ID())
			}
			if !visited[dep.ID()] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, node.ID())
		visited[node.ID()] = true
		return nil
	}

	for _, node := range g.Nodes {
		if !visited[node.ID()] {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}
