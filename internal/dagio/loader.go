// Package dagio is the file boundary around the simulation core: it builds
// TaskGraphs from YAML descriptions and writes finished run logs back out as
// YAML reports. The core never imports this package; dagio is a stateless
// producer of graphs and consumer of logs.
package dagio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aristath/schedsim/internal/graph"
)

// dagFile is the on-disk DAG description. The format mirrors the research
// tooling this simulator consumes: a node list with integer ids and
// execution times, and a link list with optional communication times.
type dagFile struct {
	EndToEndDeadline int        `yaml:"end_to_end_deadline"`
	Nodes            []nodeSpec `yaml:"nodes"`
	Links            []linkSpec `yaml:"links"`
}

type nodeSpec struct {
	ID            int `yaml:"id"`
	ExecutionTime int `yaml:"execution_time"`
	Deadline      int `yaml:"deadline,omitempty"`
}

type linkSpec struct {
	Source            int `yaml:"source"`
	Target            int `yaml:"target"`
	CommunicationTime int `yaml:"communication_time,omitempty"`
}

// LoadDAG reads one YAML DAG description and builds a validated TaskGraph.
// Node ids may be sparse; they are mapped to dense node indices in ascending
// id order.
func LoadDAG(path string) (*graph.TaskGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DAG file: %w", err)
	}
	var spec dagFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse DAG file %s: %w", path, err)
	}
	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("DAG file %s: %w", path, graph.ErrEmptyGraph)
	}

	nodes := append([]nodeSpec(nil), spec.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	b := graph.NewBuilder()
	index := make(map[int]int, len(nodes))
	for _, n := range nodes {
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("DAG file %s: duplicate node id %d", path, n.ID)
		}
		index[n.ID] = b.AddNodeWithDeadline(n.ExecutionTime, n.Deadline)
	}
	for _, l := range spec.Links {
		src, ok := index[l.Source]
		if !ok {
			return nil, fmt.Errorf("DAG file %s: link references unknown node id %d", path, l.Source)
		}
		dst, ok := index[l.Target]
		if !ok {
			return nil, fmt.Errorf("DAG file %s: link references unknown node id %d", path, l.Target)
		}
		b.AddEdge(src, dst, l.CommunicationTime)
	}

	g, err := b.Build(graph.BuildOptions{EndToEndDeadline: spec.EndToEndDeadline})
	if err != nil {
		return nil, fmt.Errorf("DAG file %s: %w", path, err)
	}
	return g, nil
}

// LoadDAGSet reads every .yaml/.yml file in a directory, in lexicographic
// filename order, and returns the resulting graphs. The position in the
// returned slice is the DAG id.
func LoadDAGSet(dir string) ([]*graph.TaskGraph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read DAG directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no DAG files found in %s", dir)
	}
	sort.Strings(paths)

	graphs := make([]*graph.TaskGraph, 0, len(paths))
	for _, p := range paths {
		g, err := LoadDAG(p)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
