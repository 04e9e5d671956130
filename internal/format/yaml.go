package format

import (
	"fmt"

	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/pipeline"
	"github.com/specialistvlad/pipeliner/internal/process"
	"gopkg.in/yaml.v3"
)

// Document is the YAML export of a pipeline. Edges refer to nodes by name so
// the document stays readable without the index columns of the STAR file.
type Document struct {
	Pipeline   string       `yaml:"pipeline"`
	JobCounter int          `yaml:"job_counter"`
	Processes  []ProcessDoc `yaml:"processes"`
	Nodes      []NodeDoc    `yaml:"nodes"`
}

type ProcessDoc struct {
	Index   int      `yaml:"index"`
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Status  string   `yaml:"status"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
}

type NodeDoc struct {
	Index     int      `yaml:"index"`
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Producer  string   `yaml:"producer,omitempty"`
	Consumers []string `yaml:"consumers,omitempty"`
}

// NewDocument captures the live content of p.
func NewDocument(p *pipeline.PipeLine) *Document {
	doc := &Document{
		Pipeline:   p.Name,
		JobCounter: p.JobCounter,
		Processes:  []ProcessDoc{},
		Nodes:      []NodeDoc{},
	}
	procName := func(i int) string {
		if pr, ok := p.Process(i); ok {
			return pr.Name
		}
		return ""
	}
	nodeName := func(i int) string {
		if n, ok := p.Node(i); ok {
			return n.Name
		}
		return ""
	}

	p.EachProcess(func(i int, pr process.Process) {
		doc.Processes = append(doc.Processes, ProcessDoc{
			Index:   i,
			Name:    pr.Name,
			Type:    pr.Type.String(),
			Status:  pr.Status.String(),
			Inputs:  mapNames(pr.Inputs, nodeName),
			Outputs: mapNames(pr.Outputs, nodeName),
		})
	})
	p.EachNode(func(i int, n node.Node) {
		nd := NodeDoc{
			Index:     i,
			Name:      n.Name,
			Type:      n.Type.String(),
			Consumers: mapNames(n.Consumers, procName),
		}
		if n.HasProducer() {
			nd.Producer = procName(n.Producer)
		}
		doc.Nodes = append(doc.Nodes, nd)
	})
	return doc
}

// YAML serialises the live content of p.
func YAML(p *pipeline.PipeLine) ([]byte, error) {
	out, err := yaml.Marshal(NewDocument(p))
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline YAML: %w", err)
	}
	return out, nil
}

func mapNames(idx []int, name func(int) string) []string {
	var out []string
	for _, i := range idx {
		if n := name(i); n != "" {
			out = append(out, n)
		}
	}
	return out
}
