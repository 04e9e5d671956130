package pipeline

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/pipeliner/internal/node"
)

// AddNewInputEdge records n as an input of process proc. The node is resolved
// through the registry, so a node of the same name is reused. The process is
// added to the node's consumers at most once and the node index is appended
// to the process inputs. The node index is returned.
func (p *PipeLine) AddNewInputEdge(n node.Node, proc int) (int, error) {
	pr, ok := p.procs.Get(proc)
	if !ok {
		return NotFound, fmt.Errorf("add input edge %q: process %d: %w", n.Name, proc, ErrProcessNotFound)
	}

	idx := p.nodes.RegisterOrFind(n)
	nd, _ := p.nodes.Get(idx)
	nd.AddConsumer(proc)
	pr.Inputs = append(pr.Inputs, idx)

	p.logger.Debug("Input edge added.", "node", nd.Name, "node_index", idx, "process", pr.Name, "process_index", proc)
	return idx, nil
}

// AddNewOutputEdge records n as an output of process proc and makes proc the
// node's producer. A node already produced by another process is taken over:
// the last writer wins, the node is removed from the previous producer's
// outputs and a warning is logged.
func (p *PipeLine) AddNewOutputEdge(proc int, n node.Node) (int, error) {
	pr, ok := p.procs.Get(proc)
	if !ok {
		return NotFound, fmt.Errorf("add output edge %q: process %d: %w", n.Name, proc, ErrProcessNotFound)
	}

	idx := p.nodes.RegisterOrFind(n)
	nd, _ := p.nodes.Get(idx)
	if nd.HasProducer() && nd.Producer != proc {
		p.logger.Warn("Node producer overwritten.",
			"node", nd.Name,
			"previous_process", nd.Producer,
			"process", proc,
		)
		if prev, ok := p.procs.Get(nd.Producer); ok {
			prev.Outputs = slices.DeleteFunc(prev.Outputs, func(o int) bool { return o == idx })
		}
	}
	nd.Producer = proc
	pr.Outputs = append(pr.Outputs, idx)

	p.logger.Debug("Output edge added.", "node", nd.Name, "node_index", idx, "process", pr.Name, "process_index", proc)
	return idx, nil
}
