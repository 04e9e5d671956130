package pipeline

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/pipeliner/internal/process"
)

// DeleteProcess removes process i together with every node it produced. The
// deleted nodes are stripped from the inputs and outputs of all remaining
// processes. With recursive set, each process that consumed one of those
// nodes is deleted the same way, transitively. Without it those processes
// stay, minus the input.
//
// Remaining nodes and processes keep their indices.
func (p *PipeLine) DeleteProcess(i int, recursive bool) error {
	if _, ok := p.procs.Get(i); !ok {
		return fmt.Errorf("delete process %d: %w", i, ErrProcessNotFound)
	}

	queue := []int{i}
	visited := make(map[int]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		pr, ok := p.procs.Get(cur)
		if !ok {
			continue
		}

		for _, in := range pr.Inputs {
			if nd, ok := p.nodes.Get(in); ok {
				nd.RemoveConsumer(cur)
			}
		}

		for _, out := range slices.Clone(pr.Outputs) {
			consumers := p.dropNode(out, cur)
			if recursive {
				queue = append(queue, consumers...)
			}
		}

		name := pr.Name
		if err := p.procs.Delete(cur); err != nil {
			return err
		}
		p.logger.Info("Process deleted.", "index", cur, "name", name, "recursive", recursive)
	}
	return nil
}

// dropNode tombstones node idx and removes it from every live process other
// than owner. It returns the processes that consumed it.
func (p *PipeLine) dropNode(idx, owner int) []int {
	nd, ok := p.nodes.Get(idx)
	if !ok {
		return nil
	}
	name := nd.Name

	var consumers []int
	for _, c := range nd.Consumers {
		if c != owner {
			consumers = append(consumers, c)
		}
	}
	p.procs.Each(func(j int, other *process.Process) {
		if j == owner {
			return
		}
		if slices.Contains(other.Inputs, idx) {
			other.RemoveInput(idx)
			if !slices.Contains(consumers, j) {
				consumers = append(consumers, j)
			}
		}
		other.Outputs = slices.DeleteFunc(other.Outputs, func(o int) bool { return o == idx })
	})

	_ = p.nodes.Delete(idx)
	p.logger.Debug("Node deleted.", "index", idx, "name", name, "consumers", consumers)
	return consumers
}
