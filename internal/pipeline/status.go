package pipeline

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pipeliner/internal/process"
)

// CheckProcessCompletion promotes Running processes to Finished when every
// one of their output files exists. A process with a missing output stays
// Running; processes in any other status are left alone. A Running process
// without outputs is not promoted either: no file can show that it finished,
// so it stays Running until its status is set explicitly. It returns the
// indices of the promoted processes.
//
// The check only flips statuses, so it may be repeated as often as the
// caller likes. It stops early when ctx is cancelled.
func (p *PipeLine) CheckProcessCompletion(ctx context.Context) ([]int, error) {
	var finished []int
	for i := 0; i < p.procs.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return finished, err
		}
		pr, ok := p.procs.Get(i)
		if !ok || pr.Status != process.Running || len(pr.Outputs) == 0 {
			continue
		}
		if !p.outputsExist(pr) {
			continue
		}
		pr.Status = process.Finished
		finished = append(finished, i)
		p.logger.Info("Process finished.", "index", i, "name", pr.Name)
	}
	return finished, nil
}

func (p *PipeLine) outputsExist(pr *process.Process) bool {
	for _, out := range pr.Outputs {
		nd, ok := p.nodes.Get(out)
		if !ok || !p.prober.Exists(nd.Name) {
			return false
		}
	}
	return true
}

// SetStatus moves process i to status s. Finished and Cancelled are
// terminal; assigning the current status again is a no-op.
func (p *PipeLine) SetStatus(i int, s process.Status) error {
	pr, ok := p.procs.Get(i)
	if !ok {
		return fmt.Errorf("set status of process %d: %w", i, ErrProcessNotFound)
	}
	if !s.Valid() {
		return fmt.Errorf("set status of process %d: invalid status %d", i, int(s))
	}
	if !pr.Status.CanTransition(s) {
		cause := process.ErrInvalidTransition
		if pr.Status.Terminal() {
			cause = process.ErrTerminalStatus
		}
		return fmt.Errorf("set status of %s from %s to %s: %w", pr.Name, pr.Status, s, cause)
	}
	if pr.Status == s {
		return nil
	}
	p.logger.Info("Process status changed.", "index", i, "name", pr.Name, "from", pr.Status.String(), "to", s.String())
	pr.Status = s
	return nil
}

// CancelProcess records that process i is no longer expected to complete.
// Nodes it already produced are kept. Cancelling twice is a no-op.
func (p *PipeLine) CancelProcess(i int) error {
	return p.SetStatus(i, process.Cancelled)
}
