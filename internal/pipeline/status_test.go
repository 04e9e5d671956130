package pipeline

import (
	"context"
	"testing"

	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProcessCompletion_AllOrNothing(t *testing.T) {
	present := map[string]bool{}
	p := newTestPipeline(t, present)
	job := addJob(t, p, "Refine3D/job010/", process.Refine3D, process.Running, nil, []node.Node{
		node.New("run_half1_class001_unfil.mrc", node.HalfMap),
		node.New("run_half2_class001_unfil.mrc", node.HalfMap),
		node.New("run_model.star", node.Model),
	})
	ctx := context.Background()

	present["run_half1_class001_unfil.mrc"] = true
	present["run_model.star"] = true
	finished, err := p.CheckProcessCompletion(ctx)
	require.NoError(t, err)
	assert.Empty(t, finished)
	pr, _ := p.Process(job)
	assert.Equal(t, process.Running, pr.Status, "one of three outputs missing")

	present["run_half2_class001_unfil.mrc"] = true
	finished, err = p.CheckProcessCompletion(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{job}, finished)
	pr, _ = p.Process(job)
	assert.Equal(t, process.Finished, pr.Status)

	// A second pass is a no-op.
	finished, err = p.CheckProcessCompletion(ctx)
	require.NoError(t, err)
	assert.Empty(t, finished)
}

func TestCheckProcessCompletion_OnlyRunningIsProbed(t *testing.T) {
	present := map[string]bool{"a.star": true, "b.star": true, "c.star": true}
	p := newTestPipeline(t, present)
	scheduled := addJob(t, p, "Class2D/job001/", process.Class2D, process.Scheduled, nil,
		[]node.Node{node.New("a.star", node.Model)})
	cancelled := addJob(t, p, "Class2D/job002/", process.Class2D, process.Cancelled, nil,
		[]node.Node{node.New("b.star", node.Model)})
	running := addJob(t, p, "Class2D/job003/", process.Class2D, process.Running, nil,
		[]node.Node{node.New("c.star", node.Model)})
	noOutputs := addJob(t, p, "Publish/job004/", process.Publish, process.Running, nil, nil)

	finished, err := p.CheckProcessCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{running}, finished)

	for idx, want := range map[int]process.Status{
		scheduled: process.Scheduled,
		cancelled: process.Cancelled,
		noOutputs: process.Running,
	} {
		pr, _ := p.Process(idx)
		assert.Equal(t, want, pr.Status, pr.Name)
	}
}

func TestCheckProcessCompletion_CancelledContext(t *testing.T) {
	p := newTestPipeline(t, map[string]bool{"a.star": true})
	addJob(t, p, "Class2D/job001/", process.Class2D, process.Running, nil,
		[]node.Node{node.New("a.star", node.Model)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	finished, err := p.CheckProcessCompletion(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, finished)
}

func TestSetStatus(t *testing.T) {
	p := newTestPipeline(t, nil)
	job := p.AddNewProcess(process.New("Polish/job001/", process.Polish, process.Scheduled), false)

	require.NoError(t, p.SetStatus(job, process.Running))
	require.NoError(t, p.SetStatus(job, process.Running))
	assert.ErrorIs(t, p.SetStatus(job, process.Scheduled), process.ErrInvalidTransition)

	require.NoError(t, p.CancelProcess(job))
	require.NoError(t, p.CancelProcess(job), "cancelling twice is a no-op")
	assert.ErrorIs(t, p.SetStatus(job, process.Finished), process.ErrTerminalStatus)

	assert.Error(t, p.SetStatus(job, process.Status(7)))
	assert.ErrorIs(t, p.SetStatus(99, process.Running), ErrProcessNotFound)

	pr, _ := p.Process(job)
	assert.Equal(t, process.Cancelled, pr.Status)
}

func TestCancelProcess_KeepsOutputs(t *testing.T) {
	p := newTestPipeline(t, nil)
	job := addJob(t, p, "Extract/job001/", process.Extract, process.Running, nil,
		[]node.Node{node.New("particles.star", node.ParticleData)})

	require.NoError(t, p.CancelProcess(job))
	assert.NotEqual(t, NotFound, p.FindNodeByName("particles.star"))
	requireSymmetric(t, p)
}
