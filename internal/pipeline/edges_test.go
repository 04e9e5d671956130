package pipeline

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	p := New()
	assert.Equal(t, DefaultName, p.Name)
	assert.Equal(t, 1, p.JobCounter)
	assert.Equal(t, DefaultMarkerDir, p.markerDir)
	assert.NotNil(t, p.prober)
	assert.Zero(t, p.NodeCount())
	assert.Zero(t, p.ProcessCount())
}

func TestAddNode_Deduplicates(t *testing.T) {
	p := newTestPipeline(t, nil)

	first := p.AddNode(node.New("micrographs.star", node.Micrograph))
	second := p.AddNode(node.New("micrographs.star", node.Micrograph))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.NodeCount())
}

func TestEdges_AccumulateOnSharedNode(t *testing.T) {
	p := newTestPipeline(t, nil)
	imp := p.AddNewProcess(process.New("Import/job001/", process.Import, process.Finished), false)
	ctf := p.AddNewProcess(process.New("CtfFind/job002/", process.CtfFind, process.Running), false)
	pick := p.AddNewProcess(process.New("AutoPick/job003/", process.AutoPick, process.Scheduled), false)

	out, err := p.AddNewOutputEdge(imp, node.New("micrographs.star", node.Micrograph))
	require.NoError(t, err)
	in1, err := p.AddNewInputEdge(node.New("micrographs.star", node.Micrograph), ctf)
	require.NoError(t, err)
	in2, err := p.AddNewInputEdge(node.New("micrographs.star", node.Tomogram), pick)
	require.NoError(t, err)

	assert.Equal(t, out, in1)
	assert.Equal(t, out, in2)
	assert.Equal(t, 1, p.NodeCount())

	nd, ok := p.Node(out)
	require.True(t, ok)
	assert.Equal(t, node.Micrograph, nd.Type, "the first registration wins")
	assert.Equal(t, imp, nd.Producer)
	assert.Equal(t, []int{ctf, pick}, nd.Consumers)

	requireSymmetric(t, p)
}

func TestAddNewInputEdge_ConsumerIsIdempotent(t *testing.T) {
	p := newTestPipeline(t, nil)
	job := p.AddNewProcess(process.New("Extract/job004/", process.Extract, process.Running), false)

	a, err := p.AddNewInputEdge(node.New("coords.star", node.MicrographCoordinates), job)
	require.NoError(t, err)
	b, err := p.AddNewInputEdge(node.New("coords.star", node.MicrographCoordinates), job)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	nd, _ := p.Node(a)
	assert.Equal(t, []int{job}, nd.Consumers)
	pr, _ := p.Process(job)
	assert.Equal(t, []int{a, a}, pr.Inputs)
	requireSymmetric(t, p)
}

func TestEdges_UnknownProcess(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.AddNewInputEdge(node.New("a.star", node.Mask), 0)
	assert.ErrorIs(t, err, ErrProcessNotFound)
	_, err = p.AddNewOutputEdge(3, node.New("a.star", node.Mask))
	assert.ErrorIs(t, err, ErrProcessNotFound)

	assert.Zero(t, p.NodeCount(), "a failed edge must not register the node")
}

func TestAddNewOutputEdge_LastWriterWins(t *testing.T) {
	var logs bytes.Buffer
	p := newTestPipeline(t, nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	first := p.AddNewProcess(process.New("Import/job001/", process.Import, process.Finished), false)
	second := p.AddNewProcess(process.New("Import/job002/", process.Import, process.Finished), false)

	idx, err := p.AddNewOutputEdge(first, node.New("movies.star", node.Movie))
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "producer overwritten")

	_, err = p.AddNewOutputEdge(second, node.New("movies.star", node.Movie))
	require.NoError(t, err)

	nd, _ := p.Node(idx)
	assert.Equal(t, second, nd.Producer)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "producer overwritten")

	pr, _ := p.Process(first)
	assert.Empty(t, pr.Outputs, "the previous producer gives the node up")
	requireSymmetric(t, p)
	roundTrip(t, p, nil, nil)
}

func TestAddNewProcess_Overwrite(t *testing.T) {
	p := newTestPipeline(t, nil)
	a := p.AddNewProcess(process.New("Class2D/job005/", process.Class2D, process.Running), false)
	b := p.AddNewProcess(process.New("Class2D/job005/", process.Class2D, process.Scheduled), false)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, p.FindProcessByName("Class2D/job005/"))

	c := p.AddNewProcess(process.New("Class2D/job005/", process.Class2D, process.Cancelled), true)
	assert.Equal(t, a, c)
	pr, _ := p.Process(a)
	assert.Equal(t, process.Cancelled, pr.Status)
}

func TestAddNewProcess_OverwriteDetachesOldEdges(t *testing.T) {
	p := newTestPipeline(t, nil)
	addJob(t, p, "Import/job001/", process.Import, process.Finished, nil,
		[]node.Node{node.New("mics.star", node.Micrograph)})
	ctf := addJob(t, p, "CtfFind/job002/", process.CtfFind, process.Running,
		[]node.Node{node.New("mics.star", node.Micrograph)},
		[]node.Node{node.New("old_ctf.star", node.Micrograph)})

	again := p.AddNewProcess(process.New("CtfFind/job002/", process.CtfFind, process.Running), true)
	require.Equal(t, ctf, again)
	_, err := p.AddNewOutputEdge(again, node.New("new_ctf.star", node.Micrograph))
	require.NoError(t, err)
	requireSymmetric(t, p)

	mics, _ := p.Node(p.FindNodeByName("mics.star"))
	assert.Empty(t, mics.Consumers)
	oldCtf, _ := p.Node(p.FindNodeByName("old_ctf.star"))
	assert.Equal(t, node.NoProducer, oldCtf.Producer)

	got := roundTrip(t, p, nil, nil)
	requireSymmetric(t, got)
	oldCtf, _ = got.Node(got.FindNodeByName("old_ctf.star"))
	assert.Equal(t, node.NoProducer, oldCtf.Producer)

	require.NoError(t, p.DeleteProcess(ctf, false))
	assert.Equal(t, NotFound, p.FindNodeByName("new_ctf.star"))
	assert.NotEqual(t, NotFound, p.FindNodeByName("old_ctf.star"), "a node without producer is not removed")
}

func TestFind_NotFound(t *testing.T) {
	p := newTestPipeline(t, nil)
	assert.Equal(t, NotFound, p.FindNodeByName("nothing.star"))
	assert.Equal(t, NotFound, p.FindProcessByName("Import/job001/"))
	_, ok := p.Node(0)
	assert.False(t, ok)
	_, ok = p.Process(-1)
	assert.False(t, ok)
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := newTestPipeline(t, nil)
	job := addJob(t, p, "Import/job001/", process.Import, process.Running, nil,
		[]node.Node{node.New("movies.star", node.Movie)})

	pr, _ := p.Process(job)
	pr.Outputs[0] = 42
	again, _ := p.Process(job)
	assert.Equal(t, []int{0}, again.Outputs)
}

func TestNewJobNameAndClear(t *testing.T) {
	p := newTestPipeline(t, nil)
	assert.Equal(t, "Import/job001/", p.NewJobName(process.Import))
	assert.Equal(t, "MotionCorr/job002/", p.NewJobName(process.MotionCorr))
	assert.Equal(t, 3, p.JobCounter)

	addJob(t, p, "Import/job001/", process.Import, process.Running, nil,
		[]node.Node{node.New("movies.star", node.Movie)})
	p.SetName("apoferritin")
	p.Clear()

	assert.Equal(t, "apoferritin", p.Name)
	assert.Equal(t, 1, p.JobCounter)
	assert.Zero(t, p.NodeCount())
	assert.Zero(t, p.ProcessSlots())
}
