package pipeline

import (
	"bytes"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/process"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPipeline creates a pipeline whose prober answers from the given set.
func newTestPipeline(t *testing.T, present map[string]bool, opts ...Option) *PipeLine {
	t.Helper()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithProber(fsutil.ProberFunc(func(path string) bool { return present[path] })),
		WithMarkerDir(t.TempDir()),
	}, opts...)
	return New(opts...)
}

// addJob appends a process and wires its edges.
func addJob(t *testing.T, p *PipeLine, name string, typ process.Type, status process.Status, inputs, outputs []node.Node) int {
	t.Helper()
	idx := p.AddNewProcess(process.New(name, typ, status), false)
	for _, in := range inputs {
		_, err := p.AddNewInputEdge(in, idx)
		require.NoError(t, err)
	}
	for _, out := range outputs {
		_, err := p.AddNewOutputEdge(idx, out)
		require.NoError(t, err)
	}
	return idx
}

// requireSymmetric checks both directions of every edge.
func requireSymmetric(t *testing.T, p *PipeLine) {
	t.Helper()
	p.EachProcess(func(pi int, pr process.Process) {
		for _, in := range pr.Inputs {
			nd, ok := p.Node(in)
			require.True(t, ok, "process %s has dangling input %d", pr.Name, in)
			require.Contains(t, nd.Consumers, pi, "node %s misses consumer %s", nd.Name, pr.Name)
		}
		for _, out := range pr.Outputs {
			nd, ok := p.Node(out)
			require.True(t, ok, "process %s has dangling output %d", pr.Name, out)
			require.Equal(t, pi, nd.Producer, "node %s has wrong producer", nd.Name)
		}
	})
	p.EachNode(func(ni int, nd node.Node) {
		for _, c := range nd.Consumers {
			pr, ok := p.Process(c)
			require.True(t, ok, "node %s has dangling consumer %d", nd.Name, c)
			require.True(t, slices.Contains(pr.Inputs, ni), "process %s misses input %s", pr.Name, nd.Name)
		}
		if nd.HasProducer() {
			pr, ok := p.Process(nd.Producer)
			require.True(t, ok, "node %s has dangling producer %d", nd.Name, nd.Producer)
			require.True(t, slices.Contains(pr.Outputs, ni), "process %s misses output %s", pr.Name, nd.Name)
		}
	})
}

// graphView is a comparable picture of the live content of a pipeline.
type graphView struct {
	Name       string
	JobCounter int
	Nodes      map[int]node.Node
	Processes  map[int]process.Process
}

func view(p *PipeLine) graphView {
	v := graphView{
		Name:       p.Name,
		JobCounter: p.JobCounter,
		Nodes:      map[int]node.Node{},
		Processes:  map[int]process.Process{},
	}
	p.EachNode(func(i int, n node.Node) {
		slices.Sort(n.Consumers)
		v.Nodes[i] = n
	})
	p.EachProcess(func(i int, pr process.Process) { v.Processes[i] = pr })
	return v
}

func roundTrip(t *testing.T, p *PipeLine, deleteNodes, deleteProcesses []bool) *PipeLine {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf, deleteNodes, deleteProcesses))
	out := New(WithLogger(discardLogger()))
	require.NoError(t, out.Read(&buf), buf.String())
	return out
}
