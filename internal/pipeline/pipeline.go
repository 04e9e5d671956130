package pipeline

import (
	"errors"
	"log/slog"

	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/nodestore"
	"github.com/specialistvlad/pipeliner/internal/process"
	"github.com/specialistvlad/pipeliner/internal/processstore"
)

// DefaultName is the name of a pipeline that was never given one.
const DefaultName = "default"

// DefaultMarkerDir is the hidden directory that holds marker files.
const DefaultMarkerDir = ".Nodes"

// NotFound is returned by name lookups that match nothing.
const NotFound = -1

var (
	// ErrProcessNotFound is returned for an index that is not a live process.
	ErrProcessNotFound = errors.New("process not found")
	// ErrNodeNotFound is returned for an index that is not a live node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrMalformedSnapshot is returned when a persisted pipeline cannot be read.
	ErrMalformedSnapshot = errors.New("malformed pipeline snapshot")
)

// PipeLine owns the node and process registries of one project.
type PipeLine struct {
	// Name is a display label for the whole workflow.
	Name string
	// JobCounter is the number given to the next job created with NewJobName.
	JobCounter int

	nodes *nodestore.Store
	procs *processstore.Store

	logger    *slog.Logger
	prober    fsutil.Prober
	markerDir string
}

// Option configures a PipeLine.
type Option func(*PipeLine)

// WithLogger sets the logger used for warnings and state changes.
func WithLogger(l *slog.Logger) Option {
	return func(p *PipeLine) { p.logger = l }
}

// WithProber replaces the file system existence check used for completion
// probing and marker files.
func WithProber(pr fsutil.Prober) Option {
	return func(p *PipeLine) { p.prober = pr }
}

// WithMarkerDir sets the root of the marker file tree.
func WithMarkerDir(dir string) Option {
	return func(p *PipeLine) { p.markerDir = dir }
}

// New creates an empty pipeline.
func New(opts ...Option) *PipeLine {
	p := &PipeLine{
		Name:       DefaultName,
		JobCounter: 1,
		nodes:      nodestore.New(),
		procs:      processstore.New(),
		logger:     slog.Default(),
		markerDir:  DefaultMarkerDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.prober == nil {
		p.prober = fsutil.OSProber{OnError: func(path string, err error) {
			p.logger.Debug("Stat failed, treating file as absent.", "path", path, "error", err)
		}}
	}
	return p
}

// SetName sets the display label of the pipeline.
func (p *PipeLine) SetName(name string) {
	p.Name = name
}

// Clear drops every node and process. Name and options are kept.
func (p *PipeLine) Clear() {
	p.nodes = nodestore.New()
	p.procs = processstore.New()
	p.JobCounter = 1
}

// NewJobName returns the conventional name for a new job of type t and
// advances the job counter.
func (p *PipeLine) NewJobName(t process.Type) string {
	name := t.JobName(p.JobCounter)
	p.JobCounter++
	return name
}

// AddNode registers n, or finds the live node with the same name, and returns
// its index.
func (p *PipeLine) AddNode(n node.Node) int {
	return p.nodes.RegisterOrFind(n)
}

// AddNewProcess appends pr. With overwrite set, a live process of the same
// name is replaced in place instead; the edges of the replaced record are
// detached first, so its old input nodes lose it as a consumer and its old
// output nodes are left without a producer. No other checks are made.
func (p *PipeLine) AddNewProcess(pr process.Process, overwrite bool) int {
	if overwrite {
		if old := p.procs.FindByName(pr.Name); old != NotFound {
			p.detachEdges(old)
		}
	}
	idx := p.procs.Append(pr, overwrite)
	p.logger.Debug("Process added.", "index", idx, "name", pr.Name, "type", pr.Type.String(), "status", pr.Status.String())
	return idx
}

// detachEdges removes process i from both ends of every edge it holds.
func (p *PipeLine) detachEdges(i int) {
	pr, ok := p.procs.Get(i)
	if !ok {
		return
	}
	for _, in := range pr.Inputs {
		if nd, ok := p.nodes.Get(in); ok {
			nd.RemoveConsumer(i)
		}
	}
	for _, out := range pr.Outputs {
		if nd, ok := p.nodes.Get(out); ok && nd.Producer == i {
			nd.Producer = node.NoProducer
		}
	}
	pr.Inputs = nil
	pr.Outputs = nil
}

// FindNodeByName returns the index of the first live node called name, or NotFound.
func (p *PipeLine) FindNodeByName(name string) int {
	return p.nodes.FindByName(name)
}

// FindProcessByName returns the index of the first live process called name,
// or NotFound.
func (p *PipeLine) FindProcessByName(name string) int {
	return p.procs.FindByName(name)
}

// Node returns a copy of the live node at index i.
func (p *PipeLine) Node(i int) (node.Node, bool) {
	n, ok := p.nodes.Get(i)
	if !ok {
		return node.Node{}, false
	}
	return n.Clone(), true
}

// Process returns a copy of the live process at index i.
func (p *PipeLine) Process(i int) (process.Process, bool) {
	pr, ok := p.procs.Get(i)
	if !ok {
		return process.Process{}, false
	}
	return pr.Clone(), true
}

// NodeSlots returns the number of node indices handed out so far, including
// deleted ones.
func (p *PipeLine) NodeSlots() int { return p.nodes.Len() }

// ProcessSlots returns the number of process indices handed out so far,
// including deleted ones.
func (p *PipeLine) ProcessSlots() int { return p.procs.Len() }

// NodeCount returns the number of live nodes.
func (p *PipeLine) NodeCount() int { return p.nodes.Live() }

// ProcessCount returns the number of live processes.
func (p *PipeLine) ProcessCount() int { return p.procs.Live() }

// EachNode calls fn with a copy of every live node in index order.
func (p *PipeLine) EachNode(fn func(i int, n node.Node)) {
	p.nodes.Each(func(i int, n *node.Node) { fn(i, n.Clone()) })
}

// EachProcess calls fn with a copy of every live process in index order.
func (p *PipeLine) EachProcess(fn func(i int, pr process.Process)) {
	p.procs.Each(func(i int, pr *process.Process) { fn(i, pr.Clone()) })
}
