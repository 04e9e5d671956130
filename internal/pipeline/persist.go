package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/nodestore"
	"github.com/specialistvlad/pipeliner/internal/process"
	"github.com/specialistvlad/pipeliner/internal/processstore"
	"github.com/specialistvlad/pipeliner/internal/starfile"
)

// Block and column names of the persisted pipeline.
const (
	blockGeneral     = "pipeline_general"
	blockProcesses   = "pipeline_processes"
	blockNodes       = "pipeline_nodes"
	blockInputEdges  = "pipeline_input_edges"
	blockOutputEdges = "pipeline_output_edges"

	labelName       = "_rlnPipeLineName"
	labelJobCounter = "_rlnPipeLineJobCounter"

	colProcessIndex  = "_rlnPipeLineProcessIndex"
	colProcessName   = "_rlnPipeLineProcessName"
	colProcessType   = "_rlnPipeLineProcessType"
	colProcessStatus = "_rlnPipeLineProcessStatus"

	colNodeIndex    = "_rlnPipeLineNodeIndex"
	colNodeName     = "_rlnPipeLineNodeName"
	colNodeType     = "_rlnPipeLineNodeType"
	colNodeProducer = "_rlnPipeLineNodeProducer"

	colEdgeProcess  = "_rlnPipeLineEdgeProcess"
	colEdgeFromNode = "_rlnPipeLineEdgeFromNode"
	colEdgeToNode   = "_rlnPipeLineEdgeToNode"

	noneValue = "None"
)

// Write serialises the pipeline as a STAR file. deleteNodes and
// deleteProcesses mark indices to leave out of the snapshot without touching
// the in-memory graph; indices beyond the end of a mask are kept. Surviving
// records are renumbered densely and every reference is rewritten: edges to
// omitted records are dropped and a producer that is omitted becomes None.
// A pipeline without deletions is written with its own indices.
func (p *PipeLine) Write(w io.Writer, deleteNodes, deleteProcesses []bool) error {
	nodeIdx := p.compaction(p.nodes.Len(), p.nodes.IsDeleted, deleteNodes)
	procIdx := p.compaction(p.procs.Len(), p.procs.IsDeleted, deleteProcesses)

	f := &starfile.File{Comment: "pipeliner"}
	f.AddPairs(blockGeneral,
		starfile.Pair{Label: labelName, Value: p.Name},
		starfile.Pair{Label: labelJobCounter, Value: strconv.Itoa(p.JobCounter)},
	)

	procs := f.AddTable(blockProcesses, colProcessIndex, colProcessName, colProcessType, colProcessStatus)
	inputs := &starfile.Table{Columns: []string{colEdgeProcess, colEdgeFromNode}}
	outputs := &starfile.Table{Columns: []string{colEdgeProcess, colEdgeToNode}}
	var err error
	p.procs.Each(func(i int, pr *process.Process) {
		to, kept := procIdx[i]
		if !kept || err != nil {
			return
		}
		err = procs.AddRow(strconv.Itoa(to), pr.Name, strconv.Itoa(int(pr.Type)), strconv.Itoa(int(pr.Status)))
		for _, in := range pr.Inputs {
			if n, ok := nodeIdx[in]; ok {
				inputs.Rows = append(inputs.Rows, []string{strconv.Itoa(to), strconv.Itoa(n)})
			}
		}
		for _, out := range pr.Outputs {
			if n, ok := nodeIdx[out]; ok {
				outputs.Rows = append(outputs.Rows, []string{strconv.Itoa(to), strconv.Itoa(n)})
			}
		}
	})
	if err != nil {
		return err
	}

	nodes := f.AddTable(blockNodes, colNodeIndex, colNodeName, colNodeType, colNodeProducer)
	p.nodes.Each(func(i int, nd *node.Node) {
		to, kept := nodeIdx[i]
		if !kept || err != nil {
			return
		}
		producer := noneValue
		if pi, ok := procIdx[nd.Producer]; ok && nd.HasProducer() {
			producer = strconv.Itoa(pi)
		}
		err = nodes.AddRow(strconv.Itoa(to), nd.Name, strconv.Itoa(int(nd.Type)), producer)
	})
	if err != nil {
		return err
	}

	f.Blocks = append(f.Blocks,
		&starfile.Block{Name: blockInputEdges, Table: inputs},
		&starfile.Block{Name: blockOutputEdges, Table: outputs},
	)
	return starfile.Write(w, f)
}

// compaction maps every surviving index to its position in the snapshot.
func (p *PipeLine) compaction(n int, deleted func(int) bool, mask []bool) map[int]int {
	out := make(map[int]int, n)
	next := 0
	for i := 0; i < n; i++ {
		if deleted(i) || (i < len(mask) && mask[i]) {
			continue
		}
		out[i] = next
		next++
	}
	return out
}

// WriteFile writes the pipeline to path atomically.
func (p *PipeLine) WriteFile(path string, deleteNodes, deleteProcesses []bool) error {
	var buf bytes.Buffer
	if err := p.Write(&buf, deleteNodes, deleteProcesses); err != nil {
		return fmt.Errorf("write pipeline %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write pipeline %s: %w", path, err)
	}
	p.logger.Debug("Pipeline written.", "path", path, "nodes", p.nodes.Live(), "processes", p.procs.Live())
	return nil
}

// Read replaces the content of the pipeline with the STAR snapshot in r. The
// snapshot is fully decoded and validated before anything is replaced; on
// error the pipeline is left as it was.
func (p *PipeLine) Read(r io.Reader) error {
	f, err := starfile.Read(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	snap, err := decodeSnapshot(f)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	p.Name = snap.name
	p.JobCounter = snap.jobCounter
	p.nodes = snap.nodes
	p.procs = snap.procs
	p.logger.Debug("Pipeline read.", "name", p.Name, "nodes", p.nodes.Live(), "processes", p.procs.Live())
	return nil
}

// ReadFile reads the pipeline from path.
func (p *PipeLine) ReadFile(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read pipeline: %w", err)
	}
	defer fh.Close()
	if err := p.Read(fh); err != nil {
		return fmt.Errorf("read pipeline %s: %w", path, err)
	}
	return nil
}

type snapshot struct {
	name       string
	jobCounter int
	nodes      *nodestore.Store
	procs      *processstore.Store
}

func decodeSnapshot(f *starfile.File) (*snapshot, error) {
	snap := &snapshot{name: DefaultName, jobCounter: 1}

	if general := f.Block(blockGeneral); general != nil {
		if v, ok := general.Value(labelName); ok {
			snap.name = v
		}
		if v, ok := general.Value(labelJobCounter); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%s: invalid job counter %q", labelJobCounter, v)
			}
			snap.jobCounter = n
		}
	}

	procTable, err := requireTable(f, blockProcesses, colProcessIndex, colProcessName, colProcessType, colProcessStatus)
	if err != nil {
		return nil, err
	}
	nodeTable, err := requireTable(f, blockNodes, colNodeIndex, colNodeName, colNodeType, colNodeProducer)
	if err != nil {
		return nil, err
	}

	procs := make([]*process.Process, len(procTable.Rows))
	for r, row := range procTable.Rows {
		get := columnGetter(procTable, row)
		idx, err := parseIndex(get(colProcessIndex), len(procs))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", blockProcesses, r+1, err)
		}
		if procs[idx] != nil {
			return nil, fmt.Errorf("%s row %d: duplicate index %d", blockProcesses, r+1, idx)
		}
		t, err := process.ParseType(get(colProcessType))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", blockProcesses, r+1, err)
		}
		s, err := process.ParseStatus(get(colProcessStatus))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", blockProcesses, r+1, err)
		}
		pr := process.New(get(colProcessName), t, s)
		procs[idx] = &pr
	}

	nodes := make([]*node.Node, len(nodeTable.Rows))
	for r, row := range nodeTable.Rows {
		get := columnGetter(nodeTable, row)
		idx, err := parseIndex(get(colNodeIndex), len(nodes))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", blockNodes, r+1, err)
		}
		if nodes[idx] != nil {
			return nil, fmt.Errorf("%s row %d: duplicate index %d", blockNodes, r+1, idx)
		}
		t, err := node.ParseType(get(colNodeType))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", blockNodes, r+1, err)
		}
		nd := node.New(get(colNodeName), t)
		if v := get(colNodeProducer); v != noneValue {
			nd.Producer, err = parseIndex(v, len(procs))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: producer: %w", blockNodes, r+1, err)
			}
		}
		nodes[idx] = &nd
	}

	err = decodeEdges(f, blockInputEdges, colEdgeFromNode, procs, nodes, func(pr *process.Process, pi int, nd *node.Node, ni int) {
		pr.Inputs = append(pr.Inputs, ni)
		nd.AddConsumer(pi)
	})
	if err != nil {
		return nil, err
	}
	if f.Block(blockOutputEdges) == nil {
		// Without output edges the producer column is the only record.
		for ni, nd := range nodes {
			if nd.HasProducer() {
				procs[nd.Producer].Outputs = append(procs[nd.Producer].Outputs, ni)
			}
		}
	} else {
		err = decodeEdges(f, blockOutputEdges, colEdgeToNode, procs, nodes, func(pr *process.Process, _ int, _ *node.Node, ni int) {
			pr.Outputs = append(pr.Outputs, ni)
		})
		if err != nil {
			return nil, err
		}
		if err := checkProducers(procs, nodes); err != nil {
			return nil, err
		}
	}

	snap.procs = processstore.New()
	for _, pr := range procs {
		snap.procs.Append(*pr, false)
	}
	snap.nodes = nodestore.New()
	for _, nd := range nodes {
		snap.nodes.Append(*nd)
	}
	return snap, nil
}

// decodeEdges applies every row of an optional edge table.
func decodeEdges(f *starfile.File, block, nodeCol string, procs []*process.Process, nodes []*node.Node,
	apply func(pr *process.Process, pi int, nd *node.Node, ni int)) error {
	if f.Block(block) == nil {
		return nil
	}
	t, err := requireTable(f, block, colEdgeProcess, nodeCol)
	if err != nil {
		return err
	}
	for r, row := range t.Rows {
		get := columnGetter(t, row)
		pi, err := parseIndex(get(colEdgeProcess), len(procs))
		if err != nil {
			return fmt.Errorf("%s row %d: process: %w", block, r+1, err)
		}
		ni, err := parseIndex(get(nodeCol), len(nodes))
		if err != nil {
			return fmt.Errorf("%s row %d: node: %w", block, r+1, err)
		}
		apply(procs[pi], pi, nodes[ni], ni)
	}
	return nil
}

// checkProducers requires the producer column of the nodes table and the
// output edges to describe the same relation.
func checkProducers(procs []*process.Process, nodes []*node.Node) error {
	for pi, pr := range procs {
		for _, ni := range pr.Outputs {
			if nodes[ni].Producer != pi {
				return fmt.Errorf("%s: output edge %d %d disagrees with producer of node %d", blockOutputEdges, pi, ni, ni)
			}
		}
	}
	for ni, nd := range nodes {
		if nd.HasProducer() && !slices.Contains(procs[nd.Producer].Outputs, ni) {
			return fmt.Errorf("%s row for node %d: producer %d has no output edge to it", blockNodes, ni, nd.Producer)
		}
	}
	return nil
}

func requireTable(f *starfile.File, block string, columns ...string) (*starfile.Table, error) {
	b := f.Block(block)
	if b == nil {
		return nil, fmt.Errorf("missing block data_%s", block)
	}
	if b.Table == nil {
		return nil, fmt.Errorf("block data_%s is not a loop", block)
	}
	for _, c := range columns {
		if b.Table.Column(c) < 0 {
			return nil, fmt.Errorf("block data_%s lacks column %s", block, c)
		}
	}
	return b.Table, nil
}

func columnGetter(t *starfile.Table, row []string) func(string) string {
	return func(col string) string {
		return row[t.Column(col)]
	}
}

func parseIndex(v string, n int) (int, error) {
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", v)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, n)
	}
	return i, nil
}
