// Package format renders a pipeline for people and for other tools: terminal
// or Markdown tables of the jobs, and a YAML document of the whole graph.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/pipeline"
	"github.com/specialistvlad/pipeliner/internal/process"
)

// Mode controls the table output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ProcessTable lists every live job with the names of its inputs and
// outputs.
func ProcessTable(p *pipeline.PipeLine, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"#", "Job", "Type", "Status", "Inputs", "Outputs"})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
		{Number: 6, WidthMax: 60},
	})

	counts := map[process.Status]int{}
	p.EachProcess(func(i int, pr process.Process) {
		counts[pr.Status]++
		w.AppendRow(table.Row{i, pr.Name, pr.Type.String(), pr.Status.String(),
			nodeNames(p, pr.Inputs, m), nodeNames(p, pr.Outputs, m)})
	})
	w.AppendFooter(table.Row{"", fmt.Sprintf("%d jobs", p.ProcessCount()), "", statusSummary(counts), "", ""})
	return render(w, m)
}

// NodeTable lists every live node with its producer and consumer count.
func NodeTable(p *pipeline.PipeLine, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"#", "Node", "Type", "Producer", "Consumers"})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	p.EachNode(func(i int, n node.Node) {
		producer := "-"
		if pr, ok := p.Process(n.Producer); ok && n.HasProducer() {
			producer = pr.Name
		}
		w.AppendRow(table.Row{i, n.Name, n.Type.String(), producer, len(n.Consumers)})
	})
	return render(w, m)
}

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	w.Style().Format.Header = text.FormatDefault
	w.Style().Format.Footer = text.FormatDefault
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func nodeNames(p *pipeline.PipeLine, idx []int, m Mode) string {
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		if n, ok := p.Node(i); ok {
			names = append(names, n.Name)
		}
	}
	sep := "\n"
	if m == Markdown {
		sep = "<br>"
	}
	return strings.Join(names, sep)
}

func statusSummary(counts map[process.Status]int) string {
	var parts []string
	for _, s := range []process.Status{process.Running, process.Scheduled, process.Finished, process.Cancelled} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	return strings.Join(parts, ", ")
}
