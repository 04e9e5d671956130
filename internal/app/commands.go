package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pipeliner/internal/format"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/pipeline"
	"github.com/specialistvlad/pipeliner/internal/process"
)

var (
	// ErrJobExists is returned when adding a job under a taken name without
	// asking to overwrite it.
	ErrJobExists = errors.New("job already exists")
	// ErrUnknownFormat is returned for an export format that is not supported.
	ErrUnknownFormat = errors.New("unknown export format")
)

// AddRequest describes a job to record.
type AddRequest struct {
	// Name defaults to the conventional "<Type>/jobNNN/" name.
	Name      string
	Type      process.Type
	Status    process.Status
	Overwrite bool
	Inputs    []node.Node
	Outputs   []node.Node
}

// Status prints the job table, and the node table when withNodes is set.
func (a *App) Status(mode format.Mode, withNodes bool) error {
	if err := a.Load(); err != nil {
		return err
	}
	a.printf("Pipeline %s\n", a.pipe.Name)
	a.printf("%s\n", format.ProcessTable(a.pipe, mode))
	if withNodes {
		a.printf("\n%s\n", format.NodeTable(a.pipe, mode))
	}
	return nil
}

// Add records a new job with its edges and persists the pipeline. It returns
// the name the job was stored under.
func (a *App) Add(req AddRequest) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("add job: invalid process type %d", int(req.Type))
	}
	if !req.Status.Valid() {
		return "", fmt.Errorf("add job: invalid status %d", int(req.Status))
	}
	if err := a.Load(); err != nil {
		return "", err
	}

	name := req.Name
	if name == "" {
		name = a.pipe.NewJobName(req.Type)
	}
	if !req.Overwrite && a.pipe.FindProcessByName(name) != pipeline.NotFound {
		return "", fmt.Errorf("add job %s: %w", name, ErrJobExists)
	}

	idx := a.pipe.AddNewProcess(process.New(name, req.Type, req.Status), req.Overwrite)
	for _, in := range req.Inputs {
		if _, err := a.pipe.AddNewInputEdge(in, idx); err != nil {
			return "", err
		}
	}
	for _, out := range req.Outputs {
		if _, err := a.pipe.AddNewOutputEdge(idx, out); err != nil {
			return "", err
		}
	}
	if err := a.Save(); err != nil {
		return "", err
	}

	a.logger.Info("Job added.", "name", name, "index", idx, "inputs", len(req.Inputs), "outputs", len(req.Outputs))
	a.printf("%s\n", name)
	return name, nil
}

// Probe runs one completion pass and persists the result when any job was
// promoted. It returns the names of the promoted jobs.
func (a *App) Probe(ctx context.Context) ([]string, error) {
	if err := a.Load(); err != nil {
		return nil, err
	}
	promoted, err := a.pipe.CheckProcessCompletion(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(promoted))
	for _, i := range promoted {
		pr, _ := a.pipe.Process(i)
		names = append(names, pr.Name)
	}
	if len(promoted) > 0 {
		if err := a.Save(); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("Probe pass complete.", "promoted", len(promoted))
	return names, nil
}

// Cancel marks the named job as cancelled.
func (a *App) Cancel(name string) error {
	if err := a.Load(); err != nil {
		return err
	}
	idx, err := a.lookup(name)
	if err != nil {
		return err
	}
	if err := a.pipe.CancelProcess(idx); err != nil {
		return err
	}
	return a.Save()
}

// Delete removes the named job and its outputs, and with recursive set every
// job downstream of it.
func (a *App) Delete(name string, recursive bool) error {
	if err := a.Load(); err != nil {
		return err
	}
	idx, err := a.lookup(name)
	if err != nil {
		return err
	}
	before := a.pipe.ProcessCount()
	if err := a.pipe.DeleteProcess(idx, recursive); err != nil {
		return err
	}
	if err := a.Save(); err != nil {
		return err
	}
	a.printf("Deleted %d job(s).\n", before-a.pipe.ProcessCount())
	return nil
}

// Markers rebuilds the marker tree.
func (a *App) Markers(ctx context.Context) error {
	if err := a.Load(); err != nil {
		return err
	}
	present, err := a.pipe.MakeNodeDirectory(ctx)
	if err != nil {
		return err
	}
	a.printf("%d of %d node file(s) present, markers in %s\n", present, a.pipe.NodeCount(), a.config.MarkerDir)
	return nil
}

// Export writes the pipeline as "yaml" or "star".
func (a *App) Export(formatName string) error {
	if err := a.Load(); err != nil {
		return err
	}
	switch formatName {
	case "yaml":
		out, err := format.YAML(a.pipe)
		if err != nil {
			return err
		}
		_, err = a.outW.Write(out)
		return err
	case "star":
		return a.pipe.Write(a.outW, nil, nil)
	default:
		return fmt.Errorf("%w %q: must be 'yaml' or 'star'", ErrUnknownFormat, formatName)
	}
}

func (a *App) lookup(name string) (int, error) {
	idx := a.pipe.FindProcessByName(name)
	if idx == pipeline.NotFound {
		return idx, fmt.Errorf("job %s: %w", name, pipeline.ErrProcessNotFound)
	}
	return idx, nil
}
