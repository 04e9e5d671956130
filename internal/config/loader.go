package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pipeliner/internal/ctxlog"
	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// FileExtension is the extension of project files looked up in directories.
const FileExtension = ".hcl"

// fileRoot decodes the top-level blocks of one project file.
type fileRoot struct {
	Pipeline *pipelineBlock `hcl:"pipeline,block"`
	Log      *logBlock      `hcl:"log,block"`
	Watch    *watchBlock    `hcl:"watch,block"`
}

type pipelineBlock struct {
	Name       *string `hcl:"name,optional"`
	ProjectDir *string `hcl:"project_dir,optional"`
	File       *string `hcl:"file,optional"`
	MarkerDir  *string `hcl:"marker_dir,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type watchBlock struct {
	Interval        *string `hcl:"interval,optional"`
	HealthcheckPort *int    `hcl:"healthcheck_port,optional"`
}

// Load reads the project files at paths on top of Defaults. A path may name
// a file or a directory, in which case every .hcl file below it is read in
// lexical order. A relative project_dir is resolved against the directory
// of the file that sets it.
func Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	evalCtx, err := newEvalContext()
	if err != nil {
		return nil, err
	}

	model := Defaults()
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := merge(model, &root, filepath.Dir(file)); err != nil {
			return nil, fmt.Errorf("invalid HCL file %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.", "files", len(files), "pipeline", model.Pipeline.Name, "project_dir", model.Pipeline.ProjectDir)
	return model, nil
}

func merge(m *Model, root *fileRoot, baseDir string) error {
	if b := root.Pipeline; b != nil {
		setString(&m.Pipeline.Name, b.Name)
		setString(&m.Pipeline.File, b.File)
		setString(&m.Pipeline.MarkerDir, b.MarkerDir)
		if b.ProjectDir != nil {
			dir := *b.ProjectDir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(baseDir, dir)
			}
			m.Pipeline.ProjectDir = dir
		}
	}
	if b := root.Log; b != nil {
		setString(&m.Log.Level, b.Level)
		setString(&m.Log.Format, b.Format)
	}
	if b := root.Watch; b != nil {
		if b.Interval != nil {
			d, err := time.ParseDuration(*b.Interval)
			if err != nil {
				return fmt.Errorf("watch.interval: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("watch.interval must be positive, got %s", d)
			}
			m.Watch.Interval = d
		}
		if b.HealthcheckPort != nil {
			if *b.HealthcheckPort < 0 || *b.HealthcheckPort > 65535 {
				return fmt.Errorf("watch.healthcheck_port out of range: %d", *b.HealthcheckPort)
			}
			m.Watch.HealthcheckPort = *b.HealthcheckPort
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// newEvalContext exposes the environment and working directory to
// expressions.
func newEvalContext() (*hcl.EvalContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
			"cwd": cty.StringVal(cwd),
		},
	}, nil
}

// findAllHCLFiles expands directories and drops duplicates. Unlike a missing
// file inside a directory, a missing path is an error.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, FileExtension)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}
