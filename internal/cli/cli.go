package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/pipeliner/internal/app"
	"github.com/specialistvlad/pipeliner/internal/config"
	"github.com/specialistvlad/pipeliner/internal/format"
	"github.com/specialistvlad/pipeliner/internal/node"
	"github.com/specialistvlad/pipeliner/internal/process"
)

// DefaultConfigFile is read when --config is not given and the file exists
// in the working directory.
const DefaultConfigFile = "pipeliner.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(msg string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(msg, args...)}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath   string
	pipelinePath string
	projectDir   string
	logLevel     string
	logFormat    string
}

// Execute runs the command line args, writing command output to outW and
// logs to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the pipeliner command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "pipeliner",
		Short: "Track the jobs and data files of a cryo-EM processing project",
		Long: `pipeliner records which job produced and consumed which data file in a
processing project, persists the graph as a STAR file and promotes running
jobs to finished once every one of their output files exists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%s", err.Error())
	})

	f := root.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "Project file or directory of .hcl files (default "+DefaultConfigFile+" if present).")
	f.StringVar(&g.pipelinePath, "pipeline", "", "Path of the STAR pipeline file.")
	f.StringVar(&g.projectDir, "project-dir", "", "Directory node file names are relative to.")
	f.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	f.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newStatusCommand(g, outW, errW),
		newAddCommand(g, outW, errW),
		newProbeCommand(g, outW, errW),
		newWatchCommand(g, outW, errW),
		newCancelCommand(g, outW, errW),
		newDeleteCommand(g, outW, errW),
		newMarkersCommand(g, outW, errW),
		newExportCommand(g, outW, errW),
	)
	return root
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError("%s: %s", cmd.CommandPath(), err.Error())
		}
		return nil
	}
}

// newApp resolves the configuration of one invocation: defaults, then the
// project file, then flags that were set explicitly.
func newApp(cmd *cobra.Command, g *globalFlags, outW, errW io.Writer, tweak func(*app.Config)) (*app.App, error) {
	ctx := cmd.Context()
	model := config.Defaults()
	configPath := g.configPath
	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		}
	}
	if configPath != "" {
		m, err := config.Load(ctx, configPath)
		if err != nil {
			return nil, err
		}
		model = m
	}
	if g.projectDir != "" {
		model.Pipeline.ProjectDir = g.projectDir
	}

	cfg := app.ConfigFromModel(model)
	flags := cmd.Flags()
	if g.pipelinePath != "" {
		cfg.PipelinePath = g.pipelinePath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(g.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(g.logFormat)
	}
	if tweak != nil {
		tweak(&cfg)
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError("%s", err.Error())
	}
	return app.NewApp(outW, errW, validated), nil
}

func newStatusCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var markdown, nodes bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the jobs of the pipeline",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			mode := format.ASCII
			if markdown {
				mode = format.Markdown
			}
			return a.Status(mode, nodes)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render Markdown tables.")
	cmd.Flags().BoolVar(&nodes, "nodes", false, "Also list the data files.")
	return cmd
}

func newAddCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var (
		typ, status string
		overwrite   bool
		ins, outs   []string
	)
	cmd := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Record a job and its input and output files",
		Long: `Record a job. Without NAME the job is called "<Type>/jobNNN/" after the
job counter. Files are given as PATH:TYPE, for example
--in Import/job001/micrographs.star:micrograph.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError("%s: %s", cmd.CommandPath(), err.Error())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.AddRequest{Overwrite: overwrite}
			if len(args) == 1 {
				req.Name = args[0]
			}
			var err error
			if req.Type, err = process.ParseType(typ); err != nil {
				return usageError("--type: %s", err.Error())
			}
			if req.Status, err = process.ParseStatus(status); err != nil {
				return usageError("--status: %s", err.Error())
			}
			if req.Inputs, err = parseNodes("--in", ins); err != nil {
				return err
			}
			if req.Outputs, err = parseNodes("--out", outs); err != nil {
				return err
			}

			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			_, err = a.Add(req)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&typ, "type", "", "Process type, by name or code (required).")
	f.StringVar(&status, "status", "scheduled", "Initial status: running, scheduled, finished or cancelled.")
	f.BoolVar(&overwrite, "overwrite", false, "Replace an existing job of the same name.")
	f.StringArrayVar(&ins, "in", nil, "Input file as PATH:TYPE. Repeatable.")
	f.StringArrayVar(&outs, "out", nil, "Output file as PATH:TYPE. Repeatable.")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// parseNodes reads PATH:TYPE values. The type follows the last colon so
// paths may contain colons themselves.
func parseNodes(flag string, values []string) ([]node.Node, error) {
	out := make([]node.Node, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, ":")
		if i <= 0 || i == len(v)-1 {
			return nil, usageError("%s %q: want PATH:TYPE", flag, v)
		}
		t, err := node.ParseType(v[i+1:])
		if err != nil {
			return nil, usageError("%s %q: %s", flag, v, err.Error())
		}
		out = append(out, node.New(v[:i], t))
	}
	return out, nil
}

func newProbeCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Promote running jobs whose output files all exist",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			names, err := a.Probe(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(outW, "Finished: %s\n", name)
			}
			return nil
		},
	}
}

func newWatchCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var (
		interval time.Duration
		port     int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe repeatedly until interrupted",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, outW, errW, func(c *app.Config) {
				if cmd.Flags().Changed("interval") {
					c.WatchInterval = interval
				}
				if cmd.Flags().Changed("healthcheck-port") {
					c.HealthcheckPort = port
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Watch(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "Time between probe passes.")
	cmd.Flags().IntVar(&port, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func newCancelCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel NAME",
		Short: "Mark a job as cancelled",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			return a.Cancel(args[0])
		},
	}
}

func newDeleteCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a job and its output files from the pipeline",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			return a.Delete(args[0], recursive)
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Also delete every job downstream.")
	return cmd
}

func newMarkersCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "markers",
		Short: "Rebuild the marker directory of existing data files",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			return a.Markers(cmd.Context())
		},
	}
}

func newExportCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var formatName string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the pipeline as YAML or STAR",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, outW, errW, nil)
			if err != nil {
				return err
			}
			err = a.Export(formatName)
			if errors.Is(err, app.ErrUnknownFormat) {
				return usageError("%s", err.Error())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "yaml", "Output format: 'yaml' or 'star'.")
	return cmd
}
