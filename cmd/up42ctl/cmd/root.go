package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/psantana5/up42-go/pkg/auth"
	"github.com/psantana5/up42-go/pkg/logging"
	"github.com/psantana5/up42-go/pkg/metrics"
	"github.com/psantana5/up42-go/pkg/tracing"
	"github.com/psantana5/up42-go/pkg/up42"
)

// Version is set at build time
var Version = "dev"

// options holds the global flags and the session built from them
type options struct {
	cfgFile         string
	projectID       string
	env             string
	endpoint        string
	outputFormat    string
	logLevel        string
	otlpEndpoint    string
	metricsTextfile string
	rateLimit       float64

	logger   hclog.Logger
	provider *tracing.Provider
	registry *prometheus.Registry
	project  *up42.Project
}

// Execute runs the CLI
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with a context that is cancelled on shutdown
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:           "up42ctl",
		Short:         "CLI for the UP42 platform",
		Long:          `up42ctl is a command line interface for inspecting and managing the workflows, jobs and settings of an UP42 project.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return o.teardown(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (default is $HOME/.up42ctl/config.yaml)")
	flags.StringVar(&o.projectID, "project-id", "", "project id (default from config or UP42_PROJECT_ID)")
	flags.StringVar(&o.env, "env", "", "platform environment: com or dev")
	flags.StringVar(&o.endpoint, "endpoint", "", "API root, overrides --env")
	flags.StringVarP(&o.outputFormat, "output", "o", "table", "output format: table, json or yaml")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&o.otlpEndpoint, "otlp-endpoint", "", "export request traces to this OTLP HTTP collector (host:port)")
	flags.StringVar(&o.metricsTextfile, "metrics-textfile", "", "write request metrics in Prometheus text format to this file")
	flags.Float64Var(&o.rateLimit, "rate-limit", 0, "maximum requests per second, 0 for no limit")

	rootCmd.AddCommand(newProjectCmd(o))
	rootCmd.AddCommand(newWorkflowsCmd(o))
	rootCmd.AddCommand(newJobsCmd(o))

	return rootCmd
}

func (o *options) setup(cmd *cobra.Command) error {
	if err := validateOutputFormat(o.outputFormat); err != nil {
		return err
	}

	// Credentials may live in a .env file next to the working directory
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	o.logger = logging.New(logging.Options{
		Name:   "up42ctl",
		Level:  o.logLevel,
		Output: cmd.ErrOrStderr(),
	})

	if o.otlpEndpoint != "" {
		provider, err := tracing.InitTracer(cmd.Context(), tracing.Config{
			ServiceName:    "up42ctl",
			ServiceVersion: Version,
			Environment:    o.env,
			OTLPEndpoint:   o.otlpEndpoint,
			Insecure:       true,
			Enabled:        true,
		}, o.logger)
		if err != nil {
			return err
		}
		o.provider = provider
	}
	if o.metricsTextfile != "" {
		o.registry = prometheus.NewRegistry()
	}
	return nil
}

func (o *options) teardown(cmd *cobra.Command) error {
	var errs []error
	if o.provider != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
		defer cancel()
		if err := o.provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}
	if o.registry != nil {
		if err := prometheus.WriteToTextfile(o.metricsTextfile, o.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// configPath returns the explicit config file or the default one if present
func (o *options) configPath() (string, error) {
	if o.cfgFile != "" {
		return o.cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	path := filepath.Join(home, ".up42ctl", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

func (o *options) authConfig() (auth.Config, error) {
	path, err := o.configPath()
	if err != nil {
		return auth.Config{}, err
	}
	cfg, err := auth.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	if o.projectID != "" {
		cfg.ProjectID = o.projectID
	}
	if o.env != "" {
		cfg.Env = o.env
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.rateLimit > 0 {
		cfg.RateLimit = o.rateLimit
	}

	// entities are bound lazily, commands fetch what they print
	cfg.GetInfo = false
	cfg.Logger = o.logger
	if o.provider != nil {
		cfg.Tracer = o.provider.Tracer()
	}
	if o.registry != nil {
		cfg.Metrics = metrics.NewClientMetrics(o.registry)
	}
	return cfg, nil
}

// session authenticates on first use and returns the configured project
func (o *options) session(ctx context.Context) (*up42.Project, error) {
	if o.project != nil {
		return o.project, nil
	}
	cfg, err := o.authConfig()
	if err != nil {
		return nil, err
	}
	a, err := auth.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p, err := up42.NewProject(ctx, a, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	o.project = p
	return p, nil
}
