package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2inv/internal/config"
)

var version = "0.1.0"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 3
)

// options holds the root command's flags.
type options struct {
	configPath      string
	regions         []string
	mode            string
	output          string
	policy          string
	timeout         time.Duration
	profile         string
	states          []string
	includeTags     []string
	excludeTags     []string
	list            bool
	host            string
	metricsTextfile string
	debug           bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ec2inv",
		Short: "Ansible inventory from EC2 tags",
		Long: `ec2inv - Ansible inventory from EC2 tags

ec2inv lists EC2 instances and groups them by their Env, Service and
Name tags into an Ansible inventory. Single mode covers one region;
multi mode fans out across several regions and adds region groups.

It can also act as an Ansible dynamic inventory script via --list
and --host.`,
		Example: `  ec2inv                                  # INI inventory for $AWS_REGION
  ec2inv --mode multi                     # us-east-1, us-east-2, us-west-1, us-west-2
  ec2inv --mode multi -r eu-west-1 -r eu-central-1
  ec2inv --mode multi --policy partial    # print what succeeded, exit 3
  ec2inv --include-tag Team=infra -o yaml
  ec2inv --list                           # Ansible dynamic inventory`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	opts.bind(cmd)

	cmd.SetVersionTemplate(`ec2inv {{.Version}} - Ansible inventory from EC2 tags
`)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// bind registers the flags on cmd.
func (o *options) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "Path to TOML config file")
	f.StringArrayVarP(&o.regions, "region", "r", nil, "AWS region to scan (repeatable)")
	f.StringVar(&o.mode, "mode", "", "Inventory mode: single, multi")
	f.StringVarP(&o.output, "output", "o", "", "Output format: ini, json, yaml")
	f.StringVar(&o.policy, "policy", "", "Region failure policy: fail-fast, partial")
	f.DurationVar(&o.timeout, "timeout", 0, "Per-region request timeout (0 disables)")
	f.StringVar(&o.profile, "profile", "", "AWS shared config profile")
	f.StringSliceVar(&o.states, "state", nil, "Instance states to include (empty for all)")
	f.StringArrayVar(&o.includeTags, "include-tag", nil, "Keep only instances with tag key=value (repeatable)")
	f.StringArrayVar(&o.excludeTags, "exclude-tag", nil, "Drop instances with tag key=value (repeatable)")
	f.BoolVar(&o.list, "list", false, "Print Ansible dynamic inventory JSON")
	f.StringVar(&o.host, "host", "", "Print variables of one host as JSON")
	f.StringVar(&o.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("list", "host")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ec2inv %s\n", version)
		},
	}
}

// loadConfig reads the config file (or defaults) and applies explicitly set flags over it.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("region") {
		cfg.AWS.Regions = opts.regions
	}
	if f.Changed("mode") {
		cfg.Inventory.Mode = opts.mode
	}
	if f.Changed("output") {
		cfg.Inventory.Format = opts.output
	}
	if f.Changed("policy") {
		cfg.Inventory.Policy = opts.policy
	}
	if f.Changed("timeout") {
		cfg.AWS.Timeout = opts.timeout
	}
	if f.Changed("profile") {
		cfg.AWS.Profile = opts.profile
	}
	if f.Changed("state") {
		cfg.AWS.States = opts.states
	}
	if f.Changed("include-tag") {
		cfg.Filter.IncludeTags = opts.includeTags
	}
	if f.Changed("exclude-tag") {
		cfg.Filter.ExcludeTags = opts.excludeTags
	}
	if f.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = opts.metricsTextfile
	}
	if opts.debug {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	return exitCode(cmd.ExecuteContext(ctx))
}

// exitCode maps a run error to a process exit code and logs it.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrPartial):
		log.Warn().Err(err).Msg("inventory incomplete")
		return exitPartial
	default:
		log.Error().Err(err).Msg("ec2inv failed")
		return exitFailure
	}
}
