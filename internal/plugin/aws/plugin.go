// Package aws implements the EC2 instance source for ec2inv.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// Plugin lists instances in a single region.
type Plugin struct {
	region      string
	client      EC2API
	states      []string
	stampRegion bool
}

// Config holds AWS plugin configuration.
type Config struct {
	Region  string
	Profile string
	// States limits results to these instance-state-name values.
	// Empty means no state filter.
	States []string
	// StampRegion copies Region onto every record (multi-region mode).
	StampRegion bool
}

// New creates a plugin backed by a real EC2 client.
func New(ctx context.Context, cfg Config) (*Plugin, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("aws: region required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewWithClient(ec2.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient creates a plugin around an existing EC2 client.
func NewWithClient(client EC2API, cfg Config) *Plugin {
	return &Plugin{
		region:      cfg.Region,
		client:      client,
		states:      cfg.States,
		stampRegion: cfg.StampRegion,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "aws/" + p.region
}

// Region returns the region this plugin scans.
func (p *Plugin) Region() string {
	return p.region
}

// Scan lists instances and normalizes them into host records.
func (p *Plugin) Scan(ctx context.Context) ([]host.Record, error) {
	instances, err := p.scanInstances(ctx)
	if err != nil {
		return nil, err
	}

	region := ""
	if p.stampRegion {
		region = p.region
	}

	records := make([]host.Record, 0, len(instances))
	for _, instance := range instances {
		records = append(records, NewRecord(instance, region))
	}
	return records, nil
}
