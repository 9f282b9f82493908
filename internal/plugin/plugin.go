// Package plugin defines the instance source interface for ec2inv and the
// concurrent fan-out that queries every configured region.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// Plugin is one region's instance source.
type Plugin interface {
	// Name returns the plugin identifier (e.g., "aws/us-west-1")
	Name() string

	// Region returns the region the plugin queries.
	Region() string

	// Scan returns the normalized records for the region.
	Scan(ctx context.Context) ([]host.Record, error)
}

// Observer is notified once per finished region scan.
type Observer interface {
	ObserveScan(ctx context.Context, region string, start time.Time, d time.Duration, count int, err error)
}

// Policy decides what ScanAll does when a region fails.
type Policy string

const (
	// PolicyFailFast cancels outstanding regions and returns the first error.
	PolicyFailFast Policy = "fail-fast"
	// PolicyPartial waits for every region and reports failures alongside results.
	PolicyPartial Policy = "partial"
)

// ErrNoPlugins is returned when ScanAll is called without any plugins.
var ErrNoPlugins = errors.New("no regions configured")

// ParsePolicy converts a config or flag value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFailFast:
		return PolicyFailFast, nil
	case PolicyPartial:
		return PolicyPartial, nil
	}
	return "", fmt.Errorf("unknown fetch policy %q (must be fail-fast or partial)", s)
}
