package plugin

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// ScanOptions controls ScanAll.
type ScanOptions struct {
	Policy Policy
	// Timeout bounds each region call. Zero means no limit.
	Timeout  time.Duration
	Observer Observer
}

// Report holds per-region results in plugin order.
type Report struct {
	Results []host.RegionResult
}

// Records returns the records of every successful region, region by region.
func (r *Report) Records() []host.Record {
	var records []host.Record
	for _, res := range r.Results {
		if res.Err == nil {
			records = append(records, res.Records...)
		}
	}
	return records
}

// Failed returns the errors of regions that did not complete.
func (r *Report) Failed() []*FetchError {
	var failed []*FetchError
	for _, res := range r.Results {
		if fe, ok := res.Err.(*FetchError); ok {
			failed = append(failed, fe)
		}
	}
	return failed
}

// Missing returns the regions that did not complete.
func (r *Report) Missing() []string {
	var regions []string
	for _, fe := range r.Failed() {
		regions = append(regions, fe.Region)
	}
	return regions
}

// ScanAll queries every plugin concurrently and waits for all of them.
// Under PolicyFailFast the first failure cancels the rest and is returned
// as a *FetchError with a nil report. Under PolicyPartial failures are kept
// in the report and the returned error is nil.
func ScanAll(ctx context.Context, plugins []Plugin, opts ScanOptions) (*Report, error) {
	if len(plugins) == 0 {
		return nil, ErrNoPlugins
	}

	results := make([]host.RegionResult, len(plugins))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range plugins {
		g.Go(func() error {
			results[i] = scanOne(gctx, p, opts)
			if results[i].Err != nil && opts.Policy != PolicyPartial {
				return results[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{Results: results}, nil
}

func scanOne(ctx context.Context, p Plugin, opts ScanOptions) host.RegionResult {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	records, err := p.Scan(ctx)
	d := time.Since(start)

	if err != nil {
		fe := newFetchError(p.Region(), err)
		if opts.Observer != nil {
			opts.Observer.ObserveScan(ctx, p.Region(), start, d, 0, fe)
		}
		log.Warn().
			Err(err).
			Str("plugin", p.Name()).
			Str("region", fe.Region).
			Str("code", fe.Code).
			Dur("duration", d).
			Msg("scan failed")
		return host.RegionResult{Region: p.Region(), Duration: d, Err: fe}
	}

	if opts.Observer != nil {
		opts.Observer.ObserveScan(ctx, p.Region(), start, d, len(records), nil)
	}

	log.Debug().
		Str("plugin", p.Name()).
		Str("region", p.Region()).
		Int("count", len(records)).
		Dur("duration", d).
		Msg("scan complete")

	return host.RegionResult{Region: p.Region(), Records: records, Duration: d}
}
