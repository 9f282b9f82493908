package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/ec2inv/internal/config"
	"github.com/yairfalse/ec2inv/internal/emitter"
	"github.com/yairfalse/ec2inv/internal/filter"
	"github.com/yairfalse/ec2inv/internal/inventory"
	"github.com/yairfalse/ec2inv/internal/plugin"
	"github.com/yairfalse/ec2inv/internal/plugin/aws"
	"github.com/yairfalse/ec2inv/internal/telemetry"
)

// ErrPartial is returned after an inventory was written without some regions.
var ErrPartial = errors.New("inventory is partial")

// generateOptions is everything the pipeline needs besides its plugins.
type generateOptions struct {
	Layout inventory.Layout
	Filter *filter.Filter
	Scan   plugin.ScanOptions
}

// generate fetches, filters, groups and emits. Under fail-fast a fetch error
// returns before anything is emitted. When regions are missing the document
// is still emitted and ErrPartial is returned.
func generate(ctx context.Context, plugins []plugin.Plugin, opts generateOptions, emit emitter.Emitter) (*inventory.Document, error) {
	report, err := plugin.ScanAll(ctx, plugins, opts.Scan)
	if err != nil {
		return nil, fmt.Errorf("fetch instances: %w", err)
	}

	fetched := report.Records()
	records := opts.Filter.Apply(fetched)

	doc := inventory.Build(records, opts.Layout)
	doc.Missing = report.Missing()

	log.Info().
		Str("mode", opts.Layout.Name).
		Int("regions", len(plugins)).
		Int("fetched", len(fetched)).
		Int("hosts", len(records)).
		Msg("inventory built")

	if err := emit.Emit(ctx, doc); err != nil {
		return doc, fmt.Errorf("emit inventory: %w", err)
	}

	if len(doc.Missing) > 0 {
		return doc, fmt.Errorf("%w: missing regions %s", ErrPartial, strings.Join(doc.Missing, ", "))
	}
	return doc, nil
}

// run wires config into plugins, telemetry and emitters, then generates.
func run(ctx context.Context, cfg *config.Config, opts *options, out io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	layout, err := inventory.LayoutFor(cfg.Inventory.Mode)
	if err != nil {
		return err
	}
	policy, err := plugin.ParsePolicy(cfg.Inventory.Policy)
	if err != nil {
		return err
	}
	include, err := config.ParseTagPairs(cfg.Filter.IncludeTags)
	if err != nil {
		return fmt.Errorf("parse include tags: %w", err)
	}
	exclude, err := config.ParseTagPairs(cfg.Filter.ExcludeTags)
	if err != nil {
		return fmt.Errorf("parse exclude tags: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	plugins, err := buildPlugins(ctx, cfg)
	if err != nil {
		return err
	}

	metrics, err := emitter.NewMetricsEmitter(tp.Meter())
	if err != nil {
		return fmt.Errorf("init metrics emitter: %w", err)
	}
	emit := emitter.NewMultiEmitter(outputEmitter(cfg.Inventory.Format, opts, out), metrics)
	defer emit.Close()

	_, genErr := generate(ctx, plugins, generateOptions{
		Layout: layout,
		Filter: filter.New(include, exclude),
		Scan: plugin.ScanOptions{
			Policy:   policy,
			Timeout:  cfg.AWS.Timeout,
			Observer: tp,
		},
	}, emit)

	if cfg.Metrics.Textfile != "" {
		if err := tp.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Error().Err(err).Str("path", cfg.Metrics.Textfile).Msg("metrics textfile not written")
		}
	}

	return genErr
}

// buildPlugins creates one EC2 plugin per resolved region, in order.
func buildPlugins(ctx context.Context, cfg *config.Config) ([]plugin.Plugin, error) {
	stamp := cfg.Inventory.Mode == inventory.ModeMulti

	var plugins []plugin.Plugin
	for _, region := range cfg.ResolveRegions() {
		p, err := aws.New(ctx, aws.Config{
			Region:      region,
			Profile:     cfg.AWS.Profile,
			States:      cfg.AWS.States,
			StampRegion: stamp,
		})
		if err != nil {
			return nil, fmt.Errorf("create aws plugin for %s: %w", region, err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// outputEmitter picks the stdout renderer. --list and --host follow the
// Ansible dynamic inventory protocol and override the configured format.
func outputEmitter(format string, opts *options, out io.Writer) emitter.Emitter {
	switch {
	case opts.list:
		return emitter.NewJSONEmitter(out)
	case opts.host != "":
		return emitter.NewHostEmitter(out, opts.host)
	}

	switch format {
	case config.FormatJSON:
		return emitter.NewJSONEmitter(out)
	case config.FormatYAML:
		return emitter.NewYAMLEmitter(out)
	default:
		return emitter.NewINIEmitter(out)
	}
}
