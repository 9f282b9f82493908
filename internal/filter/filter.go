// Package filter decides which host records reach the inventory.
package filter

import (
	"github.com/yairfalse/ec2inv/pkg/host"
)

// Filter drops incomplete records and applies optional tag rules.
type Filter struct {
	includeTags map[string]string
	excludeTags map[string]string
}

// New creates a new Filter. Both maps may be nil.
func New(includeTags, excludeTags map[string]string) *Filter {
	return &Filter{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Complete reports whether a record has every field a group name needs.
func Complete(r host.Record) bool {
	return r.Host != "" && r.Env != "" && r.Service != ""
}

// ShouldInclude returns true if the record is complete and passes tag filters.
func (f *Filter) ShouldInclude(r host.Record) bool {
	if !Complete(r) {
		return false
	}

	// Check include tags (whitelist) - ALL must match
	for k, v := range f.includeTags {
		if got, ok := r.Tags[k]; !ok || got != v {
			return false
		}
	}

	// Check exclude tags (blacklist) - ANY match excludes
	for k, v := range f.excludeTags {
		if got, ok := r.Tags[k]; ok && got == v {
			return false
		}
	}

	return true
}

// Apply returns the records that pass the filter, in their original order.
func (f *Filter) Apply(records []host.Record) []host.Record {
	filtered := make([]host.Record, 0, len(records))
	for _, r := range records {
		if f.ShouldInclude(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// IsEmpty returns true if no tag rules are configured.
func (f *Filter) IsEmpty() bool {
	return len(f.includeTags) == 0 && len(f.excludeTags) == 0
}
