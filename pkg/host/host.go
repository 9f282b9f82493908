// Package host defines the normalized host record used to build inventories.
package host

import "time"

// Tag keys read from each instance.
const (
	TagName    = "Name"
	TagEnv     = "Env"
	TagService = "Service"
)

// Defaults applied when a tag is missing.
const (
	DefaultEnv     = "EC2"
	DefaultService = "unknown"
)

// Record is one instance reduced to the fields the inventory groups on.
// Records are built once per instance and never modified afterwards.
type Record struct {
	ID      string            `json:"id"`               // Provider instance ID (e.g., "i-abc123")
	Host    string            `json:"host"`             // Name tag, or ID when untagged
	Env     string            `json:"env"`              // Env tag, or DefaultEnv
	Service string            `json:"service"`          // Service tag, or DefaultService
	Region  string            `json:"region,omitempty"` // Only set in multi-region mode
	Tags    map[string]string `json:"tags,omitempty"`   // Raw tags, used by tag filters
}

// FromTags builds a Record from an instance ID and its tag map.
// Empty tag values count as missing.
func FromTags(id, region string, tags map[string]string) Record {
	return Record{
		ID:      id,
		Host:    orDefault(tags[TagName], id),
		Env:     orDefault(tags[TagEnv], DefaultEnv),
		Service: orDefault(tags[TagService], DefaultService),
		Region:  region,
		Tags:    tags,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// RegionResult holds the outcome of fetching a single region.
type RegionResult struct {
	Region   string
	Records  []Record
	Duration time.Duration
	Err      error
}
