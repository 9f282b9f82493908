// Package group partitions host records into ordered, nested groups.
package group

import (
	"maps"
	"slices"
	"strings"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// Dimension is one axis records can be grouped on.
type Dimension struct {
	Name string
	// Rank fixes the position of this dimension in a group name.
	Rank  int
	Value func(host.Record) string
}

// Built-in dimensions. Group names always read env-service-region.
var (
	Env     = Dimension{Name: "env", Rank: 0, Value: func(r host.Record) string { return r.Env }}
	Service = Dimension{Name: "service", Rank: 1, Value: func(r host.Record) string { return r.Service }}
	Region  = Dimension{Name: "region", Rank: 2, Value: func(r host.Record) string { return r.Region }}
)

// Step is one level of a path through a Tree.
type Step struct {
	Dim Dimension
	Key string
}

// Name builds a group name from a path: keys are lower-cased and joined
// with "-" in dimension rank order, whatever order the path is in.
func Name(path []Step) string {
	ordered := slices.Clone(path)
	slices.SortStableFunc(ordered, func(a, b Step) int {
		return a.Dim.Rank - b.Dim.Rank
	})

	parts := make([]string, len(ordered))
	for i, s := range ordered {
		parts[i] = strings.ToLower(s.Key)
	}
	return strings.Join(parts, "-")
}

// Counts maps a dimension value to the number of records carrying it.
type Counts map[string]int

// Count tallies records by one dimension.
func Count(records []host.Record, dim Dimension) Counts {
	c := make(Counts)
	for _, r := range records {
		c[dim.Value(r)]++
	}
	return c
}

// Keys returns the counted values in sorted order.
func (c Counts) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}
