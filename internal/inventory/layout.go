// Package inventory turns filtered host records into a render-ready
// Ansible inventory document.
package inventory

import (
	"fmt"

	"github.com/yairfalse/ec2inv/internal/group"
)

// Inventory modes.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Counted is one summary line in the header.
type Counted struct {
	Label string
	Dim   group.Dimension
}

// Section is a run of [name:children] blocks built from one grouping.
// Block headers are the paths HeaderDepth levels down; their children are
// the full leaf paths below each header.
type Section struct {
	Label       string
	Dims        []group.Dimension
	HeaderDepth int
}

// Layout fixes which groupings a mode renders and in what order.
type Layout struct {
	Name    string
	Counted []Counted
	// Leaves is the grouping for host sections. Its first dimension
	// also splits the host sections into banner blocks.
	Leaves   []group.Dimension
	Sections []Section
}

// Single renders env-service groups for a single region.
var Single = Layout{
	Name: ModeSingle,
	Counted: []Counted{
		{Label: "Env", Dim: group.Env},
		{Label: "Services", Dim: group.Service},
	},
	Leaves: []group.Dimension{group.Env, group.Service},
	Sections: []Section{
		{Label: "Environments", Dims: []group.Dimension{group.Env, group.Service}, HeaderDepth: 1},
		{Label: "Services", Dims: []group.Dimension{group.Service, group.Env}, HeaderDepth: 1},
	},
}

// Multi renders env-service-region groups across several regions.
var Multi = Layout{
	Name: ModeMulti,
	Counted: []Counted{
		{Label: "Env", Dim: group.Env},
		{Label: "Services", Dim: group.Service},
		{Label: "Regions", Dim: group.Region},
	},
	Leaves: []group.Dimension{group.Env, group.Service, group.Region},
	Sections: []Section{
		{Label: "Environment Regions", Dims: []group.Dimension{group.Region, group.Env, group.Service}, HeaderDepth: 2},
		{Label: "Environment Services", Dims: []group.Dimension{group.Env, group.Service, group.Region}, HeaderDepth: 2},
		{Label: "Environments", Dims: []group.Dimension{group.Env, group.Service, group.Region}, HeaderDepth: 1},
		{Label: "Service Regions", Dims: []group.Dimension{group.Service, group.Region, group.Env}, HeaderDepth: 2},
		{Label: "Services", Dims: []group.Dimension{group.Service, group.Env, group.Region}, HeaderDepth: 1},
		{Label: "Regions", Dims: []group.Dimension{group.Region, group.Service, group.Env}, HeaderDepth: 1},
	},
}

// LayoutFor returns the layout for a mode name.
func LayoutFor(mode string) (Layout, error) {
	switch mode {
	case "", ModeSingle:
		return Single, nil
	case ModeMulti:
		return Multi, nil
	}
	return Layout{}, fmt.Errorf("unknown inventory mode %q (must be single or multi)", mode)
}
