package inventory

import (
	"slices"

	"github.com/yairfalse/ec2inv/internal/group"
	"github.com/yairfalse/ec2inv/pkg/host"
)

// Banner is the first line of every rendered inventory.
const Banner = "### Generated Ansible Inventory from AWS ###"

// CountLine is one header summary, e.g. "Env" with {"prod": 2}.
type CountLine struct {
	Label  string
	Counts group.Counts
}

// Group is a named inventory group with either hosts or children.
type Group struct {
	Name     string
	Hosts    []string
	Children []string
}

// Block is a run of groups under one "## ... ##" banner.
type Block struct {
	Banner string
	Groups []Group
}

// Document is the render-ready inventory.
type Document struct {
	Banner string
	Counts []CountLine
	// Missing lists regions left out after a partial fetch.
	Missing []string
	Blocks  []Block
	// Hosts is the filtered record set the document was built from.
	Hosts []host.Record
}

// Build groups records according to layout. Records must already be filtered.
func Build(records []host.Record, layout Layout) *Document {
	doc := &Document{
		Banner: Banner,
		Hosts:  records,
	}

	for _, c := range layout.Counted {
		doc.Counts = append(doc.Counts, CountLine{Label: c.Label, Counts: group.Count(records, c.Dim)})
	}

	doc.Blocks = append(doc.Blocks, hostBlocks(records, layout.Leaves)...)
	for _, s := range layout.Sections {
		doc.Blocks = append(doc.Blocks, childrenBlock(records, s))
	}

	return doc
}

// hostBlocks emits one block per top-level key holding that key's leaf groups.
func hostBlocks(records []host.Record, dims []group.Dimension) []Block {
	tree := group.Build(records, dims...)

	var blocks []Block
	tree.Each(func(top *group.Tree) bool {
		head := group.Step{Dim: top.Dimension(), Key: top.Key()}
		block := Block{Banner: top.Key() + " Services"}
		top.Leaves(func(path []group.Step, recs []host.Record) {
			g := Group{Name: group.Name(slices.Concat([]group.Step{head}, path))}
			for _, r := range recs {
				g.Hosts = append(g.Hosts, r.Host)
			}
			block.Groups = append(block.Groups, g)
		})
		blocks = append(blocks, block)
		return true
	})
	return blocks
}

func childrenBlock(records []host.Record, s Section) Block {
	tree := group.Build(records, s.Dims...)

	block := Block{Banner: s.Label}
	tree.Walk(s.HeaderDepth, func(path []group.Step, node *group.Tree) {
		g := Group{Name: group.Name(path)}
		node.Leaves(func(sub []group.Step, _ []host.Record) {
			g.Children = append(g.Children, group.Name(slices.Concat(path, sub)))
		})
		block.Groups = append(block.Groups, g)
	})
	return block
}

// Groups merges every block's groups by name, in first-seen order.
// Hosts and children keep duplicates; callers that need sets dedupe.
func (d *Document) Groups() []Group {
	var merged []Group
	index := make(map[string]int)
	for _, b := range d.Blocks {
		for _, g := range b.Groups {
			i, ok := index[g.Name]
			if !ok {
				index[g.Name] = len(merged)
				merged = append(merged, Group{
					Name:     g.Name,
					Hosts:    slices.Clone(g.Hosts),
					Children: slices.Clone(g.Children),
				})
				continue
			}
			merged[i].Hosts = append(merged[i].Hosts, g.Hosts...)
			merged[i].Children = append(merged[i].Children, g.Children...)
		}
	}
	return merged
}

// HostVars returns the variables Ansible sees for a host. The first record
// with a matching name wins.
func (d *Document) HostVars(name string) (map[string]string, bool) {
	for _, r := range d.Hosts {
		if r.Host != name {
			continue
		}
		vars := map[string]string{
			"ec2_id":      r.ID,
			"ec2_env":     r.Env,
			"ec2_service": r.Service,
		}
		if r.Region != "" {
			vars["ec2_region"] = r.Region
		}
		return vars, true
	}
	return nil, false
}
