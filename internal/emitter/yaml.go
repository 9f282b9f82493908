package emitter

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/ec2inv/internal/inventory"
)

type yamlGroup struct {
	Hosts    map[string]map[string]string `yaml:"hosts,omitempty"`
	Children map[string]yamlGroup         `yaml:"children,omitempty"`
}

// YAMLEmitter writes the inventory in Ansible's YAML inventory format.
// Every group is listed flat under all.children; nesting is expressed by
// empty child references, which Ansible merges by name.
type YAMLEmitter struct {
	w io.Writer
}

// NewYAMLEmitter creates an emitter writing to w.
func NewYAMLEmitter(w io.Writer) *YAMLEmitter {
	return &YAMLEmitter{w: w}
}

// Emit encodes doc as YAML.
func (e *YAMLEmitter) Emit(_ context.Context, doc *inventory.Document) error {
	all := yamlGroup{Children: make(map[string]yamlGroup)}
	for _, g := range doc.Groups() {
		var yg yamlGroup
		if len(g.Hosts) > 0 {
			yg.Hosts = make(map[string]map[string]string, len(g.Hosts))
			for _, h := range g.Hosts {
				if _, ok := yg.Hosts[h]; ok {
					continue
				}
				vars, _ := doc.HostVars(h)
				yg.Hosts[h] = vars
			}
		}
		if len(g.Children) > 0 {
			yg.Children = make(map[string]yamlGroup, len(g.Children))
			for _, c := range g.Children {
				yg.Children[c] = yamlGroup{}
			}
		}
		all.Children[g.Name] = yg
	}

	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]yamlGroup{"all": all}); err != nil {
		return fmt.Errorf("write inventory yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush inventory yaml: %w", err)
	}
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (e *YAMLEmitter) Close() error {
	return nil
}
