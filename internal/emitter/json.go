package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yairfalse/ec2inv/internal/inventory"
)

type jsonGroup struct {
	Hosts    []string `json:"hosts,omitempty"`
	Children []string `json:"children,omitempty"`
}

type jsonMeta struct {
	HostVars map[string]map[string]string `json:"hostvars"`
}

// JSONEmitter writes the dynamic inventory JSON Ansible reads from --list.
type JSONEmitter struct {
	w io.Writer
}

// NewJSONEmitter creates an emitter writing to w.
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{w: w}
}

// Emit writes every group plus _meta.hostvars so Ansible skips per-host calls.
func (e *JSONEmitter) Emit(_ context.Context, doc *inventory.Document) error {
	out := make(map[string]any)
	for _, g := range doc.Groups() {
		out[g.Name] = jsonGroup{
			Hosts:    dedupe(g.Hosts),
			Children: dedupe(g.Children),
		}
	}

	meta := jsonMeta{HostVars: make(map[string]map[string]string)}
	for _, r := range doc.Hosts {
		if _, ok := meta.HostVars[r.Host]; ok {
			continue
		}
		vars, _ := doc.HostVars(r.Host)
		meta.HostVars[r.Host] = vars
	}
	out["_meta"] = meta

	return writeJSON(e.w, out)
}

// Close is a no-op; the writer belongs to the caller.
func (e *JSONEmitter) Close() error {
	return nil
}

// HostEmitter writes the variables of one host, as Ansible expects from
// --host. Unknown hosts produce an empty object.
type HostEmitter struct {
	w    io.Writer
	name string
}

// NewHostEmitter creates an emitter for the named host.
func NewHostEmitter(w io.Writer, name string) *HostEmitter {
	return &HostEmitter{w: w, name: name}
}

// Emit writes the host's variables.
func (e *HostEmitter) Emit(_ context.Context, doc *inventory.Document) error {
	vars, ok := doc.HostVars(e.name)
	if !ok {
		vars = map[string]string{}
	}
	return writeJSON(e.w, vars)
}

// Close is a no-op; the writer belongs to the caller.
func (e *HostEmitter) Close() error {
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write inventory json: %w", err)
	}
	return nil
}
