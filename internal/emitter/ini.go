package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yairfalse/ec2inv/internal/group"
	"github.com/yairfalse/ec2inv/internal/inventory"
)

// INIEmitter writes the Ansible INI inventory text.
type INIEmitter struct {
	w io.Writer
}

// NewINIEmitter creates an emitter writing to w.
func NewINIEmitter(w io.Writer) *INIEmitter {
	return &INIEmitter{w: w}
}

// Emit renders doc and writes it in one call.
func (e *INIEmitter) Emit(_ context.Context, doc *inventory.Document) error {
	var buf bytes.Buffer

	buf.WriteString(doc.Banner + "\n")
	for _, c := range doc.Counts {
		counts, err := countJSON(c.Counts)
		if err != nil {
			return fmt.Errorf("encode %s counts: %w", c.Label, err)
		}
		fmt.Fprintf(&buf, "## %s: %s\n", c.Label, counts)
	}
	if len(doc.Missing) > 0 {
		fmt.Fprintf(&buf, "## Missing regions: %s\n", strings.Join(doc.Missing, ", "))
	}
	buf.WriteString("\n")

	for _, b := range doc.Blocks {
		fmt.Fprintf(&buf, "## %s ##\n", b.Banner)
		for _, g := range b.Groups {
			if g.Children != nil {
				fmt.Fprintf(&buf, "[%s:children]\n", g.Name)
				for _, c := range g.Children {
					buf.WriteString(c + "\n")
				}
			} else {
				fmt.Fprintf(&buf, "[%s]\n", g.Name)
				for _, h := range g.Hosts {
					buf.WriteString(h + "\n")
				}
			}
			buf.WriteString("\n")
		}
	}

	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (e *INIEmitter) Close() error {
	return nil
}

// countJSON encodes counts as a compact object with sorted keys.
func countJSON(c group.Counts) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]int(c)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
