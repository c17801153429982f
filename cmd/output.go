package main

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// render writes v as indented JSON or as YAML. YAML keys follow the json
// tags because the value is routed through its JSON encoding.
func render(w io.Writer, format string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "render: marshal")
	}

	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return eris.Wrap(err, "render: indent")
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return eris.Wrap(err, "render: write")
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return eris.Wrap(err, "render: parse")
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return eris.Wrap(err, "render: encode yaml")
		}
		return eris.Wrap(enc.Close(), "render: close yaml")
	default:
		return eris.Errorf("render: unsupported output format %q", format)
	}
}

// blockStyle drops the flow and quoting styles carried over from JSON.
// Scalars keep their resolved tag so strings that look like numbers are
// still quoted.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		n.Tag = n.ShortTag()
	}
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
