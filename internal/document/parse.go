package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrSyntax wraps every decoding failure reported by ParseYAML and ParseJSON.
var ErrSyntax = errors.New("document syntax error")

const mergeKey = "<<"

// ParseYAML decodes the first YAML document in data. Key order is preserved and
// anchors, aliases and merge keys are resolved. An empty document yields nil.
func ParseYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	d := &nodeDecoder{budget: nodeBudget(len(data))}
	return d.fromNode(root.Content[0], 0)
}

const (
	// maxDepth bounds alias expansion so self-referencing anchors cannot recurse forever.
	maxDepth = 256
	// minNodeBudget and nodesPerByte cap the expanded document size, so nested
	// aliases cannot multiply a small file into an unbounded tree.
	minNodeBudget = 100_000
	nodesPerByte  = 10
)

// ErrTooManyNodes is wrapped (with ErrSyntax) when alias expansion exceeds the node budget.
var ErrTooManyNodes = errors.New("document expands to too many nodes")

func nodeBudget(size int) int {
	return max(minNodeBudget, size*nodesPerByte)
}

type nodeDecoder struct {
	nodes  int
	budget int
}

func (d *nodeDecoder) fromNode(n *yaml.Node, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d levels at line %d", ErrSyntax, maxDepth, n.Line)
	}
	d.nodes++
	if d.nodes > d.budget {
		return nil, fmt.Errorf("%w: %w (limit %d) at line %d", ErrSyntax, ErrTooManyNodes, d.budget, n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.fromNode(n.Content[0], depth+1)
	case yaml.AliasNode:
		return d.fromNode(n.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.fromNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		return d.mappingFromNode(n, depth)
	case yaml.ScalarNode:
		return scalarFromNode(n), nil
	default:
		return nil, fmt.Errorf("%w: unsupported node kind %d at line %d", ErrSyntax, n.Kind, n.Line)
	}
}

func (d *nodeDecoder) mappingFromNode(n *yaml.Node, depth int) (*Map, error) {
	m := NewMap()
	var merged []*Map
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		v, err := d.fromNode(vn, depth+1)
		if err != nil {
			return nil, err
		}
		if k.Kind == yaml.ScalarNode && k.Value == mergeKey && k.ShortTag() == "!!merge" {
			switch t := v.(type) {
			case *Map:
				merged = append(merged, t)
			case []any:
				merged = append(merged, Maps(t)...)
			}
			continue
		}
		m.Set(keyString(k), v)
	}
	// Explicit keys win over merged ones.
	for _, src := range merged {
		for _, e := range src.Entries() {
			if !m.Has(e.Key) {
				m.Set(e.Key, e.Value)
			}
		}
	}
	return m, nil
}

func keyString(k *yaml.Node) string {
	if k.Kind == yaml.AliasNode && k.Alias != nil {
		k = k.Alias
	}
	if k.Kind == yaml.ScalarNode {
		return k.Value
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	_ = enc.Encode(k)
	_ = enc.Close()
	return string(bytes.TrimSpace(buf.Bytes()))
}

func scalarFromNode(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f
		}
	}
	return n.Value
}

// ParseJSON decodes a single JSON value keeping object key order. Numbers are
// kept as json.Number so re-encoding reproduces their literal form.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrSyntax)
	}
	return v, nil
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return t, nil
	}
}

func readObject(dec *json.Decoder) (*Map, error) {
	m := NewMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func readArray(dec *json.Decoder) ([]any, error) {
	items := make([]any, 0)
	for dec.More() {
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}
