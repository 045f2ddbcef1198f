package directive

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes leaves as true and branches as objects, keeping key order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tree) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	if t != nil {
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(buf, k); err != nil {
				return err
			}
			n := t.nodes[k]
			if n.IsLeaf() {
				buf.WriteString("true")
				continue
			}
			if err := n.sub.writeJSON(buf); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

// MarshalJSON encodes the table as {path: {name: [[args...]]}}, keeping order.
func (o *Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if o != nil {
		for i, path := range o.paths {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, path); err != nil {
				return nil, err
			}
			b, err := o.byPath[path].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *PathOptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if p != nil {
		for i, name := range p.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, name); err != nil {
				return nil, err
			}
			b, err := json.Marshal(p.args[name])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, k string) error {
	b, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

// MarshalYAML returns an ordered mapping node.
func (t *Tree) MarshalYAML() (any, error) {
	return t.yamlNode(), nil
}

func (t *Tree) yamlNode() *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if t == nil {
		return m
	}
	for _, k := range t.keys {
		n := t.nodes[k]
		var v *yaml.Node
		if n.IsLeaf() {
			v = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"}
		} else {
			v = n.sub.yamlNode()
		}
		m.Content = append(m.Content, strNode(k), v)
	}
	return m
}

func (o *Options) MarshalYAML() (any, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if o == nil {
		return m, nil
	}
	for _, path := range o.paths {
		m.Content = append(m.Content, strNode(path), o.byPath[path].yamlNode())
	}
	return m, nil
}

func (p *PathOptions) MarshalYAML() (any, error) {
	return p.yamlNode(), nil
}

func (p *PathOptions) yamlNode() *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if p == nil {
		return m
	}
	for _, name := range p.names {
		lists := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, args := range p.args[name] {
			seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
			for _, a := range args {
				seq.Content = append(seq.Content, strNode(a))
			}
			lists.Content = append(lists.Content, seq)
		}
		m.Content = append(m.Content, strNode(name), lists)
	}
	return m
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// MarshalJSON encodes the set as {"includes":…, "excludes":…, "options":…}.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Includes *Tree    `json:"includes"`
		Excludes *Tree    `json:"excludes"`
		Options  *Options `json:"options"`
	}{s.Includes, s.Excludes, s.Options})
}

// MarshalYAML encodes the set with the same keys as MarshalJSON.
func (s Set) MarshalYAML() (any, error) {
	opts, _ := s.Options.MarshalYAML()
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		strNode("includes"), s.Includes.yamlNode(),
		strNode("excludes"), s.Excludes.yamlNode(),
		strNode("options"), opts.(*yaml.Node),
	}}, nil
}
