package config

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDocument parses raw YAML into its node tree.
func ParseDocument(raw string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// rootMapping returns the top-level mapping of a document, or nil.
func rootMapping(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	n := doc
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = resolve(n.Content[0])
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

// ParsedToForm projects a config document (task name -> task mapping) into
// the form model. Entries that are not mappings are skipped, as are
// strategies without a remove condition.
func ParsedToForm(doc *yaml.Node) Configuration {
	out := Configuration{Tasks: []Task{}}
	root := rootMapping(doc)
	if root == nil {
		return out
	}
	for _, e := range entries(root) {
		t := e.value
		if t.Kind != yaml.MappingNode {
			continue
		}
		task := Task{
			Name:       e.key,
			Client:     NormalizeClient(scalarString(lookup(t, "client"))),
			Host:       scalarString(lookup(t, "host")),
			Username:   scalarString(lookup(t, "username")),
			Password:   scalarString(lookup(t, "password")),
			DeleteData: truthy(lookup(t, "delete_data")),
			Strategies: []Strategy{},
		}
		if strats := lookup(t, "strategies"); strats != nil && strats.Kind == yaml.MappingNode {
			for _, se := range entries(strats) {
				s := se.value
				if s.Kind != yaml.MappingNode {
					continue
				}
				remove := lookup(s, "remove")
				if remove == nil {
					continue
				}
				task.Strategies = append(task.Strategies, Strategy{
					Name:       se.key,
					Categories: categoriesString(lookup(s, "categories")),
					Remove:     scalarString(remove),
				})
			}
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out
}

// FormToDocument converts the form model back into a config document.
// Unnamed tasks and incomplete strategies are dropped; optional keys are
// only emitted when set. Later duplicates replace earlier entries in place.
func FormToDocument(cfg Configuration) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range cfg.Tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		strats := &yaml.Node{Kind: yaml.MappingNode}
		for _, s := range t.Strategies {
			sname := strings.TrimSpace(s.Name)
			remove := strings.TrimSpace(s.Remove)
			if sname == "" || remove == "" {
				continue
			}
			body := &yaml.Node{Kind: yaml.MappingNode}
			appendPair(body, "remove", strNode(remove))
			if cat := strings.TrimSpace(s.Categories); cat != "" {
				appendPair(body, "categories", strNode(cat))
			}
			setPair(strats, sname, body)
		}
		if len(strats.Content) == 0 {
			strats.Style = yaml.FlowStyle
		}

		client := strings.TrimSpace(string(t.Client))
		if client == "" {
			client = string(ClientQBittorrent)
		}
		body := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(body, "client", strNode(client))
		appendPair(body, "host", strNode(strings.TrimSpace(t.Host)))
		appendPair(body, "strategies", strats)
		if u := strings.TrimSpace(t.Username); u != "" {
			appendPair(body, "username", strNode(u))
		}
		if p := strings.TrimSpace(t.Password); p != "" {
			appendPair(body, "password", strNode(p))
		}
		if t.DeleteData {
			appendPair(body, "delete_data", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"})
		}
		setPair(root, name, body)
	}
	return root
}

// EncodeDocument serializes a node tree with two-space indentation.
func EncodeDocument(n *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

// ValidateRaw checks the structure autoremove-torrents requires before the
// raw text is written to disk.
func ValidateRaw(raw string) error {
	doc, err := ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("Invalid YAML: %v", err)
	}
	tasks := entries(rootMapping(doc))
	if len(tasks) == 0 {
		return errors.New("Config must be a non-empty YAML object (task names as keys).")
	}
	for _, e := range tasks {
		name, t := e.key, e.value
		if t.Kind != yaml.MappingNode {
			return fmt.Errorf("Task '%s' must be an object.", name)
		}
		if lookup(t, "client") == nil {
			return fmt.Errorf("Task '%s' must have 'client'.", name)
		}
		strats := lookup(t, "strategies")
		if strats == nil || strats.Kind != yaml.MappingNode {
			return fmt.Errorf("Task '%s' must have 'strategies' (object).", name)
		}
		for _, se := range entries(strats) {
			sname, s := se.key, se.value
			if s.Kind != yaml.MappingNode || lookup(s, "remove") == nil {
				return fmt.Errorf("Strategy '%s' in task '%s' must have 'remove'.", sname, name)
			}
		}
	}
	return nil
}

// maxMergeDepth bounds merge expansion of self-referencing anchors.
const maxMergeDepth = 16

// resolve follows an alias to its anchored node.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

type entry struct {
	key   string
	value *yaml.Node
}

// entries lists the pairs of a mapping with aliases resolved and "<<" merge
// keys expanded. Explicit keys override merged ones, and among merged
// mappings the earlier one wins.
func entries(m *yaml.Node) []entry {
	return mergedEntries(m, 0)
}

func mergedEntries(m *yaml.Node, depth int) []entry {
	m = resolve(m)
	if m == nil || m.Kind != yaml.MappingNode || depth > maxMergeDepth {
		return nil
	}
	var out []entry
	index := map[string]int{}
	put := func(k string, v *yaml.Node) {
		if i, ok := index[k]; ok {
			out[i].value = v
			return
		}
		index[k] = len(out)
		out = append(out, entry{key: k, value: v})
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !isMergeKey(m.Content[i]) {
			continue
		}
		src := resolve(m.Content[i+1])
		if src == nil {
			continue
		}
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		for j := len(sources) - 1; j >= 0; j-- {
			for _, e := range mergedEntries(sources[j], depth+1) {
				put(e.key, e.value)
			}
		}
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isMergeKey(m.Content[i]) {
			continue
		}
		if v := resolve(m.Content[i+1]); v != nil {
			put(m.Content[i].Value, v)
		}
	}
	return out
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && k.ShortTag() == "!!merge"
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for _, e := range entries(m) {
		if e.key == key {
			return e.value
		}
	}
	return nil
}

func appendPair(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, strNode(key), v)
}

func setPair(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	appendPair(m, key, v)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// scalarString renders a node the way the form shows it; null and false-y
// values become "".
func scalarString(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.AliasNode {
		return scalarString(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	if !truthy(n) {
		return ""
	}
	return n.Value
}

func categoriesString(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.SequenceNode {
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c = resolve(c); c != nil {
				parts = append(parts, c.Value)
			}
		}
		return strings.Join(parts, ", ")
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func truthy(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind == yaml.AliasNode {
		return truthy(n.Alias)
	}
	if n.Kind != yaml.ScalarNode {
		return len(n.Content) > 0
	}
	switch n.Tag {
	case "!!null":
		return false
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return b
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		return err != nil || f != 0
	default:
		return n.Value != ""
	}
}
