package specdoc

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   string
	Value *yaml.Node
}

// resolve follows document and alias nodes to the node they stand for.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// IsMapping reports whether n is (or aliases) a mapping node.
func IsMapping(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// Pairs returns the entries of a mapping node in declared order. Merge keys
// ("<<") are skipped. Non-mapping nodes yield nil.
func Pairs(n *yaml.Node) []Pair {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]Pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := resolve(n.Content[i])
		if k == nil || k.Kind != yaml.ScalarNode || k.Tag == "!!merge" {
			continue
		}
		pairs = append(pairs, Pair{Key: k.Value, Value: n.Content[i+1]})
	}
	return pairs
}

// Lookup returns the value stored under key in a mapping node, or nil.
// When a key repeats, the last occurrence wins.
func Lookup(n *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	for _, p := range Pairs(n) {
		if p.Key == key {
			found = p.Value
		}
	}
	return resolve(found)
}

// Items returns the elements of a sequence node.
func Items(n *yaml.Node) []*yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		if c = resolve(c); c != nil {
			items = append(items, c)
		}
	}
	return items
}

// Scalar returns the text of a scalar node. Missing, null, and non-scalar
// nodes give "".
func Scalar(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

// LookupString is Scalar(Lookup(n, key)).
func LookupString(n *yaml.Node, key string) string {
	return Scalar(Lookup(n, key))
}

// ToValue converts a node tree into plain Go values that encoding/json can
// marshal: map[string]any, []any, string, bool, json.Number and nil.
// Mapping keys are always strings, so numeric response codes such as 200
// survive the round trip. Numbers keep their source text, so "1.10" does
// not become 1.1. Aliases are expanded, and ErrTooManyNodes is returned
// once the expanded tree passes MaxValueNodes.
func ToValue(n *yaml.Node) (any, error) {
	c := &converter{budget: MaxValueNodes}
	v := c.value(n, 0)
	if c.budget < 0 {
		return nil, ErrTooManyNodes
	}
	return v, nil
}

// MaxValueNodes caps the number of nodes a document may expand to.
const MaxValueNodes = 1 << 20

const maxDepth = 256

type converter struct {
	budget int
}

func (c *converter) value(n *yaml.Node, depth int) any {
	n = resolve(n)
	if n == nil || depth > maxDepth {
		return nil
	}
	if c.budget--; c.budget < 0 {
		return nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for _, p := range Pairs(n) {
			m[p.Key] = c.value(p.Value, depth+1)
			if c.budget < 0 {
				return nil
			}
		}
		return m
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, c.value(item, depth+1))
			if c.budget < 0 {
				return nil
			}
		}
		return items
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return nil
}

// jsonNumber matches the JSON number grammar.
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func scalarValue(n *yaml.Node) any {
	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int", "!!float":
		if jsonNumber.MatchString(n.Value) {
			return json.Number(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return n.Value
}
