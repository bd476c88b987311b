package harness

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// nodeValue converts an authored YAML node into plain Go values that
// canonical.FromAny understands. Maps keep their keys as written, so a
// non-text key reaches the encoder and fails there.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, fmt.Errorf("line %d: document must hold one value", n.Line)
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[any]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := nodeValue(n.Content[i])
			if err != nil {
				return nil, err
			}
			switch key.(type) {
			case []any, map[any]any, []byte:
				return nil, fmt.Errorf("line %d: %w: %T", n.Content[i].Line, canonical.ErrNonTextKey, key)
			}
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %v", n.Content[i].Line, key)
			}
			val, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	}
	return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!binary":
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid !!binary: %w", n.Line, err)
		}
		return data, nil
	case "!!int":
		return intValue(n)
	case "!!timestamp":
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

// intValue keeps integers outside 64 bits as big.Int so the encoder, not
// the loader, reports them.
func intValue(n *yaml.Node) (any, error) {
	text := strings.ReplaceAll(n.Value, "_", "")
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(text, 0, 64); err == nil {
		return u, nil
	}
	b, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return nil, fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
	}
	return b, nil
}
