package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderSet is an ordered map of provider entries. Document order is kept
// through decoding and encoding so that "first provider" is stable.
type ProviderSet struct {
	keys    []string
	entries map[string]ProviderEntry
}

// Set inserts or replaces the entry for key. A replaced entry keeps its
// position.
func (s *ProviderSet) Set(key string, entry ProviderEntry) {
	if s.entries == nil {
		s.entries = make(map[string]ProviderEntry)
	}
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = entry
}

// Get returns the entry for key.
func (s ProviderSet) Get(key string) (ProviderEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Delete removes key.
func (s *ProviderSet) Delete(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}

// Keys returns the provider names in document order.
func (s ProviderSet) Keys() []string { return slices.Clone(s.keys) }

// Len returns the number of entries.
func (s ProviderSet) Len() int { return len(s.keys) }

// Entries returns the entries in document order.
func (s ProviderSet) Entries() []ProviderEntry {
	out := make([]ProviderEntry, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}

// Clone returns a deep copy.
func (s ProviderSet) Clone() ProviderSet {
	var out ProviderSet
	for _, k := range s.keys {
		e := s.entries[k]
		e.Models = slices.Clone(e.Models)
		out.Set(k, e)
	}
	return out
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (s *ProviderSet) UnmarshalJSON(data []byte) error {
	*s = ProviderSet{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("config: Providers must be an object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("config: expected a provider name, got %v", tok)
		}
		var entry ProviderEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("provider %q: %w", key, err)
		}
		s.Set(key, entry)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the set as a JSON object in document order.
func (s ProviderSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping keeping key order.
func (s *ProviderSet) UnmarshalYAML(node *yaml.Node) error {
	*s = ProviderSet{}
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: config: Providers must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var entry ProviderEntry
		if err := valueNode.Decode(&entry); err != nil {
			return fmt.Errorf("provider %q: %w", keyNode.Value, err)
		}
		s.Set(keyNode.Value, entry)
	}
	return nil
}

// MarshalYAML encodes the set as a YAML mapping in document order.
func (s ProviderSet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range s.keys {
		value := &yaml.Node{}
		if err := value.Encode(s.entries[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			value,
		)
	}
	return node, nil
}

// UnmarshalJSON accepts "45s" style strings and numbers of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.parse(s)
	}
	secs, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", text)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalYAML accepts "45s" style strings and numbers of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil && node.Tag != "!!str" {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(node.Value)
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
