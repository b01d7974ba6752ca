package server

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Messages is an ordered mapping from parameter name (or symbolic key) to a
// human-readable error message. Validators accumulate into it instead of
// failing fast, so a single error response can report every problem with a
// request at once. Insertion order is preserved, including through JSON
// marshaling.
type Messages struct {
	keys  []string
	byKey map[string]string
}

// NewMessages creates an empty message set.
func NewMessages() *Messages {
	return &Messages{byKey: make(map[string]string)}
}

// Add records a message under the given key. Adding to an existing key
// replaces the message but keeps the key's original position.
func (m *Messages) Add(key, message string) *Messages {
	if _, exists := m.byKey[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.byKey[key] = message
	return m
}

// Get returns the message stored under key.
func (m *Messages) Get(key string) (string, bool) {
	message, ok := m.byKey[key]
	return message, ok
}

// Len returns the number of keyed messages.
func (m *Messages) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Messages) Keys() []string {
	return append([]string(nil), m.keys...)
}

// MarshalJSON renders the set as a JSON object whose members appear in
// insertion order.
func (m *Messages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.byKey[key])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the set as "key: message" pairs for error text and logs.
func (m *Messages) String() string {
	var buf bytes.Buffer
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteString("; ")
		}
		fmt.Fprintf(&buf, "%s: %s", key, m.byKey[key])
	}
	return buf.String()
}
