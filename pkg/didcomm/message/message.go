/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message provides the generic DIDComm message model used by the protocol test suite.
//
// A Message is a JSON object kept as a map so that tests can observe exactly what the agent under
// test sent, including fields the suite does not know about. Typed views are obtained with Decode.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

const (
	// FieldType is the message type key.
	FieldType = "@type"
	// FieldID is the message identifier key.
	FieldID = "@id"
	// FieldThread is the thread decorator key.
	FieldThread = "~thread"

	threadIDKey = "thid"
	// DecoratorPrefix prefixes every decorator key.
	DecoratorPrefix = "~"
)

// ErrKeyNotFound is returned when a message does not carry the requested key.
var ErrKeyNotFound = errors.New("key not found")

// Context holds transport level facts about an inbound message.
type Context struct {
	// SenderKey is the verkey the envelope was authenticated with, empty for anoncrypt or plaintext.
	SenderKey string
	// RecipientKey is the local verkey the envelope was encrypted to.
	RecipientKey string
	// Packed tells whether the message arrived in an encrypted envelope.
	Packed bool
}

// Message is a DIDComm message.
type Message struct {
	fields  map[string]interface{}
	context *Context
}

// New creates a message from a struct or a map. A fresh @id is assigned when the source has a @type
// but no @id.
func New(v interface{}) (Message, error) {
	m, err := fromValue(v)
	if err != nil {
		return Message{}, err
	}

	if _, ok := m.fields[FieldType]; ok {
		if _, ok := m.fields[FieldID]; !ok {
			m.fields[FieldID] = uuid.New().String()
		}
	}

	return m, nil
}

// NewWithoutID creates a message from a struct or a map without assigning an identifier.
func NewWithoutID(v interface{}) (Message, error) {
	return fromValue(v)
}

// Parse creates a message from its JSON form.
func Parse(data []byte) (Message, error) {
	var fields map[string]interface{}

	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}

	if fields == nil {
		return Message{}, errors.New("parse message: not a JSON object")
	}

	return Message{fields: fields}, nil
}

func fromValue(v interface{}) (Message, error) {
	if m, ok := v.(Message); ok {
		return m.Clone(), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("marshal message: %w", err)
	}

	return Parse(raw)
}

// Type returns the message type or an empty string.
func (m Message) Type() string {
	s, _ := m.fields[FieldType].(string) // nolint: errcheck

	return s
}

// ID returns the message identifier or an empty string.
func (m Message) ID() string {
	s, _ := m.fields[FieldID].(string) // nolint: errcheck

	return s
}

// ThreadID returns the ~thread.thid value or an empty string.
func (m Message) ThreadID() string {
	thread, ok := m.fields[FieldThread].(map[string]interface{})
	if !ok {
		return ""
	}

	s, _ := thread[threadIDKey].(string) // nolint: errcheck

	return s
}

// Has reports whether key is present.
func (m Message) Has(key string) bool {
	_, ok := m.fields[key]

	return ok
}

// Get returns the raw value of a top level key.
func (m Message) Get(key string) (interface{}, error) {
	v, ok := m.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return v, nil
}

// String returns a top level string value.
func (m Message) String(key string) (string, error) {
	v, err := m.Get(key)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is %T, not a string", key, v)
	}

	return s, nil
}

// Object returns a top level object value.
func (m Message) Object(key string) (map[string]interface{}, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}

	o, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s is %T, not an object", key, v)
	}

	return o, nil
}

// Path evaluates a JSONPath expression (for example `$.connection.DIDDoc.service[0].serviceEndpoint`)
// against the message.
func (m Message) Path(expr string) (interface{}, error) {
	v, err := jsonpath.Get(expr, m.fields)
	if err != nil {
		if strings.Contains(err.Error(), "unknown key") || strings.Contains(err.Error(), "out of bounds") {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, expr)
		}

		return nil, fmt.Errorf("evaluate %s: %w", expr, err)
	}

	return v, nil
}

// PathString evaluates a JSONPath expression that must yield a string.
func (m Message) PathString(expr string) (string, error) {
	v, err := m.Path(expr)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is %T, not a string", expr, v)
	}

	return s, nil
}

// Set sets a top level key.
func (m Message) Set(key string, value interface{}) {
	m.fields[key] = value
}

// Delete removes a top level key.
func (m Message) Delete(key string) {
	delete(m.fields, key)
}

// Keys returns the top level keys.
func (m Message) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}

	return keys
}

// Map exposes the underlying fields. Changes are visible through the message.
func (m Message) Map() map[string]interface{} {
	return m.fields
}

// IsZero reports whether the message was never initialised.
func (m Message) IsZero() bool {
	return m.fields == nil
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	return Message{fields: deepCopy(m.fields).(map[string]interface{}), context: m.context}
}

// Context returns transport details of an inbound message. It is never nil.
func (m Message) Context() *Context {
	if m.context == nil {
		return &Context{}
	}

	return m.context
}

// WithContext returns the message annotated with transport details.
func (m Message) WithContext(c *Context) Message {
	m.context = c

	return m
}

// Decode decodes the message into a typed struct using its json tags.
func (m Message) Decode(v interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: v})
	if err != nil {
		return fmt.Errorf("failed to initialize decoder : %w", err)
	}

	if err = decoder.Decode(m.fields); err != nil {
		return fmt.Errorf("decode %s: %w", m.Type(), err)
	}

	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Pretty returns an indented JSON rendering, used in failure reports.
func (m Message) Pretty() string {
	b, err := json.MarshalIndent(m.fields, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", m.fields)
	}

	return string(b)
}

func deepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}

		return out
	default:
		return v
	}
}
