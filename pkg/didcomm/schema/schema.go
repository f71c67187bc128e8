/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package schema validates the exact shape of DIDComm messages.
//
// Schemas are small trees of nodes (Literal, TypeOf, ListOf, Object, Transform, All, Enum). Validation
// is total: every violation found in the value is reported, not only the first one. Transform nodes may
// normalise values, and the normalised value is written back into the enclosing object or list so
// that code reading the message after validation observes it.
package schema

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-protocol-test-suite-go/pkg/didcomm/message"
)

// ErrSchemaViolation is matched by every validation failure.
var ErrSchemaViolation = errors.New("schema violation")

// Kind is a JSON value category accepted by TypeOf.
type Kind int

// Kinds.
const (
	Any Kind = iota
	String
	Int
	Bool
	Object
	List
	Bytes
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Object:
		return "object"
	case List:
		return "list"
	case Bytes:
		return "base64 bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Schema is a node of a schema tree.
type Schema interface {
	validate(v interface{}, path string, st *state) interface{}
	describe() string
}

// Violation is a single mismatch between a value and its schema.
type Violation struct {
	Path     string
	Expected string
	Actual   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", v.Path, v.Expected, v.Actual)
}

// ViolationError lists every violation found during one validation.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}

	return fmt.Sprintf("%s: %s", ErrSchemaViolation, strings.Join(parts, "; "))
}

// Unwrap makes errors.Is(err, ErrSchemaViolation) hold.
func (e *ViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// Option configures a validation.
type Option func(*state)

// WithWarnings reports keys accepted by a warning catch-all.
func WithWarnings(fn func(string)) Option {
	return func(s *state) {
		s.warn = fn
	}
}

type state struct {
	violations []Violation
	warn       func(string)
}

func (s *state) fail(path, expected string, actual interface{}) {
	s.violations = append(s.violations, Violation{Path: path, Expected: expected, Actual: describeValue(actual)})
}

// Validate checks v against s and returns the possibly transformed value.
func Validate(s Schema, v interface{}, opts ...Option) (interface{}, error) {
	st := &state{}

	for _, opt := range opts {
		opt(st)
	}

	out := s.validate(v, "$", st)

	if len(st.violations) > 0 {
		return nil, &ViolationError{Violations: st.violations}
	}

	return out, nil
}

// ValidateMessage validates a message. Transformed values are written into the message itself.
func ValidateMessage(s Schema, msg message.Message, opts ...Option) (message.Message, error) {
	if msg.IsZero() {
		return msg, &ViolationError{Violations: []Violation{{Path: "$", Expected: s.describe(), Actual: "nothing"}}}
	}

	if _, err := Validate(s, msg.Map(), opts...); err != nil {
		return msg, fmt.Errorf("%s: %w", msg.Type(), err)
	}

	return msg, nil
}

type literal struct {
	value interface{}
}

// Literal matches exactly one value.
func Literal(v interface{}) Schema {
	return &literal{value: v}
}

func (l *literal) validate(v interface{}, path string, st *state) interface{} {
	if !equal(l.value, v) {
		st.fail(path, l.describe(), v)
	}

	return v
}

func (l *literal) describe() string {
	return fmt.Sprintf("%#v", l.value)
}

type typeOf struct {
	kind Kind
}

// TypeOf matches any value of the given kind.
func TypeOf(k Kind) Schema {
	return &typeOf{kind: k}
}

func (t *typeOf) validate(v interface{}, path string, st *state) interface{} {
	if !isKind(t.kind, v) {
		st.fail(path, t.describe(), v)
	}

	return v
}

func (t *typeOf) describe() string {
	return t.kind.String()
}

func isKind(k Kind, v interface{}) bool {
	switch k {
	case Any:
		return true
	case String:
		_, ok := v.(string)

		return ok
	case Int:
		f, ok := toFloat(v)

		return ok && f == math.Trunc(f)
	case Bool:
		_, ok := v.(bool)

		return ok
	case Object:
		_, ok := v.(map[string]interface{})

		return ok
	case List:
		_, ok := v.([]interface{})

		return ok
	case Bytes:
		s, ok := v.(string)
		if !ok {
			return false
		}

		return decodesBase64(s)
	default:
		return false
	}
}

func decodesBase64(s string) bool {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding,
	} {
		if _, err := enc.DecodeString(s); err == nil {
			return true
		}
	}

	return false
}

type listOf struct {
	elem Schema
}

// ListOf matches a list whose every element matches elem.
func ListOf(elem Schema) Schema {
	return &listOf{elem: elem}
}

func (l *listOf) validate(v interface{}, path string, st *state) interface{} {
	list, ok := v.([]interface{})
	if !ok {
		st.fail(path, l.describe(), v)

		return v
	}

	for i, e := range list {
		list[i] = l.elem.validate(e, fmt.Sprintf("%s[%d]", path, i), st)
	}

	return list
}

func (l *listOf) describe() string {
	return "list of " + l.elem.describe()
}

// KeyMatcher selects the keys a CatchAll applies to.
type KeyMatcher func(key string) bool

// AnyKey matches every key.
func AnyKey(string) bool {
	return true
}

// KeyPrefix matches keys starting with prefix.
func KeyPrefix(prefix string) KeyMatcher {
	return func(key string) bool {
		return strings.HasPrefix(key, prefix)
	}
}

// CatchAll accepts keys not named by an Object.
type CatchAll struct {
	Match KeyMatcher
	Value Schema
	// Warn reports every accepted key through WithWarnings.
	Warn bool
}

// ObjectSchema matches a JSON object with named required and optional keys. Keys not named are
// rejected unless matched by one of the catch-alls.
type ObjectSchema struct {
	Required  map[string]Schema
	Optional  map[string]Schema
	CatchAlls []CatchAll
}

func (o *ObjectSchema) validate(v interface{}, path string, st *state) interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		st.fail(path, "object", v)

		return v
	}

	required := maps.Keys(o.Required)
	slices.Sort(required)

	for _, k := range required {
		val, present := obj[k]
		if !present {
			st.violations = append(st.violations, Violation{Path: keyPath(path, k), Expected: o.Required[k].describe(),
				Actual: "missing key"})

			continue
		}

		obj[k] = o.Required[k].validate(val, keyPath(path, k), st)
	}

	present := maps.Keys(obj)
	slices.Sort(present)

	for _, k := range present {
		if _, ok := o.Required[k]; ok {
			continue
		}

		if s, ok := o.Optional[k]; ok {
			obj[k] = s.validate(obj[k], keyPath(path, k), st)

			continue
		}

		catchAll := o.match(k)
		if catchAll == nil {
			st.violations = append(st.violations, Violation{Path: keyPath(path, k), Expected: "no such key",
				Actual: "unexpected key"})

			continue
		}

		obj[k] = catchAll.Value.validate(obj[k], keyPath(path, k), st)

		if catchAll.Warn && st.warn != nil {
			st.warn(fmt.Sprintf("unexpected key %s", keyPath(path, k)))
		}
	}

	return obj
}

func (o *ObjectSchema) match(key string) *CatchAll {
	for i := range o.CatchAlls {
		if o.CatchAlls[i].Match(key) {
			return &o.CatchAlls[i]
		}
	}

	return nil
}

func (o *ObjectSchema) describe() string {
	keys := maps.Keys(o.Required)
	slices.Sort(keys)

	return fmt.Sprintf("object with keys %v", keys)
}

func keyPath(path, key string) string {
	return path + "." + key
}

// TransformFunc normalises a value or rejects it.
type TransformFunc func(interface{}) (interface{}, error)

type transform struct {
	fn TransformFunc
}

// Transform replaces the value with the result of fn.
func Transform(fn TransformFunc) Schema {
	return &transform{fn: fn}
}

func (t *transform) validate(v interface{}, path string, st *state) interface{} {
	out, err := t.fn(v)
	if err != nil {
		st.violations = append(st.violations, Violation{Path: path, Expected: t.describe(), Actual: err.Error()})

		return v
	}

	return out
}

func (t *transform) describe() string {
	return "transformable value"
}

type all struct {
	schemas []Schema
}

// All applies each schema in order, feeding each one the output of the previous. It stops at the first
// schema that reports a violation.
func All(schemas ...Schema) Schema {
	return &all{schemas: schemas}
}

func (a *all) validate(v interface{}, path string, st *state) interface{} {
	for _, s := range a.schemas {
		before := len(st.violations)

		v = s.validate(v, path, st)

		if len(st.violations) > before {
			break
		}
	}

	return v
}

func (a *all) describe() string {
	parts := make([]string, len(a.schemas))
	for i, s := range a.schemas {
		parts[i] = s.describe()
	}

	return strings.Join(parts, " and ")
}

type enum struct {
	values []interface{}
}

// Enum matches any of the given values.
func Enum(values ...interface{}) Schema {
	return &enum{values: values}
}

func (e *enum) validate(v interface{}, path string, st *state) interface{} {
	for _, want := range e.values {
		if equal(want, v) {
			return v
		}
	}

	st.fail(path, e.describe(), v)

	return v
}

func (e *enum) describe() string {
	parts := make([]string, len(e.values))
	for i, v := range e.values {
		parts[i] = fmt.Sprintf("%#v", v)
	}

	return "one of " + strings.Join(parts, ", ")
}

// Lower lowercases a string value.
func Lower() Schema {
	return Transform(func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s is not a string", describeValue(v))
		}

		return strings.ToLower(s), nil
	})
}

func equal(a, b interface{}) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)

	if aNum || bNum {
		return aNum && bNum && fa == fb
	}

	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func describeValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", t)
	case bool:
		return fmt.Sprintf("bool %t", t)
	case map[string]interface{}:
		keys := maps.Keys(t)
		slices.Sort(keys)

		return fmt.Sprintf("object with keys %v", keys)
	case []interface{}:
		return fmt.Sprintf("list of %d", len(t))
	default:
		if f, ok := toFloat(v); ok {
			return fmt.Sprintf("number %v", f)
		}

		return fmt.Sprintf("%T", v)
	}
}
