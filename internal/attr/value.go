// Package attr defines the closed attribute value type carried on managed
// accounts and fusion identities, replacing untyped attribute bags with a
// tagged union and explicit cast rules.
package attr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindStringList
	KindNumber
	KindBool
)

// Value is a tagged union over the attribute types the connector accepts:
// string, []string, number, bool or null.
type Value struct {
	kind Kind
	str  string
	list []string
	num  float64
	b    bool
}

// Null is the zero Value.
var Null = Value{}

// String creates a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Strings creates a string-list Value.
func Strings(list []string) Value {
	return Value{kind: KindStringList, list: list}
}

// Number creates a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool creates a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the concrete kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null/absent.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsEmpty reports whether the value is null or carries no usable content
// (empty string, empty list).
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStringList:
		return len(v.list) == 0
	default:
		return false
	}
}

// AsString renders the value as a string. Lists join with a space, numbers
// use the shortest representation, null renders empty.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindStringList:
		return strings.Join(v.list, " ")
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// AsStringSlice renders the value as a string slice. Scalars become a
// single-element slice; null becomes nil.
func (v Value) AsStringSlice() []string {
	switch v.kind {
	case KindStringList:
		return v.list
	case KindNull:
		return nil
	default:
		return []string{v.AsString()}
	}
}

// AsNumber returns the numeric value, parsing strings when possible.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return n, err == nil
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsBool returns the boolean value, interpreting common string forms.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(v.str)))
		return b, err == nil
	case KindNumber:
		return v.num != 0, true
	default:
		return false, false
	}
}

// SchemaType names an account-schema attribute type used for casting.
type SchemaType string

const (
	SchemaTypeString     SchemaType = "string"
	SchemaTypeStringList SchemaType = "string[]"
	SchemaTypeNumber     SchemaType = "number"
	SchemaTypeBool       SchemaType = "boolean"
)

// Cast converts the value to the given schema type following the account
// schema casting rules: lossless where possible, string rendering otherwise.
func (v Value) Cast(t SchemaType) Value {
	switch t {
	case SchemaTypeString:
		if v.IsNull() {
			return Null
		}
		return String(v.AsString())
	case SchemaTypeStringList:
		if v.IsNull() {
			return Null
		}
		return Strings(v.AsStringSlice())
	case SchemaTypeNumber:
		if n, ok := v.AsNumber(); ok {
			return Number(n)
		}
		return Null
	case SchemaTypeBool:
		if b, ok := v.AsBool(); ok {
			return Bool(b)
		}
		return Null
	default:
		return v
	}
}

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindStringList:
		return json.Marshal(v.list)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any scalar or string-array JSON value. Arrays with
// non-string members and JSON objects are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Null
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch typed := raw.(type) {
	case string:
		*v = String(typed)
	case float64:
		*v = Number(typed)
	case bool:
		*v = Bool(typed)
	case []interface{}:
		list := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("attribute list members must be strings, got %T", item)
			}
			list = append(list, s)
		}
		*v = Strings(list)
	default:
		return fmt.Errorf("unsupported attribute value type %T", raw)
	}
	return nil
}

// Attributes is a named attribute bag keyed by attribute name.
type Attributes map[string]Value

// Get returns the value for name and whether a non-null value is present.
func (a Attributes) Get(name string) (Value, bool) {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return Null, false
	}
	return v, true
}

// GetString returns the string rendering for name, or "" when absent.
func (a Attributes) GetString(name string) string {
	v, ok := a.Get(name)
	if !ok {
		return ""
	}
	return v.AsString()
}

// GetStrings returns the string-slice rendering for name, or nil when
// absent.
func (a Attributes) GetStrings(name string) []string {
	v, ok := a.Get(name)
	if !ok {
		return nil
	}
	return v.AsStringSlice()
}

// Clone returns a shallow copy of the attribute bag.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge copies attributes from src that are absent or empty in a, returning
// the names that were filled. Existing non-empty values are never replaced.
func (a Attributes) Merge(src Attributes) []string {
	var filled []string
	for name, v := range src {
		if v.IsEmpty() {
			continue
		}
		if existing, ok := a[name]; ok && !existing.IsEmpty() {
			continue
		}
		a[name] = v
		filled = append(filled, name)
	}
	return filled
}
