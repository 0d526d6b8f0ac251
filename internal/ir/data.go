package ir

import (
	"github.com/zclconf/go-cty/cty"
)

// Field is one resolved key/value pair. Source records where the value
// came from: "" for an explicit entry, "prose" for a value found in step
// text, or "fixture:<Name>".
type Field struct {
	Key    string
	Value  cty.Value
	Source string
}

// Data is an ordered set of fields with unique keys.
type Data []Field

// Lookup returns the value stored under key.
func (d Data) Lookup(key string) (cty.Value, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return cty.NilVal, false
}

// Has reports whether key is present.
func (d Data) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Keys returns the keys in order.
func (d Data) Keys() []string {
	keys := make([]string, len(d))
	for i, f := range d {
		keys[i] = f.Key
	}
	return keys
}

// Set returns d with f stored, replacing an existing field of the same key
// in place.
func (d Data) Set(f Field) Data {
	for i := range d {
		if d[i].Key == f.Key {
			out := append(Data(nil), d...)
			out[i] = f
			return out
		}
	}
	return append(append(Data(nil), d...), f)
}

// Merge returns d overlaid with over. Keys of over win; keys only in d keep
// their position and new keys are appended.
func (d Data) Merge(over Data) Data {
	out := append(Data(nil), d...)
	for _, f := range over {
		out = out.Set(f)
	}
	return out
}
