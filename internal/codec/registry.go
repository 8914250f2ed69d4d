// registry.go
//
// A data model description and method invocation service for the jam-build data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-datamodel.
// jam-build-datamodel is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-datamodel is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-datamodel.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package codec maps Go types to named encode/decode pairs so that arbitrary
// values, entity references included, can travel through a wire payload.
//
// A Registry is created once at process start, filled during the registration
// phase and read concurrently afterwards. Registered values are wrapped in an
// envelope {"$type": name, "$value": inner}; primitives, lists and string-keyed
// maps are carried structurally.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Envelope keys
const (
	TypeKey  = "$type"
	ValueKey = "$value"
)

// ErrUnregisteredType is wrapped by every UnregisteredTypeError.
var ErrUnregisteredType = errors.New("unregistered type")

// UnregisteredTypeError reports a value or a type tag with no codec.
type UnregisteredTypeError struct {
	Name string
}

func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("no codec registered for %s", e.Name)
}

// Unwrap exposes ErrUnregisteredType to errors.Is.
func (e *UnregisteredTypeError) Unwrap() error {
	return ErrUnregisteredType
}

// Kind names the failure for client-facing messages.
func (e *UnregisteredTypeError) Kind() string {
	return "UnregisteredType"
}

// EncodeFunc turns a value of the codec's type into a wire-representable value.
type EncodeFunc func(v any) (any, error)

// DecodeFunc turns the inner wire value of an envelope back into a value.
type DecodeFunc func(ctx context.Context, v any) (any, error)

// Codec is one registration.
type Codec struct {
	Name   string
	Type   reflect.Type
	Encode EncodeFunc
	Decode DecodeFunc
}

// Options holds the global serialization policy.
type Options struct {
	// SerializeNaively encodes unregistered structs through a JSON round trip
	// instead of failing.
	SerializeNaively bool
	// RaiseLoadErrors fails decoding of unknown type tags. When false the inner
	// value is returned as is.
	RaiseLoadErrors bool
}

// Registry holds the codecs by name and by type.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Codec
	byType map[reflect.Type]*Codec
	opts   Options
}

// NewRegistry creates a registry with the built-in codecs installed.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		byName: make(map[string]*Codec),
		byType: make(map[reflect.Type]*Codec),
		opts:   opts,
	}
	registerBuiltins(r)
	return r
}

// Options returns the serialization policy the registry was built with.
func (r *Registry) Options() Options {
	return r.opts
}

// Register installs a codec under name. A later registration for the same name
// replaces the earlier one.
func (r *Registry) Register(name string, typ reflect.Type, enc EncodeFunc, dec DecodeFunc) {
	c := &Codec{Name: name, Type: typ, Encode: enc, Decode: dec}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byName[name]; ok && r.byType[prev.Type] == prev {
		delete(r.byType, prev.Type)
	}
	r.byName[name] = c
	r.byType[typ] = c
}

// Lookup returns the codec registered under name.
func (r *Registry) Lookup(name string) (*Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// LookupType returns the codec registered for typ.
func (r *Registry) LookupType(typ reflect.Type) (*Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[typ]
	return c, ok
}

// Encode converts v into its wire form.
func (r *Registry) Encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return r.encodeValue(reflect.ValueOf(v))
}

func (r *Registry) encodeValue(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	if c, ok := r.LookupType(rv.Type()); ok {
		return r.envelope(c, rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		if c, ok := r.LookupType(rv.Type().Elem()); ok {
			return r.envelope(c, rv.Elem().Interface())
		}
		return r.encodeValue(rv.Elem())
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return r.encodeValue(rv.Elem())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
		return r.encodeList(rv)
	case reflect.Array:
		return r.encodeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				item, err := r.encodeValue(iter.Value())
				if err != nil {
					return nil, err
				}
				out[iter.Key().String()] = item
			}
			return out, nil
		}
		c, _ := r.Lookup(MapCodec)
		return r.envelope(c, rv.Interface())
	case reflect.Struct:
		if r.opts.SerializeNaively {
			return naive(rv.Interface())
		}
	}

	return nil, &UnregisteredTypeError{Name: rv.Type().String()}
}

func (r *Registry) encodeList(rv reflect.Value) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		item, err := r.encodeValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

func (r *Registry) envelope(c *Codec, v any) (any, error) {
	inner, err := c.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name, err)
	}
	wire, err := r.encodeValue(reflect.ValueOf(inner))
	if err != nil {
		return nil, err
	}
	return map[string]any{TypeKey: c.Name, ValueKey: wire}, nil
}

// naive encodes through a JSON round trip, dropping all type information.
func naive(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("naive encode %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("naive encode %T: %w", v, err)
	}
	return out, nil
}

// Decode converts a wire value back into Go values, dispatching envelopes to
// their codecs.
func (r *Registry) Decode(ctx context.Context, wire any) (any, error) {
	switch w := wire.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if name, ok := w[TypeKey].(string); ok {
			return r.decodeEnvelope(ctx, name, w[ValueKey])
		}
		out := make(map[string]any, len(w))
		for k, v := range w {
			item, err := r.Decode(ctx, v)
			if err != nil {
				return nil, err
			}
			out[k] = item
		}
		return out, nil
	case map[any]any:
		m := make(map[string]any, len(w))
		for k, v := range w {
			m[fmt.Sprint(k)] = v
		}
		return r.Decode(ctx, m)
	case []any:
		out := make([]any, len(w))
		for i, v := range w {
			item, err := r.Decode(ctx, v)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	default:
		return w, nil
	}
}

func (r *Registry) decodeEnvelope(ctx context.Context, name string, inner any) (any, error) {
	c, ok := r.Lookup(name)
	if !ok {
		if r.opts.RaiseLoadErrors {
			return nil, &UnregisteredTypeError{Name: name}
		}
		return r.Decode(ctx, inner)
	}
	v, err := c.Decode(ctx, inner)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}
