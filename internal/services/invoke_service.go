// invoke_service.go
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

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"sort"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

var invocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "datamodel_invocations_total",
	Help: "Method and property invocations by collection, target and outcome.",
}, []string{"collection", "target", "outcome"})

// CommitOutcome reports what happened to the invocation's transaction
type CommitOutcome int

const (
	CommitSkipped CommitOutcome = iota
	Committed
	CommitFailedIgnored
)

func (c CommitOutcome) String() string {
	switch c {
	case Committed:
		return "committed"
	case CommitFailedIgnored:
		return "commit_failed_ignored"
	}
	return "skipped"
}

// Result is a completed invocation. Found is false when the instance does
// not exist, which is not an error.
type Result struct {
	Found   bool
	Payload string
	Commit  CommitOutcome
}

// InvocationError is an invocation failure reported to the client
type InvocationError struct {
	Kind    string
	Message string
	Status  int
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status the failure maps to
func (e *InvocationError) StatusCode() int {
	return e.Status
}

// PanicError wraps a value recovered from a panicking method
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprint(e.Value) }

// Kind names the failure for client-facing messages
func (e *PanicError) Kind() string { return "Panic" }

func notFound(format string, args ...any) *InvocationError {
	return &InvocationError{Kind: "NotFound", Message: fmt.Sprintf(format, args...), Status: http.StatusNotFound}
}

func typeError(format string, args ...any) *InvocationError {
	return &InvocationError{Kind: "TypeError", Message: fmt.Sprintf(format, args...), Status: http.StatusInternalServerError}
}

func badRequest(err error) *InvocationError {
	return &InvocationError{Kind: "BadRequest", Message: err.Error(), Status: http.StatusBadRequest, Err: err}
}

// failure converts an error raised while invoking into an InvocationError
func failure(err error) *InvocationError {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie
	}
	return &InvocationError{Kind: errorKind(err), Message: err.Error(), Status: http.StatusInternalServerError, Err: err}
}

// errorKind is the short classification of err shown to clients
func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.PkgPath() {
	case "errors", "fmt":
		return "Error"
	}
	if t.Name() == "" {
		return "Error"
	}
	return t.Name()
}

// InvokeService runs methods and property accessors on persisted instances
type InvokeService struct {
	models *ModelService
}

// NewInvokeService creates the bridge over the registrations in models
func NewInvokeService(models *ModelService) *InvokeService {
	return &InvokeService{models: models}
}

// InvokeMethod calls method on the instance instID of collection with the
// {args, kwargs} mapping carried in payload, and encodes the return value.
func (s *InvokeService) InvokeMethod(ctx context.Context, collection, instID, method, payload, format string) (*Result, error) {
	reg, ok := s.models.lookupCollection(collection)
	if !ok {
		return nil, notFound("no collection %q", collection)
	}
	if _, ok := s.models.endpoints.Lookup(datamodel.MethodEndpoint, collection, method); !ok {
		return nil, notFound("%s has no method %q", reg.name, method)
	}
	m := reg.methods[method]

	wire, err := s.format(format)
	if err != nil {
		return nil, badRequest(err)
	}

	tx := s.models.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, failure(tx.Error)
	}
	done := false
	defer func() {
		if !done {
			tx.Rollback()
		}
	}()
	ctx = codec.WithDB(ctx, tx)

	inst, err := reg.entity.Load(ctx, instID)
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}
	if inst == nil {
		s.count(reg, method, "not_found")
		return &Result{Found: false}, nil
	}

	args, kwargs, err := s.decodeArguments(ctx, wire, payload)
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}

	in, err := bindArguments(m, args, kwargs)
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}

	recv := []reflect.Value{reflect.ValueOf(inst)}
	if m.Context {
		recv = append(recv, reflect.ValueOf(ctx))
	}
	out, err := call(m.Func.Func, append(recv, in...))
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}

	value, err := results(m.Func.Type, out)
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}

	encoded, err := s.encode(wire, value)
	if err != nil {
		s.count(reg, method, "error")
		return nil, failure(err)
	}

	result := &Result{Found: true, Payload: encoded}
	if s.models.options.CommitOnMethodReturn {
		result.Commit = s.commitBestEffort(tx, inst, reg.name, method)
		done = true
	}
	s.count(reg, method, "ok")
	return result, nil
}

// GetProperty reads property from the instance instID of collection
func (s *InvokeService) GetProperty(ctx context.Context, collection, instID, property, format string) (*Result, error) {
	reg, ok := s.models.lookupCollection(collection)
	if !ok {
		return nil, notFound("no collection %q", collection)
	}
	acc, ok := s.propertyAccessor(reg, property)
	if !ok {
		return nil, notFound("%s has no property %q", reg.name, property)
	}

	wire, err := s.format(format)
	if err != nil {
		return nil, badRequest(err)
	}

	tx := s.models.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, failure(tx.Error)
	}
	defer tx.Rollback()
	ctx = codec.WithDB(ctx, tx)

	inst, err := reg.entity.Load(ctx, instID)
	if err != nil {
		return nil, failure(err)
	}
	if inst == nil {
		s.count(reg, property, "not_found")
		return &Result{Found: false}, nil
	}

	return s.readProperty(reg, acc, inst, property, wire)
}

// SetProperty writes the value carried in payload to property on the
// instance instID of collection, then saves and commits.
func (s *InvokeService) SetProperty(ctx context.Context, collection, instID, property, payload, format string) (*Result, error) {
	reg, ok := s.models.lookupCollection(collection)
	if !ok {
		return nil, notFound("no collection %q", collection)
	}
	acc, ok := s.propertyAccessor(reg, property)
	if !ok {
		return nil, notFound("%s has no property %q", reg.name, property)
	}

	wire, err := s.format(format)
	if err != nil {
		return nil, badRequest(err)
	}

	tx := s.models.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, setFailure(tx.Error)
	}
	done := false
	defer func() {
		if !done {
			tx.Rollback()
		}
	}()
	ctx = codec.WithDB(ctx, tx)

	inst, err := reg.entity.LoadForUpdate(ctx, instID)
	if err != nil {
		return nil, setFailure(err)
	}
	if inst == nil {
		s.count(reg, property, "not_found")
		return &Result{Found: false}, nil
	}

	if acc.Setter == nil {
		s.count(reg, property, "error")
		return nil, setFailure(fmt.Errorf("property %q is read-only", property))
	}

	raw, err := wire.Unmarshal(payload)
	if err != nil {
		return nil, setFailure(err)
	}
	decoded, err := s.models.codecs.Decode(ctx, raw)
	if err != nil {
		return nil, setFailure(err)
	}
	value, err := codec.Coerce(decoded, acc.ValueType)
	if err != nil {
		return nil, setFailure(err)
	}

	out, err := call(acc.Setter.Func, []reflect.Value{reflect.ValueOf(inst), value})
	if err == nil {
		_, err = results(acc.Setter.Type, out)
	}
	if err == nil {
		err = tx.Omit(clause.Associations).Save(inst).Error
	}
	if err == nil {
		err = tx.Commit().Error
		done = true
	}
	if err != nil {
		s.count(reg, property, "error")
		log.Printf("Failed to set %s.%s on %s: %v", reg.name, property, instID, err)
		return nil, setFailure(err)
	}

	s.count(reg, property, "ok")
	return &Result{Found: true, Commit: Committed}, nil
}

// ReadObjectProperty reads a property from the entity referenced in payload,
// a mapping {object, property}.
func (s *InvokeService) ReadObjectProperty(ctx context.Context, payload, format string) (*Result, error) {
	wire, err := s.format(format)
	if err != nil {
		return nil, badRequest(err)
	}

	tx := s.models.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, failure(tx.Error)
	}
	defer tx.Rollback()
	ctx = codec.WithDB(ctx, tx)

	raw, err := wire.Unmarshal(payload)
	if err != nil {
		return nil, badRequest(err)
	}
	decoded, err := s.models.codecs.Decode(ctx, raw)
	if err != nil {
		return nil, failure(err)
	}
	request, ok := decoded.(map[string]any)
	if !ok {
		return nil, typeError("payload must be a mapping with object and property")
	}
	property, ok := request["property"].(string)
	if !ok {
		return nil, typeError("property must be a string")
	}

	inst := request["object"]
	if inst == nil {
		return &Result{Found: false}, nil
	}
	reg, ok := s.models.lookupType(reflect.TypeOf(inst))
	if !ok {
		return nil, notFound("%T is not a registered model", inst)
	}
	acc, ok := s.propertyAccessor(reg, property)
	if !ok {
		return nil, notFound("%s has no property %q", reg.name, property)
	}

	return s.readProperty(reg, acc, inst, property, wire)
}

func (s *InvokeService) readProperty(reg *registration, acc datamodel.Accessor, inst any, property string, wire codec.Format) (*Result, error) {
	out, err := call(acc.Getter.Func, []reflect.Value{reflect.ValueOf(inst)})
	if err != nil {
		s.count(reg, property, "error")
		return nil, failure(err)
	}
	value, err := results(acc.Getter.Type, out)
	if err != nil {
		s.count(reg, property, "error")
		return nil, failure(err)
	}
	encoded, err := s.encode(wire, value)
	if err != nil {
		s.count(reg, property, "error")
		return nil, failure(err)
	}
	s.count(reg, property, "ok")
	return &Result{Found: true, Payload: encoded}, nil
}

func (s *InvokeService) propertyAccessor(reg *registration, property string) (datamodel.Accessor, bool) {
	if _, ok := s.models.endpoints.Lookup(datamodel.PropertyEndpoint, reg.collection, property); !ok {
		return datamodel.Accessor{}, false
	}
	acc, ok := reg.accessors[property]
	return acc, ok
}

func (s *InvokeService) commitBestEffort(tx *gorm.DB, inst any, model, method string) CommitOutcome {
	if err := tx.Omit(clause.Associations).Save(inst).Error; err != nil {
		tx.Rollback()
		log.Printf("Commit after %s.%s failed, ignoring: %v", model, method, err)
		return CommitFailedIgnored
	}
	if err := tx.Commit().Error; err != nil {
		log.Printf("Commit after %s.%s failed, ignoring: %v", model, method, err)
		return CommitFailedIgnored
	}
	return Committed
}

func (s *InvokeService) format(name string) (codec.Format, error) {
	if name == "" {
		name = s.models.options.PayloadFormat
	}
	return codec.FormatByName(name)
}

func (s *InvokeService) encode(wire codec.Format, v any) (string, error) {
	encoded, err := s.models.codecs.Encode(v)
	if err != nil {
		return "", err
	}
	return wire.Marshal(encoded)
}

func (s *InvokeService) decodeArguments(ctx context.Context, wire codec.Format, payload string) ([]any, map[string]any, error) {
	raw, err := wire.Unmarshal(payload)
	if err != nil {
		return nil, nil, badRequest(err)
	}
	decoded, err := s.models.codecs.Decode(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	if decoded == nil {
		return nil, nil, nil
	}

	request, ok := decoded.(map[string]any)
	if !ok {
		return nil, nil, typeError("payload must be a mapping with args and kwargs")
	}

	var args []any
	if v, ok := request["args"]; ok && v != nil {
		if args, ok = v.([]any); !ok {
			return nil, nil, typeError("args must be a list")
		}
	}
	var kwargs map[string]any
	if v, ok := request["kwargs"]; ok && v != nil {
		if kwargs, ok = v.(map[string]any); !ok {
			return nil, nil, typeError("kwargs must be a mapping")
		}
	}
	return args, kwargs, nil
}

func (s *InvokeService) count(reg *registration, target, outcome string) {
	invocationsTotal.WithLabelValues(reg.collection, target, outcome).Inc()
}

// bindArguments matches args and kwargs to the method's parameters
func bindArguments(m *datamodel.Method, args []any, kwargs map[string]any) ([]reflect.Value, error) {
	ft := m.Func.Type
	offset := m.Offset()
	used := make(map[string]bool, len(kwargs))
	bound := make([]reflect.Value, 0, ft.NumIn()-offset)
	pos := 0

	bind := func(index int, name string, v any) error {
		cv, err := codec.Coerce(v, ft.In(offset+index))
		if err != nil {
			return typeError("argument %q: %v", name, err)
		}
		bound = append(bound, cv)
		return nil
	}

	for i, name := range m.Args {
		var v any
		switch kv, inKwargs := kwargs[name]; {
		case pos < len(args):
			if inKwargs {
				return nil, typeError("got multiple values for argument %q", name)
			}
			v = args[pos]
			pos++
		case inKwargs:
			v = kv
			used[name] = true
		default:
			return nil, typeError("missing required argument %q", name)
		}
		if err := bind(i, name, v); err != nil {
			return nil, err
		}
	}

	for j, name := range m.Kwargs {
		var v any
		switch kv, inKwargs := kwargs[name]; {
		case pos < len(args):
			if inKwargs {
				return nil, typeError("got multiple values for argument %q", name)
			}
			v = args[pos]
			pos++
		case inKwargs:
			v = kv
			used[name] = true
		default:
			v = m.Defaults[j]
		}
		if err := bind(len(m.Args)+j, name, v); err != nil {
			return nil, err
		}
	}

	extra := make([]string, 0)
	for k := range kwargs {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	if m.KwargsVar != nil {
		kt := ft.In(offset + len(m.Args) + len(m.Kwargs))
		collected := reflect.MakeMapWithSize(kt, len(extra))
		for _, k := range extra {
			cv, err := codec.Coerce(kwargs[k], kt.Elem())
			if err != nil {
				return nil, typeError("argument %q: %v", k, err)
			}
			collected.SetMapIndex(reflect.ValueOf(k).Convert(kt.Key()), cv)
		}
		bound = append(bound, collected)
	} else if len(extra) > 0 {
		return nil, typeError("unexpected keyword argument %q", extra[0])
	}

	if pos < len(args) {
		if m.ArgsVar == nil {
			return nil, typeError("takes %d positional arguments but %d were given",
				len(m.Args)+len(m.Kwargs), len(args))
		}
		elem := ft.In(ft.NumIn() - 1).Elem()
		for _, v := range args[pos:] {
			cv, err := codec.Coerce(v, elem)
			if err != nil {
				return nil, typeError("argument %q: %v", *m.ArgsVar, err)
			}
			bound = append(bound, cv)
		}
	}

	return bound, nil
}

// call invokes fn, converting a panic into a PanicError
func call(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn.Call(in), nil
}

// results splits a trailing error from a method's return values
func results(ft reflect.Type, out []reflect.Value) (any, error) {
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		if errVal := out[n-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	values := make([]any, len(out))
	for i, v := range out {
		values[i] = v.Interface()
	}
	return values, nil
}

func setFailure(err error) *InvocationError {
	return &InvocationError{
		Message: "could not set property: " + err.Error(),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
