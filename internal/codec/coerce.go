package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Coerce converts a decoded wire value to target so it can be passed to a Go
// function parameter or assigned to a field.
func Coerce(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}

	rv := reflect.ValueOf(v)
	vt := rv.Type()

	switch {
	case vt.AssignableTo(target):
		return rv, nil
	case target.Kind() == reflect.Pointer && vt.AssignableTo(target.Elem()):
		p := reflect.New(target.Elem())
		p.Elem().Set(rv)
		return p, nil
	case vt.Kind() == reflect.Pointer && !rv.IsNil() && vt.Elem().AssignableTo(target):
		return rv.Elem(), nil
	case isNumeric(vt.Kind()) && isNumeric(target.Kind()):
		return convertNumber(rv, target)
	}

	if n, ok := v.(json.Number); ok && isNumeric(target.Kind()) {
		if i, err := n.Int64(); err == nil {
			return convertNumber(reflect.ValueOf(i), target)
		}
		f, err := n.Float64()
		if err != nil {
			return reflect.Value{}, err
		}
		return convertNumber(reflect.ValueOf(f), target)
	}

	out := reflect.New(target)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(v); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", v, target, err)
	}
	return out.Elem(), nil
}

// convertNumber converts between numeric kinds, refusing conversions that
// would change the value.
func convertNumber(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	fail := func() (reflect.Value, error) {
		return reflect.Value{}, fmt.Errorf("cannot use %v as %s", rv.Interface(), target)
	}

	switch target.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Convert(target), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case rv.CanInt():
			n = rv.Int()
		case rv.CanUint():
			if rv.Uint() > math.MaxInt64 {
				return fail()
			}
			n = int64(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fail()
			}
			n = int64(f)
		}
		out := reflect.New(target).Elem()
		if out.OverflowInt(n) {
			return fail()
		}
		out.SetInt(n)
		return out, nil

	default:
		var n uint64
		switch {
		case rv.CanUint():
			n = rv.Uint()
		case rv.CanInt():
			if rv.Int() < 0 {
				return fail()
			}
			n = uint64(rv.Int())
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return fail()
			}
			n = uint64(f)
		}
		out := reflect.New(target).Elem()
		if out.OverflowUint(n) {
			return fail()
		}
		out.SetUint(n)
		return out, nil
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
