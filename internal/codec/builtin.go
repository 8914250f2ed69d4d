package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Built-in codec names
const (
	DateTimeCodec = "datetime"
	DateCodec     = "date"
	DurationCodec = "timedelta"
	UUIDCodec     = "uuid"
	MapCodec      = "map"
	JSONCodec     = "json"
)

const dateLayout = "2006-01-02"

func registerBuiltins(r *Registry) {
	r.Register(DateTimeCodec, reflect.TypeOf(time.Time{}),
		func(v any) (any, error) {
			return v.(time.Time).Format(time.RFC3339Nano), nil
		},
		func(_ context.Context, v any) (any, error) {
			s, err := wireString(v)
			if err != nil {
				return nil, err
			}
			return time.Parse(time.RFC3339Nano, s)
		})

	r.Register(DateCodec, reflect.TypeOf(datatypes.Date{}),
		func(v any) (any, error) {
			return time.Time(v.(datatypes.Date)).Format(dateLayout), nil
		},
		func(_ context.Context, v any) (any, error) {
			s, err := wireString(v)
			if err != nil {
				return nil, err
			}
			t, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, err
			}
			return datatypes.Date(t), nil
		})

	r.Register(DurationCodec, reflect.TypeOf(time.Duration(0)),
		func(v any) (any, error) {
			return int64(v.(time.Duration)), nil
		},
		func(_ context.Context, v any) (any, error) {
			n, err := wireInt(v)
			if err != nil {
				return nil, err
			}
			return time.Duration(n), nil
		})

	r.Register(UUIDCodec, reflect.TypeOf(uuid.UUID{}),
		func(v any) (any, error) {
			return v.(uuid.UUID).String(), nil
		},
		func(_ context.Context, v any) (any, error) {
			s, err := wireString(v)
			if err != nil {
				return nil, err
			}
			return uuid.Parse(s)
		})

	r.Register(JSONCodec, reflect.TypeOf(datatypes.JSON(nil)),
		func(v any) (any, error) {
			return string(v.(datatypes.JSON)), nil
		},
		func(_ context.Context, v any) (any, error) {
			s, err := wireString(v)
			if err != nil {
				return nil, err
			}
			if !json.Valid([]byte(s)) {
				return nil, fmt.Errorf("invalid json text")
			}
			return datatypes.JSON(s), nil
		})

	// Maps with non-string keys travel as a list of [key, value] pairs.
	r.Register(MapCodec, reflect.TypeOf(map[any]any(nil)),
		func(v any) (any, error) {
			rv := reflect.ValueOf(v)
			pairs := make([]any, 0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				k, err := r.encodeValue(iter.Key())
				if err != nil {
					return nil, err
				}
				val, err := r.encodeValue(iter.Value())
				if err != nil {
					return nil, err
				}
				pairs = append(pairs, []any{k, val})
			}
			return pairs, nil
		},
		func(ctx context.Context, v any) (any, error) {
			pairs, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("expected a list of pairs, got %T", v)
			}
			out := make(map[any]any, len(pairs))
			for _, p := range pairs {
				pair, ok := p.([]any)
				if !ok || len(pair) != 2 {
					return nil, fmt.Errorf("malformed map pair %v", p)
				}
				k, err := r.Decode(ctx, pair[0])
				if err != nil {
					return nil, err
				}
				val, err := r.Decode(ctx, pair[1])
				if err != nil {
					return nil, err
				}
				if k != nil && !reflect.TypeOf(k).Comparable() {
					return nil, fmt.Errorf("unhashable map key %T", k)
				}
				out[k] = val
			}
			return out, nil
		})
}

func wireString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", v)
	}
	return s, nil
}

func wireInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
