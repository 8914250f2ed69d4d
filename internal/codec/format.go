package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Wire format names
const (
	MsgpackFormat = "msgpack"
	JSONFormat    = "json"
)

// Format turns wire values into the text carried in a request or response
// body and back.
type Format interface {
	Name() string
	Marshal(v any) (string, error)
	Unmarshal(data string) (any, error)
}

// FormatByName resolves a wire format. An empty name selects msgpack.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", MsgpackFormat:
		return msgpackFormat{}, nil
	case JSONFormat:
		return jsonFormat{}, nil
	}
	return nil, fmt.Errorf("unknown payload format %q", name)
}

// msgpackFormat is the compact binary format, base64 encoded so that it fits
// in a JSON string.
type msgpackFormat struct{}

func (msgpackFormat) Name() string { return MsgpackFormat }

func (msgpackFormat) Marshal(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("msgpack marshal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (msgpackFormat) Unmarshal(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("msgpack payload is not base64: %w", err)
	}

	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("msgpack unmarshal: %w", err)
	}
	return v, nil
}

// jsonFormat is plain JSON text. Numbers decode to int64 when integral.
type jsonFormat struct{}

func (jsonFormat) Name() string { return JSONFormat }

func (jsonFormat) Marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

func (jsonFormat) Unmarshal(data string) (any, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	}
	return v
}
