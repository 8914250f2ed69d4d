package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSONDocumentCodec is the codec name of JSON columns
const JSONDocumentCodec = "json_document"

// JSON is a wrapper around gorm.io/datatypes.JSON to allow for custom data type mapping
type JSON struct {
	datatypes.JSON
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType ensures the correct data type is used for each database driver.
// This resolves the issue where MSSQL does not support the 'json' data type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// RegisterCodecs installs the codecs for this package's column types. JSON
// columns travel as structured values rather than text.
func RegisterCodecs(reg *codec.Registry) {
	reg.Register(JSONDocumentCodec, reflect.TypeOf(JSON{}),
		func(v any) (any, error) {
			j := v.(JSON)
			if len(j.JSON) == 0 {
				return nil, nil
			}
			var out any
			if err := json.Unmarshal(j.JSON, &out); err != nil {
				return nil, fmt.Errorf("invalid json column: %w", err)
			}
			return out, nil
		},
		func(_ context.Context, v any) (any, error) {
			if v == nil {
				return JSON{}, nil
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return JSON{JSON: datatypes.JSON(b)}, nil
		})
}
