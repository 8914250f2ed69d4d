package codec

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/hints"
)

type dbKey struct{}

// WithDB returns a context carrying db. Entity lookups made while decoding
// use it in place of the codec's own handle, so they join the caller's
// transaction.
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DBFrom returns the handle stored by WithDB.
func DBFrom(ctx context.Context) (*gorm.DB, bool) {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	return db, ok && db != nil
}

// SerializeFunc replaces the default primary key encoding of an entity. It
// receives a pointer to the entity.
type SerializeFunc func(entity any) (any, error)

// DeserializeFunc builds an entity from a mapping payload that carries no
// primary key.
type DeserializeFunc func(ctx context.Context, payload map[string]any) (any, error)

// EntityCodec encodes persisted entities as references and decodes references
// by loading the row.
type EntityCodec struct {
	DB          *gorm.DB
	Model       reflect.Type
	PKField     string
	PKColumn    string
	PKType      reflect.Type
	Serialize   SerializeFunc
	Deserialize DeserializeFunc
}

// RegisterEntity installs ec under name.
func RegisterEntity(r *Registry, name string, ec *EntityCodec) {
	r.Register(name, ec.Model, ec.encode, func(ctx context.Context, v any) (any, error) {
		return ec.decode(ctx, r, v)
	})
}

func (ec *EntityCodec) encode(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p
	}
	if ec.Serialize != nil {
		return ec.Serialize(rv.Interface())
	}
	return rv.Elem().FieldByName(ec.PKField).Interface(), nil
}

func (ec *EntityCodec) decode(ctx context.Context, r *Registry, v any) (any, error) {
	payload, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return ec.Load(ctx, v)
	}

	for _, key := range []string{ec.PKColumn, ec.PKField} {
		if pk, ok := payload[key]; ok && !isZero(pk) {
			return ec.Load(ctx, pk)
		}
	}

	decoded, err := r.Decode(ctx, payload)
	if err != nil {
		return nil, err
	}
	fields, _ := decoded.(map[string]any)

	if ec.Deserialize != nil {
		return ec.Deserialize(ctx, fields)
	}
	return ec.transient(fields)
}

// Load fetches the entity with primary key pk. A missing row, or a key that
// cannot be a primary key value, yields a nil result and no error.
func (ec *EntityCodec) Load(ctx context.Context, pk any) (any, error) {
	return ec.load(ctx, pk, false)
}

// LoadForUpdate is Load with a row lock held until the transaction ends.
func (ec *EntityCodec) LoadForUpdate(ctx context.Context, pk any) (any, error) {
	return ec.load(ctx, pk, true)
}

func (ec *EntityCodec) load(ctx context.Context, pk any, lock bool) (any, error) {
	key, err := Coerce(pk, ec.PKType)
	if err != nil {
		return nil, nil
	}

	db := ec.DB
	if txn, ok := DBFrom(ctx); ok {
		db = txn
	}

	query := db.WithContext(ctx).
		Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Clauses(hints.CommentBefore("select", "datamodel:"+ec.Model.Name()))
	if lock {
		query = query.Clauses(rowLock(db))
	}

	dest := reflect.New(ec.Model).Interface()
	err = query.
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: ec.PKColumn}, Value: key.Interface()}).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %v: %w", ec.Model.Name(), pk, err)
	}
	return dest, nil
}

// rowLock is the clause that holds the selected row for update on db's
// dialect. SQL Server has no FOR UPDATE and takes a table hint instead.
func rowLock(db *gorm.DB) clause.Expression {
	if db.Dialector.Name() == "sqlserver" {
		return updateLockHint{}
	}
	return clause.Locking{Strength: clause.LockingStrengthUpdate}
}

type updateLockHint struct{}

func (updateLockHint) ModifyStatement(stmt *gorm.Statement) {
	from := stmt.Clauses["FROM"]
	from.AfterExpression = clause.Expr{SQL: "WITH (UPDLOCK, ROWLOCK)"}
	stmt.Clauses["FROM"] = from
}

func (updateLockHint) Build(clause.Builder) {}

// transient builds an unsaved instance from a mapping keyed by field or
// column names.
func (ec *EntityCodec) transient(fields map[string]any) (any, error) {
	dest := reflect.New(ec.Model)
	namer := schema.NamingStrategy{}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           dest.Interface(),
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(mapKey, fieldName) || namer.ColumnName("", fieldName) == mapKey
		},
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("build %s: %w", ec.Model.Name(), err)
	}
	return dest.Interface(), nil
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
