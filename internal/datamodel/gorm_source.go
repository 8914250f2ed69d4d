// gorm_source.go
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

package datamodel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm/schema"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Methods that belong to gorm, to this package's declarations or to standard
// interfaces. They are never cataloged.
var frameworkMethods = []string{
	"TableName",
	"BeforeSave", "BeforeCreate", "AfterCreate", "AfterSave",
	"BeforeUpdate", "AfterUpdate", "BeforeDelete", "AfterDelete", "AfterFind",
	"ModelProperties", "ModelHybrids", "ModelProxies", "ModelPolymorphism", "ModelMethods",
	"GormDataType", "GormDBDataType", "Value", "Scan",
	"MarshalJSON", "UnmarshalJSON", "String", "Error",
}

// Accessor holds the resolved methods of a computed property.
type Accessor struct {
	Getter    reflect.Method
	Setter    *reflect.Method
	ValueType reflect.Type
}

// GormSource reads entity metadata from a gorm schema and the model's
// declaration methods.
type GormSource struct {
	schema *schema.Schema
	cache  *sync.Map
	namer  schema.Namer

	properties []Property
	hybrids    []Hybrid
	proxies    []AssociationProxy
	poly       Polymorphism
	methods    map[string]MethodSpec
	accessors  map[string]Accessor
	reserved   map[string]bool
}

// NewGormSource parses model and resolves its declarations. Declared accessor
// methods that do not exist, and proxies that do not resolve, are errors.
func NewGormSource(model any, cache *sync.Map, namer schema.Namer) (*GormSource, error) {
	s, err := schema.Parse(model, cache, namer)
	if err != nil {
		return nil, fmt.Errorf("parse %T: %w", model, err)
	}

	src := &GormSource{
		schema:    s,
		cache:     cache,
		namer:     namer,
		accessors: make(map[string]Accessor),
		reserved:  make(map[string]bool, len(frameworkMethods)),
	}
	for _, name := range frameworkMethods {
		src.reserved[name] = true
	}

	decl := reflect.New(s.ModelType).Interface()

	if d, ok := decl.(PropertyDeclarer); ok {
		src.properties = d.ModelProperties()
		for _, p := range src.properties {
			if err := src.resolveAccessor(p.Name, p.Getter, p.Setter); err != nil {
				return nil, err
			}
		}
	}
	if d, ok := decl.(HybridDeclarer); ok {
		src.hybrids = d.ModelHybrids()
		for _, h := range src.hybrids {
			if err := src.resolveAccessor(h.Name, h.Getter, ""); err != nil {
				return nil, err
			}
		}
	}
	if d, ok := decl.(ProxyDeclarer); ok {
		for _, p := range d.ModelProxies() {
			ap, err := src.resolveProxy(p)
			if err != nil {
				return nil, err
			}
			src.proxies = append(src.proxies, ap)
		}
	}
	if d, ok := decl.(PolymorphicDeclarer); ok {
		src.poly = src.resolvePolymorphism(d.ModelPolymorphism())
	}
	if d, ok := decl.(MethodDeclarer); ok {
		src.methods = d.ModelMethods()
	}

	return src, nil
}

func (src *GormSource) Name() string { return src.schema.Name }

// Table is the gorm table name.
func (src *GormSource) Table() string { return src.schema.Table }

// ModelType is the model's struct type.
func (src *GormSource) ModelType() reflect.Type { return src.schema.ModelType }

// PrimaryField returns the single primary key field.
func (src *GormSource) PrimaryField() (*schema.Field, error) {
	switch len(src.schema.PrimaryFields) {
	case 0:
		return nil, fmt.Errorf("%s: %w", src.schema.Name, ErrNoPrimaryKey)
	case 1:
		return src.schema.PrimaryFields[0], nil
	}
	return nil, fmt.Errorf("%s: %w", src.schema.Name, ErrCompositeKey)
}

func (src *GormSource) PrimaryKey() (string, error) {
	f, err := src.PrimaryField()
	if err != nil {
		return "", err
	}
	return f.DBName, nil
}

func (src *GormSource) Columns() []Column {
	cols := make([]Column, 0, len(src.schema.DBNames))
	for _, dbName := range src.schema.DBNames {
		cols = append(cols, Column{Name: dbName, TypeTag: typeTag(src.schema.FieldsByDBName[dbName])})
	}
	return cols
}

func (src *GormSource) Relationships() []Relationship {
	var rels []Relationship
	for _, f := range src.schema.Fields {
		rel, ok := src.schema.Relationships.Relations[f.Name]
		if !ok || rel.FieldSchema == nil {
			continue
		}

		r := Relationship{
			Name:       src.wireName(rel.Name),
			Collection: isCollection(rel.Field),
			Target:     rel.FieldSchema.Name,
			Backref:    src.backref(rel),
		}
		switch rel.Type {
		case schema.BelongsTo:
			r.Direction = ManyToOne
			for _, ref := range rel.References {
				if ref.ForeignKey != nil && !ref.OwnPrimaryKey {
					r.LocalColumns = append(r.LocalColumns, ref.ForeignKey.DBName)
				}
			}
		case schema.HasOne, schema.HasMany:
			r.Direction = OneToMany
		case schema.Many2Many:
			r.Direction = ManyToMany
		default:
			continue
		}
		rels = append(rels, r)
	}
	return rels
}

func (src *GormSource) ComputedProperties() []ComputedProperty {
	props := make([]ComputedProperty, 0, len(src.properties))
	for _, p := range src.properties {
		props = append(props, ComputedProperty{Name: p.Name, Settable: p.Setter != ""})
	}
	return props
}

func (src *GormSource) HybridProperties() []string {
	names := make([]string, 0, len(src.hybrids))
	for _, h := range src.hybrids {
		names = append(names, h.Name)
	}
	return names
}

func (src *GormSource) AssociationProxies() []AssociationProxy { return src.proxies }

func (src *GormSource) Polymorphism() Polymorphism { return src.poly }

// MethodSpecs returns the model's method declarations keyed by Go name.
func (src *GormSource) MethodSpecs() map[string]MethodSpec { return src.methods }

// ReservedMethods lists Go method names that must not be cataloged.
func (src *GormSource) ReservedMethods() map[string]bool { return src.reserved }

// Accessors returns the resolved property accessors keyed by property name.
func (src *GormSource) Accessors() map[string]Accessor { return src.accessors }

// Namer is the naming strategy wire names are derived with.
func (src *GormSource) Namer() schema.Namer { return src.namer }

func (src *GormSource) wireName(goName string) string {
	return src.namer.ColumnName("", goName)
}

func (src *GormSource) resolveAccessor(name, getter, setter string) error {
	ptr := reflect.PointerTo(src.schema.ModelType)

	g, ok := ptr.MethodByName(getter)
	if !ok {
		return fmt.Errorf("%s.%s: getter %s: %w", src.schema.Name, name, getter, ErrUnknownMember)
	}
	gt := g.Type
	if gt.NumIn() != 1 || gt.NumOut() == 0 || gt.NumOut() > 2 || (gt.NumOut() == 2 && gt.Out(1) != errorType) {
		return fmt.Errorf("%s.%s: getter %s must take no arguments and return a value and an optional error",
			src.schema.Name, name, getter)
	}
	acc := Accessor{Getter: g, ValueType: gt.Out(0)}
	src.reserved[getter] = true

	if setter != "" {
		s, ok := ptr.MethodByName(setter)
		if !ok {
			return fmt.Errorf("%s.%s: setter %s: %w", src.schema.Name, name, setter, ErrUnknownMember)
		}
		st := s.Type
		if st.NumIn() != 2 || st.NumOut() > 1 || (st.NumOut() == 1 && st.Out(0) != errorType) {
			return fmt.Errorf("%s.%s: setter %s must take one argument and return an optional error",
				src.schema.Name, name, setter)
		}
		acc.Setter = &s
		acc.ValueType = st.In(1)
		src.reserved[setter] = true
	}

	src.accessors[name] = acc
	return nil
}

func (src *GormSource) resolveProxy(p Proxy) (AssociationProxy, error) {
	rel := src.findRelation(src.schema, p.Relation)
	if rel == nil {
		return AssociationProxy{}, fmt.Errorf("%s.%s: relation %s: %w", src.schema.Name, p.Name, p.Relation, ErrUnknownMember)
	}

	ap := AssociationProxy{Name: p.Name, Scalar: !isCollection(rel.Field)}
	target, err := src.parse(rel.FieldSchema)
	if err != nil {
		return AssociationProxy{}, err
	}

	if remote := src.findRelation(target, p.Remote); remote != nil {
		ap.Kind = ProxyRelation
		ap.Target = remote.FieldSchema.Name
		return ap, nil
	}
	if f := findField(target, p.Remote); f != nil {
		ap.Kind = ProxyColumn
		ap.TypeTag = typeTag(f)
		return ap, nil
	}
	return AssociationProxy{}, fmt.Errorf("%s.%s: remote %s on %s: %w",
		src.schema.Name, p.Name, p.Remote, target.Name, ErrUnknownMember)
}

func (src *GormSource) resolvePolymorphism(p Polymorphism) Polymorphism {
	if p.On != "" {
		if f := findField(src.schema, p.On); f != nil {
			p.On = f.DBName
		}
	}
	if p.Identity != "" && p.Parent == "" {
		p.Parent = polymorphicBase(src.schema.ModelType)
	}
	return p
}

// polymorphicBase finds the embedded struct that declares a discriminator.
func polymorphicBase(t reflect.Type) string {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if d, ok := reflect.New(ft).Interface().(PolymorphicDeclarer); ok && d.ModelPolymorphism().On != "" {
			return ft.Name()
		}
		if base := polymorphicBase(ft); base != "" {
			return base
		}
	}
	return ""
}

// backref finds the relationship on the target that traverses the same link
// in the opposite direction.
func (src *GormSource) backref(rel *schema.Relationship) string {
	target, err := src.parse(rel.FieldSchema)
	if err != nil {
		return ""
	}
	key := linkKey(rel)
	for _, f := range target.Fields {
		cand, ok := target.Relationships.Relations[f.Name]
		if !ok || cand == rel || cand.FieldSchema == nil || cand.FieldSchema.ModelType != rel.Schema.ModelType {
			continue
		}
		if cand.Name == rel.Name && target.ModelType == rel.Schema.ModelType {
			continue
		}
		if linkKey(cand) == key {
			return src.wireName(cand.Name)
		}
	}
	return ""
}

// parse returns the fully initialized cached schema for s.
func (src *GormSource) parse(s *schema.Schema) (*schema.Schema, error) {
	return schema.Parse(reflect.New(s.ModelType).Interface(), src.cache, src.namer)
}

func (src *GormSource) findRelation(s *schema.Schema, name string) *schema.Relationship {
	if rel, ok := s.Relationships.Relations[name]; ok {
		return rel
	}
	for _, rel := range s.Relationships.Relations {
		if src.wireName(rel.Name) == name {
			return rel
		}
	}
	return nil
}

func findField(s *schema.Schema, name string) *schema.Field {
	if f, ok := s.FieldsByName[name]; ok && f.DBName != "" {
		return f
	}
	return s.FieldsByDBName[name]
}

func linkKey(rel *schema.Relationship) string {
	if rel.JoinTable != nil {
		return "join:" + rel.JoinTable.Table
	}
	keys := make([]string, 0, len(rel.References))
	for _, ref := range rel.References {
		if ref.ForeignKey != nil && ref.ForeignKey.Schema != nil {
			keys = append(keys, ref.ForeignKey.Schema.Table+"."+ref.ForeignKey.DBName)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func isCollection(f *schema.Field) bool {
	t := f.IndirectFieldType
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// typeTag names a column's type in the description vocabulary.
// sqlTypeTags maps explicit column types to attribute type tags
var sqlTypeTags = map[string]string{
	"char": "unicode", "varchar": "unicode", "nchar": "unicode", "nvarchar": "unicode",
	"character": "unicode", "varchar2": "unicode", "nvarchar2": "unicode", "string": "unicode",
	"text": "text", "tinytext": "text", "mediumtext": "text", "longtext": "text", "ntext": "text", "clob": "text",
	"int": "integer", "integer": "integer", "tinyint": "integer", "smallint": "integer",
	"mediumint": "integer", "bigint": "integer", "serial": "integer", "bigserial": "integer",
	"int2": "integer", "int4": "integer", "int8": "integer",
	"decimal": "numeric", "numeric": "numeric", "money": "numeric",
	"float": "float", "double": "float", "real": "float", "float4": "float", "float8": "float",
	"bool": "boolean", "boolean": "boolean", "bit": "boolean",
	"datetime": "datetime", "datetime2": "datetime", "timestamp": "datetime",
	"timestamptz": "datetime", "datetimeoffset": "datetime",
	"date": "date", "time": "time", "timetz": "time",
	"json": "json", "jsonb": "json",
	"uuid": "uuid", "uniqueidentifier": "uuid",
	"blob": "largebinary", "tinyblob": "largebinary", "mediumblob": "largebinary", "longblob": "largebinary",
	"bytea": "largebinary", "binary": "largebinary", "varbinary": "largebinary",
}

func typeTag(f *schema.Field) string {
	if t := f.TagSettings["TYPE"]; t != "" {
		t = strings.ToLower(t)
		if i := strings.IndexAny(t, "( "); i > 0 {
			t = t[:i]
		}
		if tag, ok := sqlTypeTags[t]; ok {
			return tag
		}
		return kindTag(f.IndirectFieldType)
	}

	switch f.DataType {
	case schema.Bool:
		return "boolean"
	case schema.Int, schema.Uint:
		return "integer"
	case schema.Float:
		if f.Precision > 0 {
			return "numeric"
		}
		return "float"
	case schema.String:
		return "unicode"
	case schema.Time:
		return "datetime"
	case schema.Bytes:
		return "largebinary"
	case "":
		return "unknown"
	}
	return strings.ToLower(string(f.DataType))
}

// kindTag derives a type tag from the Go type of a field whose column type
// is not recognized
func kindTag(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.String:
		return "unicode"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "largebinary"
		}
	case reflect.Struct:
		if t.ConvertibleTo(reflect.TypeOf(time.Time{})) {
			return "datetime"
		}
	}
	return "unknown"
}
