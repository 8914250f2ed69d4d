package datamodel

import (
	"errors"
)

// Relationship directions
type Direction string

const (
	ManyToOne  Direction = "MANYTOONE"
	OneToMany  Direction = "ONETOMANY"
	OneToOne   Direction = "ONETOONE"
	ManyToMany Direction = "MANYTOMANY"
)

var (
	ErrNoPrimaryKey  = errors.New("entity has no primary key")
	ErrCompositeKey  = errors.New("composite primary keys are not supported")
	ErrReservedName  = errors.New("entity name is reserved")
	ErrUnknownMember = errors.New("unknown model member")
)

// Column is a persisted attribute.
type Column struct {
	Name    string
	TypeTag string
}

// Relationship is a navigable link to another entity type.
type Relationship struct {
	Name         string
	Direction    Direction
	Collection   bool
	Target       string
	Backref      string
	LocalColumns []string
}

// ComputedProperty is a declared accessor pair.
type ComputedProperty struct {
	Name     string
	Settable bool
}

// ProxyKind tells what an association proxy resolves to.
type ProxyKind int

const (
	ProxyUnresolved ProxyKind = iota
	ProxyRelation
	ProxyColumn
)

// AssociationProxy is a declared proxy after resolution against the schema.
type AssociationProxy struct {
	Name    string
	Kind    ProxyKind
	Scalar  bool
	Target  string
	TypeTag string
}

// SchemaSource is the read-only view of entity metadata the reflector works
// from.
type SchemaSource interface {
	Name() string
	PrimaryKey() (string, error)
	Columns() []Column
	Relationships() []Relationship
	ComputedProperties() []ComputedProperty
	HybridProperties() []string
	AssociationProxies() []AssociationProxy
	Polymorphism() Polymorphism
}
