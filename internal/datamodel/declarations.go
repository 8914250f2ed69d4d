package datamodel

import (
	"github.com/localnerve/jam-build-datamodel/internal/codec"
)

// Property declares a computed property backed by accessor methods on the
// model's pointer type. Setter is empty for a read-only property.
type Property struct {
	Name   string
	Getter string
	Setter string
}

// Hybrid declares a read-only computed value that also has a query-level
// expression. It is described as an attribute tagged "hybrid".
type Hybrid struct {
	Name   string
	Getter string
}

// Proxy declares an association proxy: the Remote attribute reached through
// the Relation field.
type Proxy struct {
	Name     string
	Relation string
	Remote   string
}

// Polymorphism declares single or joined table inheritance metadata. A base
// sets On to the discriminator column. A derived model sets Identity and
// either embeds its base or names it in Parent.
type Polymorphism struct {
	On       string
	Identity string
	Parent   string
}

// Param is a named optional parameter with a default value.
type Param struct {
	Name    string
	Default any
}

// MethodSpec names the parameters of an exported method, which reflection
// cannot recover. The Go parameters must be laid out as
// [ctx] Args... Kwargs... [KwargsVar map[string]any] [ArgsVar ...T].
type MethodSpec struct {
	Name      string
	Args      []string
	Kwargs    []Param
	ArgsVar   string
	KwargsVar string
}

// PropertyDeclarer is implemented by models with computed properties.
type PropertyDeclarer interface {
	ModelProperties() []Property
}

// HybridDeclarer is implemented by models with hybrid properties.
type HybridDeclarer interface {
	ModelHybrids() []Hybrid
}

// ProxyDeclarer is implemented by models with association proxies.
type ProxyDeclarer interface {
	ModelProxies() []Proxy
}

// PolymorphicDeclarer is implemented by models taking part in inheritance.
type PolymorphicDeclarer interface {
	ModelPolymorphism() Polymorphism
}

// MethodDeclarer is implemented by models that describe their invocable
// methods, keyed by Go method name.
type MethodDeclarer interface {
	ModelMethods() map[string]MethodSpec
}

// ViewConfig is the per-entity registration input.
type ViewConfig struct {
	// CollectionName defaults to the table name.
	CollectionName string
	// URLPrefix defaults to DefaultURLPrefix.
	URLPrefix string
	Include   []string
	Exclude   []string

	Serialize   codec.SerializeFunc
	Deserialize codec.DeserializeFunc
}

// DefaultURLPrefix is used when a ViewConfig leaves URLPrefix empty.
const DefaultURLPrefix = "/api"
