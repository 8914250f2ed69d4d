// model_service.go
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
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
	"gorm.io/gorm"
)

// MetaEntryName is the reserved document key carrying server metadata
const MetaEntryName = "DataModel"

// ServerVersion is reported in the meta entry, set at build time
var ServerVersion = "1.0.0"

// ModelOptions are the registration-time policy switches
type ModelOptions struct {
	IncludeInternal      bool
	CommitOnMethodReturn bool
	PayloadFormat        string
	// HideProperties leaves computed properties out of descriptions and
	// registers no property endpoints
	HideProperties bool
}

// MetaDocument is the document's meta entry
type MetaDocument struct {
	ServerVersion    string `json:"server_version"`
	SerializeNaively bool   `json:"serialize_naively"`
	PayloadFormat    string `json:"payload_format"`
}

// EntityDocument is the rendering of one registered entity type
type EntityDocument struct {
	PKName         string                                   `json:"pk_name"`
	CollectionName string                                   `json:"collection_name"`
	URLPrefix      string                                   `json:"url_prefix"`
	Attributes     map[string]string                        `json:"attributes"`
	Relations      map[string]datamodel.RelationDescription `json:"relations"`
	Properties     map[string]bool                          `json:"properties"`
	Methods        map[string]*datamodel.Method             `json:"methods"`
	Polymorphic    map[string]any                           `json:"polymorphic,omitempty"`
}

// Document is the aggregate data model, keyed by entity name plus MetaEntryName
type Document map[string]any

type registration struct {
	name       string
	collection string
	urlPrefix  string
	model      reflect.Type
	desc       *datamodel.Description
	methods    map[string]*datamodel.Method
	accessors  map[string]datamodel.Accessor
	poly       datamodel.Polymorphism
	entity     *codec.EntityCodec
}

type snapshot struct {
	doc Document
	raw []byte
}

// ModelService holds the registered entity types and publishes the document
type ModelService struct {
	db        *gorm.DB
	codecs    *codec.Registry
	endpoints *datamodel.Endpoints
	options   ModelOptions
	schemas   sync.Map

	mu            sync.RWMutex
	registrations []*registration
	byName        map[string]*registration
	byCollection  map[string]*registration
	byType        map[reflect.Type]*registration

	buildMu  sync.Mutex
	document atomic.Pointer[snapshot]
}

// NewModelService creates a service with an empty, already published document
func NewModelService(db *gorm.DB, codecs *codec.Registry, opts ModelOptions) (*ModelService, error) {
	if opts.PayloadFormat == "" {
		opts.PayloadFormat = codec.MsgpackFormat
	}
	if _, err := codec.FormatByName(opts.PayloadFormat); err != nil {
		return nil, err
	}

	s := &ModelService{
		db:           db,
		codecs:       codecs,
		endpoints:    datamodel.NewEndpoints(),
		options:      opts,
		byName:       make(map[string]*registration),
		byCollection: make(map[string]*registration),
		byType:       make(map[reflect.Type]*registration),
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Options returns the registration-time options
func (s *ModelService) Options() ModelOptions {
	return s.options
}

// Codecs returns the codec registry entity codecs are installed into
func (s *ModelService) Codecs() *codec.Registry {
	return s.codecs
}

// Endpoints returns the capability table
func (s *ModelService) Endpoints() *datamodel.Endpoints {
	return s.endpoints
}

// Register describes model, installs its entity codec and endpoints, and
// republishes the document. Registering the same type again replaces it.
func (s *ModelService) Register(model any, view datamodel.ViewConfig) error {
	src, err := datamodel.NewGormSource(model, &s.schemas, s.db.NamingStrategy)
	if err != nil {
		return err
	}

	name := src.Name()
	if name == MetaEntryName {
		return fmt.Errorf("%s: %w", name, datamodel.ErrReservedName)
	}

	filter, err := datamodel.NewFilter(view.Include, view.Exclude)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	desc, err := datamodel.Reflect(src, filter)
	if err != nil {
		return err
	}
	if s.options.HideProperties {
		desc.Properties = make(map[string]bool)
	}

	methods, err := datamodel.Catalog(src.ModelType(), src.MethodSpecs(), src.ReservedMethods(),
		src.Namer(), s.options.IncludeInternal)
	if err != nil {
		return err
	}

	pk, err := src.PrimaryField()
	if err != nil {
		return err
	}

	reg := &registration{
		name:       name,
		collection: view.CollectionName,
		urlPrefix:  view.URLPrefix,
		model:      src.ModelType(),
		desc:       desc,
		methods:    methods,
		accessors:  make(map[string]datamodel.Accessor),
		poly:       src.Polymorphism(),
		entity: &codec.EntityCodec{
			DB:          s.db,
			Model:       src.ModelType(),
			PKField:     pk.Name,
			PKColumn:    pk.DBName,
			PKType:      pk.FieldType,
			Serialize:   view.Serialize,
			Deserialize: view.Deserialize,
		},
	}
	if reg.collection == "" {
		reg.collection = src.Table()
	}
	if reg.urlPrefix == "" {
		reg.urlPrefix = datamodel.DefaultURLPrefix
	}
	for propName, acc := range src.Accessors() {
		if _, ok := desc.Properties[propName]; ok {
			reg.accessors[propName] = acc
		}
	}

	if err := s.store(reg); err != nil {
		return err
	}

	codec.RegisterEntity(s.codecs, name, reg.entity)

	s.endpoints.RemoveCollection(reg.collection)
	for propName := range desc.Properties {
		s.endpoints.Add(datamodel.PropertyEndpoint, reg.urlPrefix, reg.collection, propName)
	}
	for methodName := range methods {
		s.endpoints.Add(datamodel.MethodEndpoint, reg.urlPrefix, reg.collection, methodName)
	}

	log.Printf("Registered model %s as collection %s (%d attributes, %d relations, %d properties, %d methods)",
		name, reg.collection, len(desc.Attributes), len(desc.Relations), len(desc.Properties), len(methods))

	return s.rebuild()
}

func (s *ModelService) store(reg *registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if other, ok := s.byCollection[reg.collection]; ok && other.name != reg.name {
		return fmt.Errorf("collection %s is already registered by %s", reg.collection, other.name)
	}

	if prev, ok := s.byName[reg.name]; ok {
		delete(s.byCollection, prev.collection)
		delete(s.byType, prev.model)
		for i, r := range s.registrations {
			if r == prev {
				s.registrations[i] = reg
				break
			}
		}
	} else {
		s.registrations = append(s.registrations, reg)
	}

	s.byName[reg.name] = reg
	s.byCollection[reg.collection] = reg
	s.byType[reg.model] = reg
	return nil
}

func (s *ModelService) lookupCollection(collection string) (*registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byCollection[collection]
	return reg, ok
}

func (s *ModelService) lookupType(t reflect.Type) (*registration, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byType[t]
	return reg, ok
}

// Assemble builds a fresh document from the current registrations
func (s *ModelService) Assemble() Document {
	s.mu.RLock()
	regs := make([]*registration, len(s.registrations))
	copy(regs, s.registrations)
	s.mu.RUnlock()

	identities := make(map[string]map[string]string)
	for _, r := range regs {
		if r.poly.On != "" {
			identities[r.name] = make(map[string]string)
		}
	}
	for _, r := range regs {
		if r.poly.Identity == "" || r.poly.Parent == "" {
			continue
		}
		m, ok := identities[r.poly.Parent]
		if !ok {
			m = make(map[string]string)
			identities[r.poly.Parent] = m
		}
		m[r.poly.Identity] = r.name
	}

	doc := make(Document, len(regs)+1)
	for _, r := range regs {
		entity := &EntityDocument{
			PKName:         r.desc.PKName,
			CollectionName: r.collection,
			URLPrefix:      r.urlPrefix,
			Attributes:     make(map[string]string, len(r.desc.Attributes)),
			Relations:      make(map[string]datamodel.RelationDescription, len(r.desc.Relations)),
			Properties:     make(map[string]bool, len(r.desc.Properties)),
			Methods:        make(map[string]*datamodel.Method, len(r.methods)),
		}
		for k, v := range r.desc.Attributes {
			entity.Attributes[k] = v
		}
		for k, v := range r.desc.Relations {
			entity.Relations[k] = v
		}
		for k, v := range r.desc.Properties {
			entity.Properties[k] = v
		}
		for k, v := range r.methods {
			entity.Methods[k] = v
		}

		if r.poly.On != "" || r.poly.Identity != "" {
			poly := make(map[string]any)
			if r.poly.On != "" {
				poly["on"] = r.poly.On
				ids := make(map[string]string, len(identities[r.name]))
				for k, v := range identities[r.name] {
					ids[k] = v
				}
				poly["identities"] = ids
			}
			if r.poly.Identity != "" {
				poly["identity"] = r.poly.Identity
				if r.poly.Parent != "" {
					poly["parent"] = r.poly.Parent
				}
			}
			entity.Polymorphic = poly
		}

		doc[r.name] = entity
	}

	doc[MetaEntryName] = MetaDocument{
		ServerVersion:    ServerVersion,
		SerializeNaively: s.codecs.Options().SerializeNaively,
		PayloadFormat:    s.options.PayloadFormat,
	}
	return doc
}

func (s *ModelService) rebuild() error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	doc := s.Assemble()
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal data model: %w", err)
	}
	s.document.Store(&snapshot{doc: doc, raw: raw})
	return nil
}

// Document returns the published document. Callers must not modify it.
func (s *ModelService) Document() Document {
	return s.document.Load().doc
}

// DocumentJSON returns the published document as JSON
func (s *ModelService) DocumentJSON() []byte {
	return s.document.Load().raw
}
