package datamodel

import (
	"path"
	"sort"
	"sync"
)

// EndpointKind separates method endpoints from property endpoints.
type EndpointKind string

const (
	MethodEndpoint   EndpointKind = "method"
	PropertyEndpoint EndpointKind = "property"
)

// Endpoint is one remotely reachable member of a collection.
type Endpoint struct {
	Kind       EndpointKind
	Collection string
	Name       string
	Path       string
}

type endpointKey struct {
	kind       EndpointKind
	collection string
	name       string
}

// Endpoints is the capability table consulted by the generic routes.
type Endpoints struct {
	mu      sync.RWMutex
	entries map[endpointKey]Endpoint
}

// NewEndpoints creates an empty table.
func NewEndpoints() *Endpoints {
	return &Endpoints{entries: make(map[endpointKey]Endpoint)}
}

// Add records an endpoint under urlPrefix, replacing an earlier entry with
// the same key.
func (e *Endpoints) Add(kind EndpointKind, urlPrefix, collection, name string) Endpoint {
	ep := Endpoint{
		Kind:       kind,
		Collection: collection,
		Name:       name,
		Path:       path.Join("/", urlPrefix, string(kind), collection, ":instid", name),
	}

	e.mu.Lock()
	e.entries[endpointKey{kind, collection, name}] = ep
	e.mu.Unlock()

	return ep
}

// RemoveCollection drops every endpoint of collection.
func (e *Endpoints) RemoveCollection(collection string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.entries {
		if k.collection == collection {
			delete(e.entries, k)
		}
	}
}

// Lookup reports whether the endpoint exists.
func (e *Endpoints) Lookup(kind EndpointKind, collection, name string) (Endpoint, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ep, ok := e.entries[endpointKey{kind, collection, name}]
	return ep, ok
}

// List returns all endpoints ordered by path.
func (e *Endpoints) List() []Endpoint {
	e.mu.RLock()
	list := make([]Endpoint, 0, len(e.entries))
	for _, ep := range e.entries {
		list = append(list, ep)
	}
	e.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list
}
