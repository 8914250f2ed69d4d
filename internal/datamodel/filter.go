package datamodel

import (
	"fmt"
	"strings"
)

// Filter restricts which names appear in a description. Exclusion is applied
// before inclusion and an empty list imposes no constraint.
type Filter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

// NewFilter builds a filter, rejecting names that are both included and
// excluded.
func NewFilter(include, exclude []string) (Filter, error) {
	f := Filter{}
	if len(include) > 0 {
		f.include = make(map[string]struct{}, len(include))
		for _, name := range include {
			f.include[finalSegment(name)] = struct{}{}
		}
	}
	if len(exclude) > 0 {
		f.exclude = make(map[string]struct{}, len(exclude))
		for _, name := range exclude {
			name = finalSegment(name)
			if _, both := f.include[name]; both {
				return Filter{}, fmt.Errorf("%q is both included and excluded", name)
			}
			f.exclude[name] = struct{}{}
		}
	}
	return f, nil
}

// Allows reports whether name passes the filter. Qualified names such as
// "people.name" are matched on their final segment.
func (f Filter) Allows(name string) bool {
	name = finalSegment(name)
	if _, ok := f.exclude[name]; ok {
		return false
	}
	if f.include == nil {
		return true
	}
	_, ok := f.include[name]
	return ok
}

func finalSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
