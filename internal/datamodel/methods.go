// methods.go
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
	"context"
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Method is an invocable instance method: its public signature and the
// binding information the invocation bridge needs.
type Method struct {
	Args      []string `json:"args"`
	Kwargs    []string `json:"kwargs"`
	ArgsVar   *string  `json:"argsvar"`
	KwargsVar *string  `json:"kwargsvar"`

	Name     string         `json:"-"`
	Func     reflect.Method `json:"-"`
	Defaults []any          `json:"-"`
	Context  bool           `json:"-"`
}

// Offset is the index of the first bound parameter in the method's function
// type, after the receiver and an injected context.
func (m *Method) Offset() int {
	if m.Context {
		return 2
	}
	return 1
}

// Visible applies the naming policy to a wire name: double underscore names
// are always hidden and single underscore names unless includeInternal.
func Visible(name string, includeInternal bool) bool {
	if strings.HasPrefix(name, "__") {
		return false
	}
	if strings.HasPrefix(name, "_") {
		return includeInternal
	}
	return true
}

// Catalog lists the exported methods of model's pointer type that may be
// invoked remotely, keyed by wire name.
func Catalog(model reflect.Type, specs map[string]MethodSpec, reserved map[string]bool,
	namer schema.Namer, includeInternal bool) (map[string]*Method, error) {
	ptr := reflect.PointerTo(model)
	catalog := make(map[string]*Method)

	for i := 0; i < ptr.NumMethod(); i++ {
		fn := ptr.Method(i)
		if reserved[fn.Name] {
			continue
		}

		spec, declared := specs[fn.Name]
		name := spec.Name
		if name == "" {
			name = namer.ColumnName("", fn.Name)
		}
		if !Visible(name, includeInternal) {
			continue
		}
		if prev, dup := catalog[name]; dup {
			return nil, fmt.Errorf("%s: methods %s and %s share the name %q", model.Name(), prev.Func.Name, fn.Name, name)
		}

		m, err := bindSignature(fn, spec, declared)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", model.Name(), fn.Name, err)
		}
		m.Name = name
		catalog[name] = m
	}

	for goName := range specs {
		if _, ok := ptr.MethodByName(goName); !ok {
			return nil, fmt.Errorf("%s.%s: %w", model.Name(), goName, ErrUnknownMember)
		}
	}

	return catalog, nil
}

func bindSignature(fn reflect.Method, spec MethodSpec, declared bool) (*Method, error) {
	ft := fn.Type
	m := &Method{Func: fn, Args: []string{}, Kwargs: []string{}}

	start := 1
	if ft.NumIn() > 1 && ft.In(1) == contextType {
		m.Context = true
		start = 2
	}
	params := ft.NumIn() - start

	if !declared {
		positional := params
		if ft.IsVariadic() {
			positional--
			m.ArgsVar = strPtr("args")
		}
		for i := 0; i < positional; i++ {
			m.Args = append(m.Args, fmt.Sprintf("arg%d", i))
		}
		return m, nil
	}

	want := len(spec.Args) + len(spec.Kwargs)
	if spec.KwargsVar != "" {
		want++
	}
	if spec.ArgsVar != "" {
		want++
	}
	if want != params {
		return nil, fmt.Errorf("declares %d parameters, function has %d", want, params)
	}
	if (spec.ArgsVar != "") != ft.IsVariadic() {
		return nil, fmt.Errorf("variadic parameter must be declared as ArgsVar")
	}
	if spec.KwargsVar != "" {
		kt := ft.In(start + len(spec.Args) + len(spec.Kwargs))
		if kt.Kind() != reflect.Map || kt.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("keyword collector %s must be a string keyed map, got %s", spec.KwargsVar, kt)
		}
		m.KwargsVar = strPtr(spec.KwargsVar)
	}
	if spec.ArgsVar != "" {
		m.ArgsVar = strPtr(spec.ArgsVar)
	}

	m.Args = append(m.Args, spec.Args...)
	for _, p := range spec.Kwargs {
		m.Kwargs = append(m.Kwargs, p.Name)
		m.Defaults = append(m.Defaults, p.Default)
	}
	return m, nil
}

func strPtr(s string) *string { return &s }
