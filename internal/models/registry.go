package models

import (
	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
)

// Registration pairs a model with its view configuration
type Registration struct {
	Model any
	View  datamodel.ViewConfig
}

// Registrations lists the models served by the data model endpoints
func Registrations() []Registration {
	return []Registration{
		{Model: &Person{}, View: datamodel.ViewConfig{Exclude: []string{"created_at", "updated_at"}}},
		{Model: &Engineer{}, View: datamodel.ViewConfig{Exclude: []string{"created_at", "updated_at"}}},
		{Model: &Computer{}},
		{Model: &Tag{}, View: datamodel.ViewConfig{Include: []string{"id", "label", "color", "computers"}}},
	}
}

// All returns the models to migrate
func All() []any {
	regs := Registrations()
	all := make([]any, 0, len(regs))
	for _, r := range regs {
		all = append(all, r.Model)
	}
	return all
}
