package models

import (
	"strings"

	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
	"gorm.io/gorm"
)

// EngineerIdentity is the discriminator value of engineers
const EngineerIdentity = "engineer"

// Engineer is a Person with a primary language
type Engineer struct {
	Person
	PrimaryLanguage string `gorm:"size:64" json:"primary_language"`
}

// TableName specifies the table name
func (Engineer) TableName() string {
	return "engineers"
}

func (Engineer) ModelPolymorphism() datamodel.Polymorphism {
	return datamodel.Polymorphism{Identity: EngineerIdentity}
}

// BeforeSave keeps the discriminator in step with the type
func (e *Engineer) BeforeSave(tx *gorm.DB) error {
	e.Kind = EngineerIdentity
	return nil
}

// Speaks reports whether language is the engineer's primary language
func (e *Engineer) Speaks(language string) bool {
	return strings.EqualFold(e.PrimaryLanguage, language)
}
