// person.go
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

package models

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
	"gorm.io/datatypes"
)

// ErrNoBirthDate is returned by date arithmetic on a person without a birth date
var ErrNoBirthDate = errors.New("birth date is not set")

// Person is the base of the people hierarchy, discriminated by Kind
type Person struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	BirthDate datatypes.Date `json:"birth_date"`
	Kind      string         `gorm:"size:32;index;default:person" json:"kind"`
	Nickname  string         `gorm:"size:64" json:"nickname"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName specifies the table name
func (Person) TableName() string {
	return "people"
}

func (Person) ModelPolymorphism() datamodel.Polymorphism {
	return datamodel.Polymorphism{On: "Kind"}
}

func (Person) ModelProperties() []datamodel.Property {
	return []datamodel.Property{
		{Name: "display_name", Getter: "DisplayName", Setter: "SetDisplayName"},
		{Name: "initials", Getter: "Initials"},
	}
}

func (Person) ModelHybrids() []datamodel.Hybrid {
	return []datamodel.Hybrid{{Name: "age", Getter: "Age"}}
}

func (Person) ModelMethods() map[string]datamodel.MethodSpec {
	return map[string]datamodel.MethodSpec{
		"AgeInXYearsYMonths": {
			Name:      "age_in_x_years_y_months",
			Args:      []string{"y_offset"},
			Kwargs:    []datamodel.Param{{Name: "m_offset", Default: 0}},
			ArgsVar:   "args",
			KwargsVar: "kwargs",
		},
		"Rename":         {Args: []string{"name"}},
		"Owns":           {Args: []string{"computer"}},
		"ComputerCount":  {},
		"NormalizeNames": {Name: "_normalize_names"},
	}
}

// DisplayName is the nickname when one is set, otherwise the name
func (p *Person) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Name
}

// SetDisplayName sets the nickname
func (p *Person) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("display name cannot be empty")
	}
	p.Nickname = name
	return nil
}

func (p *Person) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(p.Name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Age is the age in whole years today
func (p *Person) Age() int {
	birth := time.Time(p.BirthDate)
	if birth.IsZero() {
		return 0
	}
	now := time.Now()
	years := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		years--
	}
	return years
}

// AgeInXYearsYMonths returns the date yOffset years and mOffset months after
// the birth date.
func (p *Person) AgeInXYearsYMonths(yOffset int, mOffset int, kwargs map[string]any, args ...any) (datatypes.Date, error) {
	birth := time.Time(p.BirthDate)
	if birth.IsZero() {
		return datatypes.Date{}, ErrNoBirthDate
	}
	return datatypes.Date(birth.AddDate(yOffset, mOffset, 0)), nil
}

// Rename changes the name, persisted only when method commits are enabled
func (p *Person) Rename(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	p.Name = name
	return p.Name, nil
}

// Owns reports whether computer belongs to this person
func (p *Person) Owns(computer *Computer) bool {
	return computer != nil && computer.OwnerID != nil && *computer.OwnerID == p.ID
}

// ComputerCount counts the computers owned by this person
func (p *Person) ComputerCount(ctx context.Context) (int64, error) {
	db, ok := codec.DBFrom(ctx)
	if !ok {
		return 0, errors.New("no database in context")
	}
	var n int64
	err := db.Model(&Computer{}).Where("owner_id = ?", p.ID).Count(&n).Error
	return n, err
}

// NormalizeNames collapses repeated whitespace in the name
func (p *Person) NormalizeNames() string {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	return p.Name
}
