package datamodel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

type Person struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	BirthDate datatypes.Date
	Computers []Computer `gorm:"foreignKey:OwnerID"`
	Passport  *Passport  `gorm:"foreignKey:HolderID"`
}

func (Person) ModelProperties() []Property {
	return []Property{
		{Name: "display_name", Getter: "DisplayName", Setter: "SetDisplayName"},
		{Name: "initials", Getter: "Initials"},
	}
}

func (Person) ModelMethods() map[string]MethodSpec {
	return map[string]MethodSpec{
		"AgeInXYearsYMonths": {
			Name:      "age_in_x_years_y_months",
			Args:      []string{"y_offset"},
			Kwargs:    []Param{{Name: "m_offset", Default: 0}},
			ArgsVar:   "args",
			KwargsVar: "kwargs",
		},
		"Secret": {Name: "_secret"},
		"Dunder": {Name: "__dunder"},
	}
}

func (p *Person) DisplayName() string { return strings.ToUpper(p.Name) }

func (p *Person) SetDisplayName(v string) error {
	if v == "" {
		return errors.New("empty name")
	}
	p.Name = v
	return nil
}

func (p *Person) Initials() string {
	if p.Name == "" {
		return ""
	}
	return p.Name[:1]
}

func (p *Person) AgeInXYearsYMonths(yOffset int, mOffset int, kwargs map[string]any, args ...any) datatypes.Date {
	return datatypes.Date(time.Time(p.BirthDate).AddDate(yOffset, mOffset, 0))
}

func (p *Person) Hello() string { return "hello " + p.Name }

func (p *Person) Greet(ctx context.Context, name string) string { return "hi " + name }

func (p *Person) Tags(prefix string, rest ...string) []string { return append([]string{prefix}, rest...) }

func (p *Person) Secret() string { return "secret" }

func (p *Person) Dunder() string { return "dunder" }

type Passport struct {
	ID       uint `gorm:"primaryKey"`
	Number   string
	HolderID uint
	Holder   *Person
}

type Computer struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255"`
	Vendor       string `gorm:"size:255"`
	PurchaseTime time.Time
	OwnerID      *uint
	Owner        *Person
}

func (Computer) ModelProxies() []Proxy {
	return []Proxy{
		{Name: "owner_name", Relation: "Owner", Remote: "Name"},
		{Name: "peers", Relation: "Owner", Remote: "Computers"},
	}
}

type Staff struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
	Kind string `gorm:"size:32"`
}

func (Staff) ModelPolymorphism() Polymorphism { return Polymorphism{On: "Kind"} }

func (Staff) ModelHybrids() []Hybrid { return []Hybrid{{Name: "name", Getter: "UpperName"}} }

func (s *Staff) UpperName() string { return strings.ToUpper(s.Name) }

type Engineer struct {
	Staff
	Language string `gorm:"size:64"`
}

func (Engineer) ModelPolymorphism() Polymorphism { return Polymorphism{Identity: "engineer"} }

type Pair struct {
	Left  uint `gorm:"primaryKey"`
	Right uint `gorm:"primaryKey"`
}

type BadAccessor struct {
	ID uint `gorm:"primaryKey"`
}

func (BadAccessor) ModelProperties() []Property {
	return []Property{{Name: "missing", Getter: "Missing"}}
}

type Ledger struct {
	ID      int64   `gorm:"primaryKey;type:bigint"`
	Code    string  `gorm:"type:varchar(16)"`
	Label   string  `gorm:"type:nvarchar(64)"`
	Notes   string  `gorm:"type:longtext"`
	Amount  float64 `gorm:"type:decimal(10,2)"`
	Rate    float64 `gorm:"type:double precision"`
	Payload []byte  `gorm:"type:jsonb"`
	Opened  string  `gorm:"type:timestamp with time zone"`
	Shape   string  `gorm:"type:geometry"`
}

func newSource(t *testing.T, model any) *GormSource {
	t.Helper()
	src, err := NewGormSource(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return src
}
