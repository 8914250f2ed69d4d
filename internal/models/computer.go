package models

import (
	"context"
	"errors"
	"time"

	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
)

// Computer is a device optionally owned by a person
type Computer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Vendor       string    `gorm:"size:255" json:"vendor"`
	PurchaseTime time.Time `json:"purchase_time"`
	Specs        JSON      `json:"specs"`
	OwnerID      *uint     `gorm:"index" json:"owner_id"`
	Owner        *Person   `gorm:"constraint:OnDelete:SET NULL" json:"owner,omitempty"`
	Tags         []Tag     `gorm:"many2many:computer_tags;" json:"tags,omitempty"`
}

// TableName specifies the table name
func (Computer) TableName() string {
	return "computers"
}

func (Computer) ModelProxies() []datamodel.Proxy {
	return []datamodel.Proxy{
		{Name: "owner_name", Relation: "Owner", Remote: "Name"},
	}
}

func (Computer) ModelMethods() map[string]datamodel.MethodSpec {
	return map[string]datamodel.MethodSpec{
		"Owned":      {Args: []string{"as_of"}},
		"TransferTo": {Args: []string{"person"}},
	}
}

// Owned is how long the computer has been owned as of the given time
func (c *Computer) Owned(asOf time.Time) time.Duration {
	if c.PurchaseTime.IsZero() || asOf.Before(c.PurchaseTime) {
		return 0
	}
	return asOf.Sub(c.PurchaseTime)
}

// TransferTo changes the owner. A nil person releases the computer.
func (c *Computer) TransferTo(ctx context.Context, person *Person) (*Person, error) {
	if person == nil {
		c.OwnerID = nil
		c.Owner = nil
		return nil, nil
	}
	if person.ID == 0 {
		return nil, errors.New("cannot transfer to an unsaved person")
	}
	c.OwnerID = &person.ID
	c.Owner = person
	return person, nil
}
