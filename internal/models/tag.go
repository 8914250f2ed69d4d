package models

import (
	"time"
)

// Tag labels computers
type Tag struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Label     string     `gorm:"uniqueIndex;size:255;not null" json:"label"`
	Color     string     `gorm:"type:varchar(16)" json:"color"`
	CreatedAt time.Time  `json:"created_at"`
	Computers []Computer `gorm:"many2many:computer_tags;" json:"computers,omitempty"`
}

// TableName overrides the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
