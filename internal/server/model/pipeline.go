package model

import "gorm.io/gorm"

// Pipeline stores one immutable version of a declaration document.
// Updates insert a new row with Version+1; runs reference the exact
// row they executed.
type Pipeline struct {
	gorm.Model
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_name_version"`
	Description string `gorm:"type:text"`
	Version     int    `gorm:"not null;uniqueIndex:idx_name_version"`
	Config      string `gorm:"type:text;not null"` // declaration document as submitted
}
