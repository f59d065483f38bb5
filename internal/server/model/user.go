package model

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username     string `gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(64);not null"` // hex sha256
	Role         string `gorm:"type:varchar(16);not null;default:user"`
}
