package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account. Roles is a JSON-encoded string list; the recognized
// values live in internal/role.
type User struct {
	gorm.Model
	Email        string                      `gorm:"uniqueIndex;size:255"`
	PasswordHash string                      `gorm:"size:255"`
	FirstName    string                      `gorm:"size:64"`
	LastName     string                      `gorm:"size:64"`
	Roles        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
}

// CV stores one candidate's submitted document. The aggregate lives in a
// JSONB column; FullName and Title are denormalized from the personal info
// so the listing's free-text search stays a plain indexed query.
type CV struct {
	gorm.Model
	UserID   uint           `gorm:"uniqueIndex"`
	User     User           `gorm:"constraint:OnDelete:CASCADE"`
	Document datatypes.JSON `gorm:"type:jsonb"`
	PhotoKey string         `gorm:"size:512"`
	FullName string         `gorm:"size:160;index"`
	Title    string         `gorm:"size:255;index"`
}
