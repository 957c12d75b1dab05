package models

import (
	"time"

	"gorm.io/datatypes"
)

// Dataset is one ingested spreadsheet in normalized header/row form.
// Datasets are immutable once created; the only mutation is deletion.
type Dataset struct {
	Base
	OwnerID    string                              `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner      *User                               `gorm:"foreignKey:OwnerID" json:"-"`
	FileName   string                              `gorm:"not null" json:"fileName"`
	Headers    datatypes.JSONSlice[string]         `gorm:"not null" json:"headers"`
	Rows       datatypes.JSONSlice[map[string]any] `gorm:"not null" json:"data"`
	RowCount   int                                 `gorm:"not null;default:0" json:"rowCount"`
	UploadDate time.Time                           `gorm:"not null;index" json:"uploadDate"`
}
