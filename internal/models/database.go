package models

import (
	"time"
)

// LogBlob stores a serialized document under a fixed name.
// The transaction log is kept as a single row that is fully replaced on each write.
type LogBlob struct {
	Name      string    `json:"name" gorm:"primaryKey;size:100"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName keeps the table name stable regardless of naming strategy
func (LogBlob) TableName() string {
	return "log_blob"
}
