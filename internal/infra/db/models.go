package db

import "time"

type DocumentModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Owner     string    `gorm:"index;not null"`
	Title     string    `gorm:"not null"`
	Hash      string    `gorm:"index;not null"`
	TxHash    string    `gorm:""`
	ContentID string    `gorm:""`
	FileURL   string    `gorm:""`
	Metadata  []byte    `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (DocumentModel) TableName() string {
	return "documents"
}
