package models

// JobCategory tags coffee chats and courses. Top-level categories have no parent.
type JobCategory struct {
	ID       int64  `json:"id" db:"id" gorm:"primaryKey"`
	Name     string `json:"name" db:"name" gorm:"uniqueIndex;not null"`
	ParentID *int64 `json:"parentId,omitempty" db:"parent_id"`
}
