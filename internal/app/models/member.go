package models

import "time"

// Member is a registered platform user that can host or join coffee chats
type Member struct {
	ID        int64     `json:"id" db:"id" gorm:"primaryKey"`
	Email     string    `json:"email" db:"email" gorm:"uniqueIndex;not null"`
	Nickname  string    `json:"nickname" db:"nickname" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
