package model

import "time"

// User is the identity a bookmark instance belongs to. Credentials live elsewhere.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:150;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
