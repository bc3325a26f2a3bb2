package models

import "time"

type Announcement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"default:''"`
	AuthorID  *uint     `json:"authorId" gorm:"index"`
	Author    *User     `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL"`
	CreatedAt time.Time `json:"createdAt"`
}
