package models

import "time"

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name           string    `gorm:"size:255;not null;default:''" json:"name"`
	Phone          string    `gorm:"size:14" json:"phone"`
	ProfilePicture string    `json:"profile_picture"`
	PasswordHash   string    `gorm:"not null" json:"-"` // never serialized
	IsActive       bool      `gorm:"default:false" json:"is_active"`
	IsStaff        bool      `gorm:"default:false" json:"is_staff"`
	IsSuperuser    bool      `gorm:"default:false" json:"is_superuser"`
	OTP            string    `gorm:"size:6" json:"-"`
	OTPExpiry      time.Time `json:"-"`
	DateJoined     time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

type SocialLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_social_links_user_name" json:"user"`
	Name      string    `gorm:"size:255;uniqueIndex:idx_social_links_user_name" json:"name"`
	Link      string    `gorm:"size:511" json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

// Slugs are nullable so that untitled rows do not collide on the unique index.

type Collection struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;index"`
	Name      string  `gorm:"size:50;uniqueIndex;not null"`
	Slug      *string `gorm:"size:50;uniqueIndex"`
	Color     string  `gorm:"size:50"`
	CreatedAt time.Time
	LastUsed  time.Time
}

type Mood struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"` // nulled when the owner is deleted
	Color     string `gorm:"size:100"`
	Emoji     string `gorm:"size:100"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

type Chapter struct {
	ID          uint    `gorm:"primaryKey"`
	UserID      uint    `gorm:"not null;index"`
	Color       string  `gorm:"size:50"`
	Title       string  `gorm:"size:255"`
	Description string  `gorm:"type:text"`
	IsArchived  bool    `gorm:"default:false"`
	IsFavourite bool    `gorm:"default:false"`
	Slug        *string `gorm:"size:255;uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Collections []Collection `gorm:"many2many:chapter_collections;"`
	Entries     []Entry      `gorm:"foreignKey:ChapterID"`
}

type Entry struct {
	ID          uint    `gorm:"primaryKey"`
	UserID      uint    `gorm:"not null;index"`
	Title       string  `gorm:"size:255"`
	Content     string  `gorm:"type:text;not null"`
	Slug        *string `gorm:"size:255;uniqueIndex"`
	IsArchived  bool    `gorm:"default:false;index"`
	IsFavourite bool    `gorm:"default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Collections []Collection `gorm:"many2many:entry_collections;"`
	MoodID      *uint        `gorm:"index"`
	Mood        *Mood
	ChapterID   *uint `gorm:"index"`
	Chapter     *Chapter
}

// RevokedToken is the revocation list. Rows can be pruned once ExpiresAt has passed.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"`
	TokenID   string    `gorm:"size:36;uniqueIndex;not null"`
	UserID    uint      `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
	RevokedAt time.Time
}
