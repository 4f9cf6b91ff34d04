package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const RoleUser = "ROLE_USER"

// users
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Role         string `gorm:"type:varchar(32);not null"`
	DisplayName  string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
}

// Name возвращает отображаемое имя, а если оно пустое — часть email до "@".
func (u *User) Name() string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// refresh_tokens — долгоживущие токены обновления, ротируются при каждом использовании.
type RefreshToken struct {
	Token uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	ExpiresAt time.Time `gorm:"type:timestamp with time zone;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
