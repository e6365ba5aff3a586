package models

import "time"

const (
	RoleOwner   = "owner"
	RolePartner = "partner"
)

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)

// User carries the account and the cycle record the engine is evaluated against.
type User struct {
	ID                 uint       `gorm:"primaryKey"`
	Email              string     `gorm:"uniqueIndex;not null"`
	PasswordHash       string     `gorm:"not null"`
	Role               string     `gorm:"not null;default:owner"`
	DisplayName        string     `gorm:"not null;default:''"`
	MustChangePassword bool       `gorm:"not null;default:false"`
	CycleLength        int        `gorm:"not null;default:28"`
	PeriodLength       int        `gorm:"not null;default:5"`
	LastPeriodStart    *time.Time `gorm:"type:date"`
	LastPeriodEnd      *time.Time `gorm:"type:date"`
	TelegramChatID     int64      `gorm:"not null;default:0"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time
}

func (user *User) IsOwner() bool {
	return user != nil && user.Role == RoleOwner
}

func (user *User) HasCycleData() bool {
	return user != nil && user.LastPeriodStart != nil && !user.LastPeriodStart.IsZero()
}
