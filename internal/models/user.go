package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        UserRole
	Status      UserStatus
	AvatarURL   *string
	// FlagCount only ever grows; the keyword filter bumps it on severe matches.
	FlagCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
