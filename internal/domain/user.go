package domain

import (
	"time"
)

type Role string

const (
	RoleConsultant       Role = "顾问"
	RoleSeniorConsultant Role = "资深顾问"
	RoleAdmin            Role = "管理员"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
