package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type Student struct {
	ID        int64      `db:"id"`
	Mobile    string     `db:"mobile"`
	Name      *string    `db:"name"`
	Email     *string    `db:"email"`
	OTP       *string    `db:"otp"`
	OTPExpiry *time.Time `db:"otp_expiry"`
}

type Admin struct {
	ID        int64      `db:"id"`
	Mobile    string     `db:"mobile"`
	Name      string     `db:"name"`
	Hash      string     `db:"password_hash"`
	OTP       *string    `db:"otp"`
	OTPExpiry *time.Time `db:"otp_expiry"`
}

// User is the session-attached identity handed to handlers.
type User struct {
	ID     int64  `json:"id"`
	Role   Role   `json:"role"`
	Mobile string `json:"mobile"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// OwnerTag is the role-tagged identifier stored on orders.
func (u User) OwnerTag() string {
	return fmt.Sprintf("%s:%d", u.Role, u.ID)
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
