package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username             string             `bson:"username" json:"username" validate:"required,min=3,max=30"`
	Email                string             `bson:"email" json:"email" validate:"required,email"`
	Password             string             `bson:"password" json:"-"`
	Role                 string             `bson:"role" json:"role"`
	IsActive             bool               `bson:"isActive" json:"isActive"`
	LastLogin            *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	ResetPasswordToken   string             `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires *time.Time         `bson:"resetPasswordExpires,omitempty" json:"-"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Sanitized returns a copy safe to attach to a request context or serialize.
func (u *User) Sanitized() *User {
	c := *u
	c.Password = ""
	c.ResetPasswordToken = ""
	c.ResetPasswordExpires = nil
	return &c
}

// AdminStats is the aggregate view behind GET /api/admin/stats.
type AdminStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	ActiveUsers  int64 `json:"activeUsers"`
	BlockedUsers int64 `json:"blockedUsers"`
	AdminUsers   int64 `json:"adminUsers"`
	RegularUsers int64 `json:"regularUsers"`
	RecentUsers  int64 `json:"recentUsers"`
	ActivityRate int   `json:"activityRate"`
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// FindByEmailOrUsername returns the first user matching either value, or
	// nil when none exists.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	// FindConflicting checks uniqueness for profile updates: any other user
	// (id excluded) holding the given username or email.
	FindConflicting(ctx context.Context, exclude primitive.ObjectID, username, email string) (*User, error)
	GetUserByResetToken(ctx context.Context, token string) (*User, error)
	SaveUser(ctx context.Context, user *User) error
	ListUsers(ctx context.Context, limit int64) ([]*User, error)
	GetAdminStats(ctx context.Context) (*AdminStats, error)
}
