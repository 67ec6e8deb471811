package dto

import "time"

// UpdateProfileInput leaves a field untouched when it is empty.
type UpdateProfileInput struct {
	FullName        string `json:"full_name" validate:"omitempty,min=2,max=100,fullname"`
	CurrentPassword string `json:"current_password" validate:"omitempty,max=128"`
	NewPassword     string `json:"new_password" validate:"omitempty,min=8,max=72,password"`
}

type UpdatedFields struct {
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password,omitempty"`
}

type ProfileOutput struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login"`
}

type StatsOutput struct {
	TotalUsers   int `json:"total_users"`
	ActiveUsers  int `json:"active_users"`
	RecentLogins int `json:"recent_logins"`
	LockedUsers  int `json:"locked_users"`
}

type LoginHistoryEntry struct {
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	Success     bool      `json:"success"`
	AttemptedAt time.Time `json:"attempted_at"`
}
