package models

import "time"

// Stage groups tasks and is shown as a card on the landing page.
type Stage struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Order       int64     `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is a rankable item inside a stage.
type Task struct {
	ID          int64     `json:"id"`
	StageID     int64     `json:"stage_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Order       int64     `json:"order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role controls which write paths a user may reach.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// ValidRoles enumerates the roles accepted by the store.
var ValidRoles = map[Role]struct{}{
	RoleUser:      {},
	RoleAdmin:     {},
	RoleSuperuser: {},
}

// Privileged reports whether the role may edit official rankings and stages.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperuser
}

// User is an account able to submit rankings.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRanking is one user's rank for one task in one stage.
type UserRanking struct {
	UserID    int64     `json:"user_id"`
	StageID   int64     `json:"stage_id"`
	TaskID    int64     `json:"task_id"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfficialRanking is the ground-truth rank of a task within its stage.
type OfficialRanking struct {
	StageID   int64     `json:"stage_id"`
	TaskID    int64     `json:"task_id"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ranks maps a task id to the rank assigned to it.
type Ranks map[int64]int
