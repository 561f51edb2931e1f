package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FullName     string    `json:"fullName" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	ProfileImg   string    `json:"profileImg" db:"profile_img"`
	CoverImg     string    `json:"coverImg" db:"cover_img"`
	Bio          string    `json:"bio" db:"bio"`
	Link         string    `json:"link" db:"link"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserProfile is a user together with its derived social-graph views.
type UserProfile struct {
	User
	Followers  []uuid.UUID `json:"followers"`
	Following  []uuid.UUID `json:"following"`
	LikedPosts []uuid.UUID `json:"likedPosts"`
}

// UserSummary is the public subset embedded in posts, comments and notifications.
type UserSummary struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Username   string    `json:"username" db:"username"`
	FullName   string    `json:"fullName" db:"full_name"`
	ProfileImg string    `json:"profileImg" db:"profile_img"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}
