package entity

import (
	"time"
)

type User struct {
	ID             string    `json:"id" firestore:"-"`
	Name           string    `json:"name" firestore:"name"`
	Email          string    `json:"email,omitempty" firestore:"email,omitempty"`
	Phone          string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty" firestore:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Profile is the display subset the chat list needs for the other party.
type Profile struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.ID,
		Name:      u.Name,
		AvatarURL: u.ProfilePicture,
	}
}

// UnknownProfile is shown when a profile lookup fails.
func UnknownProfile(userID string) Profile {
	return Profile{UserID: userID, Name: "알 수 없음"}
}
