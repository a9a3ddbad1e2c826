package models

import "time"

type Account struct {
	ID               string
	Email            string
	FullName         string
	Phone            string
	PassHash         []byte
	IsVerified       bool
	VerificationCode *string
	CodeExpiresAt    *time.Time
	School           *string
	Course           *string
	Year             *string
	Country          *string
	Bio              *string
	Interests        []string
	AvatarURL        *string
	SocialLinks      map[string]string
	ProfileCompleted bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasPendingCode reports whether a verification code is currently attached.
// The code and its expiry are always set or cleared together.
func (a *Account) HasPendingCode() bool {
	return a.VerificationCode != nil && a.CodeExpiresAt != nil
}

// PublicAccount is the client-facing view. It never carries the password
// hash or the verification code.
type PublicAccount struct {
	ID               string            `json:"id"`
	FullName         string            `json:"fullName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	IsVerified       bool              `json:"isVerified"`
	School           *string           `json:"school"`
	Course           *string           `json:"course"`
	Year             *string           `json:"year"`
	Country          *string           `json:"country"`
	Bio              *string           `json:"bio"`
	Interests        []string          `json:"interests"`
	AvatarURL        *string           `json:"avatar"`
	SocialLinks      map[string]string `json:"socialLinks"`
	ProfileCompleted bool              `json:"profileCompleted"`
}

func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:               a.ID,
		FullName:         a.FullName,
		Email:            a.Email,
		Phone:            a.Phone,
		IsVerified:       a.IsVerified,
		School:           a.School,
		Course:           a.Course,
		Year:             a.Year,
		Country:          a.Country,
		Bio:              a.Bio,
		Interests:        a.Interests,
		AvatarURL:        a.AvatarURL,
		SocialLinks:      a.SocialLinks,
		ProfileCompleted: a.ProfileCompleted,
	}
}

// EmailMessage is the payload published to the mail queue.
type EmailMessage struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}
