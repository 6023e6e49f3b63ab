package entity

import (
	"errors"

	"github.com/vadim/igdm-console/internal/domain/common"
)

// Validation errors for payloads returned by the backend
var (
	ErrMissingUserID       = errors.New("user id is missing")
	ErrMissingFacebookID   = errors.New("user facebook_id is missing")
	ErrMissingAccountID    = errors.New("account id is missing")
	ErrMissingBusinessID   = errors.New("instagram_business_account_id is missing")
	ErrMissingPageID       = errors.New("page_id is missing")
	ErrMissingPageToken    = errors.New("page_access_token is missing")
	ErrMissingAuthURL      = errors.New("auth_url is missing")
	ErrAccountNotConnected = errors.New("account is not connected")
)

// User is the signed-in dashboard user
type User struct {
	ID         int64       `json:"id"`
	FacebookID string      `json:"facebook_id"`
	Email      string      `json:"email,omitempty"`
	Name       string      `json:"name,omitempty"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  common.Time `json:"created_at"`
}

// Validate checks the fields the console relies on
func (u User) Validate() error {
	if u.ID <= 0 {
		return ErrMissingUserID
	}
	if u.FacebookID == "" {
		return ErrMissingFacebookID
	}
	return nil
}

// DisplayName returns the best human-readable label for the user
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.FacebookID
	}
}

// InstagramAccount is an Instagram Business account linked to the user
type InstagramAccount struct {
	ID                         int64       `json:"id"`
	UserID                     int64       `json:"user_id,omitempty"`
	InstagramBusinessAccountID string      `json:"instagram_business_account_id"`
	Username                   string      `json:"username,omitempty"`
	ProfilePictureURL          string      `json:"profile_picture_url,omitempty"`
	PageID                     string      `json:"page_id"`
	PageAccessToken            string      `json:"page_access_token,omitempty"`
	TokenExpiresAt             common.Time `json:"token_expires_at"`
	IsActive                   bool        `json:"is_active"`
	CreatedAt                  common.Time `json:"created_at"`
	UpdatedAt                  common.Time `json:"updated_at"`
}

// Validate checks the fields the console relies on
func (a InstagramAccount) Validate() error {
	if a.ID <= 0 {
		return ErrMissingAccountID
	}
	if a.InstagramBusinessAccountID == "" {
		return ErrMissingBusinessID
	}
	return nil
}

// Handle returns "@username", falling back to the business account id
func (a InstagramAccount) Handle() string {
	if a.Username != "" {
		return "@" + a.Username
	}
	return a.InstagramBusinessAccountID
}

// AvailableAccount is a business account the user may connect
type AvailableAccount struct {
	InstagramBusinessAccountID string `json:"instagram_business_account_id"`
	Username                   string `json:"username,omitempty"`
	ProfilePictureURL          string `json:"profile_picture_url,omitempty"`
	PageID                     string `json:"page_id"`
	PageName                   string `json:"page_name,omitempty"`
	PageAccessToken            string `json:"page_access_token"`
}

// Validate checks that the account carries everything needed to connect it
func (a AvailableAccount) Validate() error {
	if a.InstagramBusinessAccountID == "" {
		return ErrMissingBusinessID
	}
	if a.PageID == "" {
		return ErrMissingPageID
	}
	if a.PageAccessToken == "" {
		return ErrMissingPageToken
	}
	return nil
}

// ConnectRequest builds the payload for connecting this account
func (a AvailableAccount) ConnectRequest() ConnectRequest {
	return ConnectRequest{
		InstagramBusinessAccountID: a.InstagramBusinessAccountID,
		Username:                   a.Username,
		ProfilePictureURL:          a.ProfilePictureURL,
		PageID:                     a.PageID,
		PageAccessToken:            a.PageAccessToken,
	}
}

// ConnectRequest is the body of POST /api/instagram/connect
type ConnectRequest struct {
	InstagramBusinessAccountID string `json:"instagram_business_account_id"`
	Username                   string `json:"username,omitempty"`
	ProfilePictureURL          string `json:"profile_picture_url,omitempty"`
	PageID                     string `json:"page_id"`
	PageAccessToken            string `json:"page_access_token"`
}

// Validate checks required fields before the request is sent
func (r ConnectRequest) Validate() error {
	if r.InstagramBusinessAccountID == "" {
		return ErrMissingBusinessID
	}
	if r.PageID == "" {
		return ErrMissingPageID
	}
	if r.PageAccessToken == "" {
		return ErrMissingPageToken
	}
	return nil
}

// LoginURL is the response of GET /api/auth/login
type LoginURL struct {
	AuthURL string `json:"auth_url"`
}

// Validate checks that a redirect target was returned
func (l LoginURL) Validate() error {
	if l.AuthURL == "" {
		return ErrMissingAuthURL
	}
	return nil
}

// FindAccount returns the account with the given id, or the first one when
// id is zero. ok is false when accounts is empty or the id is unknown.
func FindAccount(accounts []InstagramAccount, id int64) (InstagramAccount, bool) {
	if len(accounts) == 0 {
		return InstagramAccount{}, false
	}
	if id == 0 {
		return accounts[0], true
	}
	for _, acc := range accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return InstagramAccount{}, false
}
