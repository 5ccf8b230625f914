package models

import (
	"fmt"
)

// User represents a DJ account created through the Spotify login flow.
//
// The refresh token is stored encrypted; the envelope's ciphertext and IV
// columns are opaque to this package. An empty IV marks the fallback
// obfuscation scheme rather than the AEAD scheme.
type User struct {
	base
	username          string
	spotifyID         string
	spotifyName       string
	isPremium         bool
	refreshCiphertext string
	refreshIV         string
}

// NewUser creates a User linked to a Spotify account.
func NewUser(sequence int, username, spotifyID string) *User {
	return &User{base: newBase(sequence), username: username, spotifyID: spotifyID}
}

func (u *User) Username() string          { return u.username }
func (u *User) SpotifyID() string         { return u.spotifyID }
func (u *User) SpotifyName() string       { return u.spotifyName }
func (u *User) IsPremium() bool           { return u.isPremium }
func (u *User) RefreshCiphertext() string { return u.refreshCiphertext }
func (u *User) RefreshIV() string         { return u.refreshIV }

func (u *User) SetUsername(name string)    { u.username = name }
func (u *User) SetSpotifyName(name string) { u.spotifyName = name }
func (u *User) SetPremium(p bool)          { u.isPremium = p }

// SetRefreshEnvelope stores the encrypted refresh token envelope.
func (u *User) SetRefreshEnvelope(ciphertext, iv string) {
	u.refreshCiphertext = ciphertext
	u.refreshIV = iv
}

// ClearRefreshEnvelope drops the stored refresh token (spotify disconnect).
func (u *User) ClearRefreshEnvelope() {
	u.refreshCiphertext = ""
	u.refreshIV = ""
}

// HasRefreshToken reports whether an encrypted refresh token is on file.
func (u *User) HasRefreshToken() bool {
	return u.refreshCiphertext != ""
}

func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("user username is required")
	}
	if u.spotifyID == "" {
		return fmt.Errorf("user spotify_id is required")
	}
	return nil
}
