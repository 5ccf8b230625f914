package models

import (
	"fmt"
)

// WishStatus is the moderation state of a song request.
type WishStatus string

const (
	WishPending  WishStatus = "pending"
	WishAccepted WishStatus = "accepted"
	WishRejected WishStatus = "rejected"
)

// IsValid reports whether s is one of the known statuses.
func (s WishStatus) IsValid() bool {
	switch s {
	case WishPending, WishAccepted, WishRejected:
		return true
	}
	return false
}

// Wish represents an attendee's song request attached to an event.
type Wish struct {
	base
	eventID    string
	songID     string
	title      string
	artist     string
	album      string
	coverURL   string
	spotifyURI string
	status     WishStatus
}

// NewWish creates a pending Wish for the given event and song.
func NewWish(sequence int, eventID, songID, title string) *Wish {
	return &Wish{base: newBase(sequence), eventID: eventID, songID: songID, title: title, status: WishPending}
}

func (w *Wish) EventID() string    { return w.eventID }
func (w *Wish) SongID() string     { return w.songID }
func (w *Wish) Title() string      { return w.title }
func (w *Wish) Artist() string     { return w.artist }
func (w *Wish) Album() string      { return w.album }
func (w *Wish) CoverURL() string   { return w.coverURL }
func (w *Wish) SpotifyURI() string { return w.spotifyURI }
func (w *Wish) Status() WishStatus { return w.status }

func (w *Wish) SetArtist(artist string)  { w.artist = artist }
func (w *Wish) SetAlbum(album string)    { w.album = album }
func (w *Wish) SetCoverURL(url string)   { w.coverURL = url }
func (w *Wish) SetSpotifyURI(uri string) { w.spotifyURI = uri }
func (w *Wish) SetStatus(s WishStatus)   { w.status = s }

func (w *Wish) Validate() error {
	if w.eventID == "" {
		return fmt.Errorf("wish event_id is required")
	}
	if w.songID == "" {
		return fmt.Errorf("wish song_id is required")
	}
	if w.title == "" {
		return fmt.Errorf("wish title is required")
	}
	if !w.status.IsValid() {
		return fmt.Errorf("wish status %q is invalid", w.status)
	}
	return nil
}
