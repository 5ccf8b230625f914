// Spotify API implementation
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/veqro/cueup/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// IsPremium reports whether the account can use playback control endpoints.
func (u *SpotifyUser) IsPremium() bool {
	return u.Product == "premium"
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifySearchResult represents the tracks portion of a search response.
type SpotifySearchResult struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService brokers the Spotify Web API for the route handlers.
//
// User-scoped calls take the access token as a parameter because tokens are
// per-DJ and live in the token cache, not in this struct. Search uses an
// app-level client-credentials token instead.
type SpotifyService struct {
	config     *oauth2.Config
	search     *clientcredentials.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8000/callback"
	}

	// Overridable for proxies and tests; defaults are the real endpoints.
	tokenURL := credentials["token_url"]
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	apiURL := credentials["api_url"]
	if apiURL == "" {
		apiURL = spotifyBaseURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-modify-playback-state",
			"user-read-playback-state",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: tokenURL,
		},
	}

	search := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &SpotifyService{
		config:     config,
		search:     search,
		httpClient: http.DefaultClient,
		baseURL:    apiURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so a DJ can switch accounts.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("show_dialog", "true"),
	)
}

// Exchange trades an authorization code for a token pair.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh trades a refresh token for a fresh access token.
//
// Implements [auth.TokenExchange]. Spotify usually omits a rotated refresh
// token from the response, so only the access token and its lifetime are
// returned.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (string, time.Duration, error) {
	source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return "", 0, fmt.Errorf("refresh exchange: %w", err)
	}

	expiresIn := time.Until(token.Expiry)
	if expiresIn <= 0 {
		// Some providers omit expiry; Spotify access tokens live an hour.
		expiresIn = time.Hour
	}

	return token.AccessToken, expiresIn, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, accessToken string, result interface{}) (int, error) {
	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// UserProfile retrieves the profile behind an access token.
func (s *SpotifyService) UserProfile(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if _, err := s.doRequest(ctx, "GET", "/me", accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchTracks searches the catalog using the app's client-credentials token.
//
// Attendees hit this without any session, so no user token is involved.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	token, err := s.search.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials grant: %w", err)
	}

	endpoint := fmt.Sprintf("/search?type=track&limit=%d&q=%s", limit, url.QueryEscape(query))

	var result SpotifySearchResult
	if _, err := s.doRequest(ctx, "GET", endpoint, token.AccessToken, &result); err != nil {
		return nil, err
	}

	return result.Tracks.Items, nil
}

// QueueTrack pushes a track URI into the user's active player queue.
//
// Spotify answers 404 when no device is playing; that maps to
// [shared.ErrNoActiveDevice] so the handler can tell the attendee-facing
// error apart from a real failure.
func (s *SpotifyService) QueueTrack(ctx context.Context, accessToken, uri string) error {
	endpoint := fmt.Sprintf("/me/player/queue?uri=%s", url.QueryEscape(uri))

	status, err := s.doRequest(ctx, "POST", endpoint, accessToken, nil)
	if status == http.StatusNotFound {
		return shared.ErrNoActiveDevice
	}
	if err != nil {
		return fmt.Errorf("queue request: %w", err)
	}

	return nil
}
