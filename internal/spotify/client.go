package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	spotifyweb "github.com/zmb3/spotify"
	"golang.org/x/oauth2"
)

const (
	tokenURL        = "https://accounts.spotify.com/api/token"
	metadataBaseURL = "https://spclient.wg.spotify.com/metadata/4"
)

// Client talks to the Spotify web and metadata APIs on behalf of one
// account. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	web        spotifyweb.Client
	tokens     oauth2.TokenSource
}

// NewClient creates an API client using the refresh token flow.
func NewClient(ctx context.Context, clientID, clientSecret, refreshToken string) *Client {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenURL,
		},
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
	}

	// The TokenSource is concurrency-safe and handles token refreshes automatically.
	tokenSource := conf.TokenSource(ctx, token)
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return &Client{
		httpClient: httpClient,
		web:        spotifyweb.NewClient(httpClient),
		tokens:     tokenSource,
	}
}

// HTTPClient exposes the authenticated transport for collaborators that
// issue their own requests (device registration, dealer handshake).
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// AccessToken returns a currently valid bearer token.
func (c *Client) AccessToken() (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	return token.AccessToken, nil
}

// QueryEntity fetches an entity's metadata record by public id and
// kind. The metadata API addresses entities by hex gid, so the id is
// decoded first.
func (c *Client) QueryEntity(ctx context.Context, id, kind string) (*EntityMetadata, error) {
	gid, err := DecodeID(id)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/%s", metadataBaseURL, kind, gid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close metadata response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata query for %s %s: unexpected status %s", kind, id, resp.Status)
	}

	var metadata EntityMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("decoding %s %s metadata: %w", kind, id, err)
	}
	return &metadata, nil
}

// Playlist fetches a playlist's name and owner from the public web API.
func (c *Client) Playlist(ctx context.Context, id string) (*Playlist, error) {
	full, err := c.web.GetPlaylist(spotifyweb.ID(id))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s: %w", id, err)
	}
	return &Playlist{
		ID:   string(full.ID),
		Name: full.Name,
		Owner: PlaylistOwner{
			ID:          full.Owner.ID,
			DisplayName: full.Owner.DisplayName,
		},
	}, nil
}

// Me fetches the authenticated account's profile.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	user, err := c.web.CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	profile := &UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	}
	for _, image := range user.Images {
		profile.ImageURLs = append(profile.ImageURLs, image.URL)
	}
	return profile, nil
}
