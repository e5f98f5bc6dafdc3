package spotify

import (
	"context"

	"github.com/justfoolingaround/spotify-webhooks/internal/cache"
)

// CachedClient memoizes Client lookups for the process lifetime.
// Entity metadata and playlists are treated as immutable once
// published, and the account profile as stable while the process runs.
type CachedClient struct {
	client    *Client
	entities  *cache.Cache[*EntityMetadata]
	playlists *cache.Cache[*Playlist]
	profiles  *cache.Cache[*UserProfile]
}

// NewCachedClient wraps client with memoization.
func NewCachedClient(client *Client) *CachedClient {
	return &CachedClient{
		client:    client,
		entities:  cache.New[*EntityMetadata](),
		playlists: cache.New[*Playlist](),
		profiles:  cache.New[*UserProfile](),
	}
}

// Entity returns an entity's metadata, fetching it at most once per
// distinct (kind, id).
func (c *CachedClient) Entity(ctx context.Context, id, kind string) (*EntityMetadata, error) {
	return c.entities.GetOrFetch(ctx, cache.Key(kind, id), func(ctx context.Context) (*EntityMetadata, error) {
		return c.client.QueryEntity(ctx, id, kind)
	})
}

// Playlist returns a playlist, fetching it at most once per id.
func (c *CachedClient) Playlist(ctx context.Context, id string) (*Playlist, error) {
	return c.playlists.GetOrFetch(ctx, cache.Key("playlist", id), func(ctx context.Context) (*Playlist, error) {
		return c.client.Playlist(ctx, id)
	})
}

// Me returns the account profile, fetched once per process.
func (c *CachedClient) Me(ctx context.Context) (*UserProfile, error) {
	return c.profiles.GetOrFetch(ctx, cache.Key("me"), func(ctx context.Context) (*UserProfile, error) {
		return c.client.Me(ctx)
	})
}
