package spotify

// Cluster is a device-state snapshot pushed by the dealer connection.
// Numeric fields arrive as JSON strings, matching the connect-state wire
// format.
type Cluster struct {
	PlayerState       *PlayerState      `json:"player_state,omitempty"`
	Devices           map[string]Device `json:"devices,omitempty"`
	ActiveDeviceID    string            `json:"active_device_id,omitempty"`
	ServerTimestampMs int64             `json:"server_timestamp_ms,string,omitempty"`
}

// PlayerState describes what the account is playing right now.
// Track is nil when nothing is loaded; Duration is nil for content
// without a known length (live streams, some episodes).
type PlayerState struct {
	Track                 *ProvidedTrack `json:"track,omitempty"`
	ContextURI            string         `json:"context_uri,omitempty"`
	PositionAsOfTimestamp int64          `json:"position_as_of_timestamp,string,omitempty"`
	Duration              *int64         `json:"duration,string,omitempty"`
	IsPaused              bool           `json:"is_paused,omitempty"`
	Options               *PlayerOptions `json:"options,omitempty"`
}

// ProvidedTrack is the compact track reference inside a player state.
type ProvidedTrack struct {
	URI string `json:"uri,omitempty"`
}

// PlayerOptions are the repeat/shuffle toggles of the active player.
type PlayerOptions struct {
	RepeatingTrack   bool `json:"repeating_track,omitempty"`
	RepeatingContext bool `json:"repeating_context,omitempty"`
	ShufflingContext bool `json:"shuffling_context,omitempty"`
}

// Device is one entry of the cluster's device table. Volume uses the
// connect 16-bit scale (0..65535).
type Device struct {
	Name             string `json:"name,omitempty"`
	IsPrivateSession bool   `json:"is_private_session,omitempty"`
	Volume           uint32 `json:"volume,omitempty"`
}

// EntityMetadata is the internal metadata API's record for a track,
// album, show or episode. The shape varies by entity kind: tracks carry
// Album and Artists, episodes carry Show and CoverImage, albums and
// shows carry only their own cover group. Callers must branch on which
// sub-structures are present.
type EntityMetadata struct {
	GID        string       `json:"gid,omitempty"`
	Name       string       `json:"name,omitempty"`
	Album      *AlbumRef    `json:"album,omitempty"`
	CoverImage *ImageGroup  `json:"cover_image,omitempty"`
	Artists    []EntityLink `json:"artist,omitempty"`
	Show       *EntityLink  `json:"show,omitempty"`
}

// AlbumRef is the album sub-structure of a track's metadata.
type AlbumRef struct {
	GID        string     `json:"gid,omitempty"`
	Name       string     `json:"name,omitempty"`
	CoverGroup ImageGroup `json:"cover_group"`
}

// EntityLink is a named reference to another entity, id given as a hex
// gid.
type EntityLink struct {
	GID  string `json:"gid,omitempty"`
	Name string `json:"name,omitempty"`
}

// ImageGroup holds cover art files, ordered smallest to largest.
type ImageGroup struct {
	Images []ImageFile `json:"image,omitempty"`
}

// ImageFile is one cover art rendition on the image CDN.
type ImageFile struct {
	FileID string `json:"file_id,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Playlist is the subset of the public playlist object the notifier
// renders.
type Playlist struct {
	ID    string
	Name  string
	Owner PlaylistOwner
}

// PlaylistOwner identifies the user a playlist belongs to.
type PlaylistOwner struct {
	ID          string
	DisplayName string
}

// UserProfile is the authenticated account's public profile.
type UserProfile struct {
	ID          string
	DisplayName string
	ImageURLs   []string
}
