// Package notify turns player-state events into webhook message
// documents.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/justfoolingaround/spotify-webhooks/internal/spotify"
	"github.com/justfoolingaround/spotify-webhooks/internal/webhook"
)

const (
	accentColor      = 0x1DB954
	debugAccentColor = 0x1DB9C9

	imageCDNBase = "https://i.scdn.co/image/"

	senderName      = "Spotify"
	senderAvatarURL = "https://developer.spotify.com/assets/branding-guidelines/icon3@2x.png"

	// Raw device volumes use the connect 16-bit scale.
	volumeScale = 65535.0
)

// MetadataSource resolves the remote lookups a build needs. Lookups are
// expected to be memoized; the builder calls them freely.
type MetadataSource interface {
	Entity(ctx context.Context, id, kind string) (*spotify.EntityMetadata, error)
	Playlist(ctx context.Context, id string) (*spotify.Playlist, error)
	Me(ctx context.Context) (*spotify.UserProfile, error)
}

// Diagnostics describes the real-time connection at the moment an event
// was delivered, rendered into the debug embed when enabled.
type Diagnostics struct {
	Latency       time.Duration
	LastEventType string // empty until the first event arrives
	DeviceID      string // the listener's fixed device identity
}

// Builder assembles one webhook message per player-state event.
type Builder struct {
	source MetadataSource
	debug  bool
}

// NewBuilder creates a builder over the given metadata source. With
// debug set, every message carries a second diagnostics embed.
func NewBuilder(source MetadataSource, debug bool) *Builder {
	return &Builder{source: source, debug: debug}
}

// Build renders one cluster event into a message document. A nil
// message with a nil error means the event carries nothing to render
// and callers must not publish anything.
func (b *Builder) Build(ctx context.Context, event *spotify.Cluster, diag Diagnostics) (*webhook.Message, error) {
	user, err := b.source.Me(ctx)
	if err != nil {
		return nil, err
	}

	if event.PlayerState == nil || event.PlayerState.Track == nil {
		return nil, nil
	}
	state := event.PlayerState

	trackKind, trackID := spotify.SplitTrackURI(state.Track.URI)
	track, err := b.source.Entity(ctx, trackID, trackKind)
	if err != nil {
		return nil, err
	}

	artistText, err := creditedArtists(track)
	if err != nil {
		return nil, err
	}

	var fields []webhook.Field
	if field, ok := devicesField(event); ok {
		fields = append(fields, field)
	}
	if state.ContextURI != "" {
		field, ok, err := b.contextField(ctx, state.ContextURI, trackID, user)
		if err != nil {
			return nil, err
		}
		if ok {
			fields = append(fields, field)
		}
	}
	if field, ok := optionsField(state.Options); ok {
		fields = append(fields, field)
	}

	elapsed := FormatDuration(state.PositionAsOfTimestamp)
	total := UnknownDuration
	if state.Duration != nil {
		total = FormatDuration(*state.Duration)
	}
	description := fmt.Sprintf(
		"[%s](%s) by %s\n**%s**/%s",
		track.Name, spotify.EntityURL(trackKind, trackID), artistText, elapsed, total,
	)

	title := "Now playing"
	if state.IsPaused {
		title = "Player paused"
	}

	timestamp := time.UnixMilli(event.ServerTimestampMs).UTC().Format(time.RFC3339)

	footer := &webhook.Footer{Text: user.DisplayName}
	if len(user.ImageURLs) > 0 {
		footer.IconURL = user.ImageURLs[0]
	}

	embed := webhook.Embed{
		Title:       title,
		Description: description,
		Color:       accentColor,
		Thumbnail:   thumbnail(track),
		Fields:      fields,
		Timestamp:   timestamp,
		Footer:      footer,
	}

	msg := &webhook.Message{
		Embeds:    []webhook.Embed{embed},
		Username:  senderName,
		AvatarURL: senderAvatarURL,
	}
	if b.debug {
		msg.Embeds = append(msg.Embeds, debugEmbed(event, diag, timestamp))
	}
	return msg, nil
}

// thumbnail picks the highest-resolution cover art: the last file of
// the album cover group, else of the entity's own cover image list.
func thumbnail(meta *spotify.EntityMetadata) *webhook.Thumbnail {
	var images []spotify.ImageFile
	switch {
	case meta.Album != nil:
		images = meta.Album.CoverGroup.Images
	case meta.CoverImage != nil:
		images = meta.CoverImage.Images
	}
	if len(images) == 0 {
		return nil
	}
	return &webhook.Thumbnail{URL: imageCDNBase + images[len(images)-1].FileID}
}

// creditedArtists renders the artist credit line: linked artists joined
// with ", ", else a link to the owning show, else a fixed fallback.
// Link ids come from the gid codec; a malformed gid fails loudly since
// a wrong link is worse than no message.
func creditedArtists(meta *spotify.EntityMetadata) (string, error) {
	if len(meta.Artists) > 0 {
		links := make([]string, 0, len(meta.Artists))
		for _, artist := range meta.Artists {
			id, err := spotify.EncodeGID(artist.GID)
			if err != nil {
				return "", err
			}
			links = append(links, fmt.Sprintf("[%s](%s)", artist.Name, spotify.EntityURL("artist", id)))
		}
		return strings.Join(links, ", "), nil
	}
	if meta.Show != nil {
		id, err := spotify.EncodeGID(meta.Show.GID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s](%s)", meta.Show.Name, spotify.EntityURL("show", id)), nil
	}
	return "Unknown artist", nil
}

// devicesField lists the cluster's devices, one per line, marking
// private sessions and the active device's volume. Devices are sorted
// by id for stable output.
func devicesField(event *spotify.Cluster) (webhook.Field, bool) {
	if len(event.Devices) == 0 {
		return webhook.Field{}, false
	}

	ids := make([]string, 0, len(event.Devices))
	for id := range event.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		device := event.Devices[id]
		line := device.Name
		if line == "" {
			line = id
		}
		if device.IsPrivateSession {
			line += " - Private Session"
		}
		if id == event.ActiveDeviceID {
			line += fmt.Sprintf(" (Active, volume: %.1f%%)", float64(device.Volume)*100/volumeScale)
		}
		lines = append(lines, line)
	}

	return webhook.Field{
		Name:   "Available devices",
		Value:  strings.Join(lines, "\n"),
		Inline: true,
	}, true
}

// contextField renders what the track is playing from. The field is
// dropped when the context reference cannot be parsed or when it is the
// track itself.
func (b *Builder) contextField(ctx context.Context, contextURI, trackID string, user *spotify.UserProfile) (webhook.Field, bool, error) {
	kind, id, ok := spotify.ParseEntityURI(contextURI)
	if !ok || id == trackID {
		return webhook.Field{}, false, nil
	}

	var value string
	switch {
	case kind == "playlist":
		playlist, err := b.source.Playlist(ctx, id)
		if err != nil {
			return webhook.Field{}, false, err
		}
		value = fmt.Sprintf(
			"[%s](%s)\nby [%s](%s)",
			playlist.Name, spotify.EntityURL(kind, id),
			playlist.Owner.DisplayName, spotify.EntityURL("user", playlist.Owner.ID),
		)
	case spotify.IsLikedSongsContext(contextURI):
		value = fmt.Sprintf(
			"Liked Songs\nby [%s](%s)",
			user.DisplayName, spotify.EntityURL("user", user.ID),
		)
		kind = "user collection"
	default:
		meta, err := b.source.Entity(ctx, id, kind)
		if err != nil {
			return webhook.Field{}, false, err
		}
		value = fmt.Sprintf("[%s](%s)", meta.Name, spotify.EntityURL(kind, id))
	}

	return webhook.Field{
		Name:   "Playing from " + kind,
		Value:  value,
		Inline: true,
	}, true, nil
}

// optionsField reports the active subset of the player toggles.
func optionsField(options *spotify.PlayerOptions) (webhook.Field, bool) {
	if options == nil {
		return webhook.Field{}, false
	}

	var texts []string
	if options.RepeatingTrack {
		texts = append(texts, "Repeating the track")
	}
	if options.RepeatingContext {
		texts = append(texts, "Repeating the context")
	}
	if options.ShufflingContext {
		texts = append(texts, "Shuffling")
	}
	if len(texts) == 0 {
		return webhook.Field{}, false
	}

	return webhook.Field{
		Name:   "Player Options",
		Value:  strings.Join(texts, " & "),
		Inline: true,
	}, true
}

// debugEmbed reports the state of the real-time connection alongside
// the primary embed.
func debugEmbed(event *spotify.Cluster, diag Diagnostics, timestamp string) webhook.Embed {
	eventText := "unavailable"
	if diag.LastEventType != "" {
		eventText = fmt.Sprintf("`%s`", diag.LastEventType)
	}

	_, visible := event.Devices[diag.DeviceID]

	description := fmt.Sprintf(
		"Latency: `%.1f`ms\n"+
			"Most recent event: %s\n"+
			"Listener device: `%s`\n"+
			"Listener invisibility: `%t`\n",
		float64(diag.Latency.Microseconds())/1000,
		eventText,
		diag.DeviceID,
		!visible,
	)

	return webhook.Embed{
		Title:       "For developers, by developers",
		Description: description,
		Color:       debugAccentColor,
		Timestamp:   timestamp,
		Footer: &webhook.Footer{
			Text: "spotify-webhooks Debugging",
		},
	}
}
