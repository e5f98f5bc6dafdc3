package spotify

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// The public id alphabet and length used in open.spotify.com URLs.
// Ids are 16-byte gids re-encoded as big-endian base62, left-padded
// with '0' to 22 characters. The alphabet order matters; do not touch.
const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength   = 22
	gidBytes   = 16
)

var (
	entityURIRe = regexp.MustCompile(`^spotify:(?:user:)?(.+?):([a-zA-Z0-9]+)$`)
	likedURIRe  = regexp.MustCompile(`spotify:user:.+?:collection`)

	idBase = big.NewInt(int64(len(idAlphabet)))
)

// EntityURL returns the canonical web URL for an entity. Kind and id
// are passed through as given.
func EntityURL(kind, id string) string {
	return fmt.Sprintf("https://open.spotify.com/%s/%s", kind, id)
}

// EncodeGID converts a hex-encoded 16-byte gid into the public base62
// id form used in URLs.
func EncodeGID(hexGID string) (string, error) {
	raw, err := hex.DecodeString(hexGID)
	if err != nil {
		return "", fmt.Errorf("malformed gid %q: %w", hexGID, err)
	}

	n := new(big.Int).SetBytes(raw)
	digits := make([]byte, 0, idLength)
	rem := new(big.Int)
	for n.Sign() > 0 {
		n.QuoRem(n, idBase, rem)
		digits = append(digits, idAlphabet[rem.Int64()])
	}
	for len(digits) < idLength {
		digits = append(digits, idAlphabet[0])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits), nil
}

// DecodeID is the inverse of EncodeGID: it converts a base62 public id
// back into the 32-character hex gid used by the metadata API.
func DecodeID(id string) (string, error) {
	n := new(big.Int)
	for i := 0; i < len(id); i++ {
		d := strings.IndexByte(idAlphabet, id[i])
		if d < 0 {
			return "", fmt.Errorf("invalid character %q in id %q", id[i], id)
		}
		n.Mul(n, idBase)
		n.Add(n, big.NewInt(int64(d)))
	}
	raw := n.Bytes()
	if len(raw) > gidBytes {
		return "", fmt.Errorf("id %q overflows a %d-byte gid", id, gidBytes)
	}
	buf := make([]byte, gidBytes)
	copy(buf[gidBytes-len(raw):], raw)
	return hex.EncodeToString(buf), nil
}

// ParseEntityURI extracts the kind and id from a spotify: reference.
// For a liked-songs context ("spotify:user:<id>:collection") the kind
// group captures the owning user's id and the id group captures
// "collection", mirroring how the player reports that context.
func ParseEntityURI(uri string) (kind, id string, ok bool) {
	m := entityURIRe.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// SplitTrackURI resolves the entity kind and id of a track reference,
// taking the last two colon-delimited segments.
func SplitTrackURI(uri string) (kind, id string) {
	parts := strings.Split(uri, ":")
	if len(parts) < 2 {
		return "", uri
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// IsLikedSongsContext reports whether a context uri denotes the
// synthetic liked-songs collection.
func IsLikedSongsContext(uri string) bool {
	return likedURIRe.MatchString(uri)
}
