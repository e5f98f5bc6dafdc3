package spotify

import "testing"

func TestEntityURL(t *testing.T) {
	if got := EntityURL("track", "abc123"); got != "https://open.spotify.com/track/abc123" {
		t.Errorf("EntityURL = %q", got)
	}
}

func TestEncodeGID(t *testing.T) {
	tests := []struct {
		gid  string
		want string
	}{
		{"ce7e5b7244f44b1db0dd1ab25aa0d33b", "6hEadmw67vh2ZHwpXe1u4j"},
		{"d2b546befecc4d352d9f76ab0c33148d", "6pBeoxKf8xkL0ecFVleUUt"},
		{"00000000000000000000000000000000", "0000000000000000000000"},
		{"ffffffffffffffffffffffffffffffff", "7N42dgm5tFLK9N8MT7fHC7"},
	}

	for _, tt := range tests {
		got, err := EncodeGID(tt.gid)
		if err != nil {
			t.Fatalf("EncodeGID(%q): %v", tt.gid, err)
		}
		if got != tt.want {
			t.Errorf("EncodeGID(%q) = %q, want %q", tt.gid, got, tt.want)
		}

		back, err := DecodeID(got)
		if err != nil {
			t.Fatalf("DecodeID(%q): %v", got, err)
		}
		if back != tt.gid {
			t.Errorf("DecodeID(%q) = %q, want %q", got, back, tt.gid)
		}
	}
}

func TestEncodeGIDMalformed(t *testing.T) {
	if _, err := EncodeGID("not-hex"); err == nil {
		t.Error("expected error for malformed hex")
	}
}

func TestDecodeIDInvalidCharacter(t *testing.T) {
	if _, err := DecodeID("abc!def"); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestParseEntityURI(t *testing.T) {
	tests := []struct {
		uri      string
		kind, id string
		ok       bool
	}{
		{"spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "playlist", "37i9dQZF1DXcBWIGoYBM5M", true},
		{"spotify:album:4aawyAB9vmqN3uQ7FjRGTy", "album", "4aawyAB9vmqN3uQ7FjRGTy", true},
		{"spotify:user:wizzler:collection", "wizzler", "collection", true},
		{"not a uri", "", "", false},
	}

	for _, tt := range tests {
		kind, id, ok := ParseEntityURI(tt.uri)
		if kind != tt.kind || id != tt.id || ok != tt.ok {
			t.Errorf("ParseEntityURI(%q) = (%q, %q, %t), want (%q, %q, %t)",
				tt.uri, kind, id, ok, tt.kind, tt.id, tt.ok)
		}
	}
}

func TestSplitTrackURI(t *testing.T) {
	kind, id := SplitTrackURI("spotify:track:6rqhFgbbKwnb9MLmUQDhG6")
	if kind != "track" || id != "6rqhFgbbKwnb9MLmUQDhG6" {
		t.Errorf("SplitTrackURI = (%q, %q)", kind, id)
	}

	kind, id = SplitTrackURI("spotify:episode:512ojhOuo1ktJprKbVcKyQ")
	if kind != "episode" || id != "512ojhOuo1ktJprKbVcKyQ" {
		t.Errorf("SplitTrackURI = (%q, %q)", kind, id)
	}
}

func TestIsLikedSongsContext(t *testing.T) {
	if !IsLikedSongsContext("spotify:user:wizzler:collection") {
		t.Error("expected liked songs context to match")
	}
	if IsLikedSongsContext("spotify:playlist:37i9dQZF1DXcBWIGoYBM5M") {
		t.Error("playlist context should not match")
	}
}
