package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/history"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

func TestFormatTrack(t *testing.T) {
	t.Run("includes the duration when known", func(t *testing.T) {
		track := &services.Track{Name: "Song", Artist: "Band", Duration: 195000}

		got := FormatTrack(track)
		if got != "Band - Song [3:15]" {
			t.Errorf("unexpected track label: %q", got)
		}
	})

	t.Run("omits an unknown duration", func(t *testing.T) {
		track := &services.Track{Name: "Song", Artist: "Band"}

		if got := FormatTrack(track); got != "Band - Song" {
			t.Errorf("unexpected track label: %q", got)
		}
	})

	t.Run("handles nil", func(t *testing.T) {
		if got := FormatTrack(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestFormatResult(t *testing.T) {
	result := &engine.Result{
		Added:          []string{"1a2B3c4D5e6F7g8H9i0J1k"},
		AlreadyPresent: []string{"2a2B3c4D5e6F7g8H9i0J1k"},
		Failed:         map[string]string{"3a2B3c4D5e6F7g8H9i0J1k": "permission denied"},
		LikedStatus:    engine.LikedAdded,
	}
	names := map[string]string{
		"1a2B3c4D5e6F7g8H9i0J1k": "Top Tracks",
		"2a2B3c4D5e6F7g8H9i0J1k": "Chill",
	}

	got := FormatResult(result, names)

	if !strings.HasPrefix(got, result.Summary()) {
		t.Errorf("expected the summary line first, got %q", got)
	}
	if !strings.Contains(got, "Top Tracks") || !strings.Contains(got, "Chill") {
		t.Errorf("expected playlist names substituted, got %q", got)
	}
	if !strings.Contains(got, "3a2B3c4D5e6F7g8H9i0J1k") {
		t.Errorf("expected the raw id for unknown playlists, got %q", got)
	}
	if !strings.Contains(got, "permission denied") {
		t.Errorf("expected the failure reason, got %q", got)
	}
}

func TestFormatResultLikedFailure(t *testing.T) {
	result := &engine.Result{
		Added:        []string{"1a2B3c4D5e6F7g8H9i0J1k"},
		LikedStatus:  engine.LikedFailed,
		LikedMessage: "library service down",
	}

	got := FormatResult(result, nil)
	if !strings.Contains(got, "library service down") {
		t.Errorf("expected the liked failure reason, got %q", got)
	}
}

func TestFormatPlaylists(t *testing.T) {
	t.Run("renders aligned columns", func(t *testing.T) {
		playlists := []services.Playlist{
			{ID: "1a2B3c4D5e6F7g8H9i0J1k", Name: "Top Tracks", Owner: "listener", TrackCount: 42},
			{ID: "2a2B3c4D5e6F7g8H9i0J1k", Name: "Chill", Owner: "listener", TrackCount: 7},
		}

		got := FormatPlaylists(playlists)

		if !strings.Contains(got, "NAME") || !strings.Contains(got, "ID") {
			t.Errorf("expected a header row, got %q", got)
		}
		if !strings.Contains(got, "Top Tracks") || !strings.Contains(got, "42") {
			t.Errorf("expected playlist rows, got %q", got)
		}
	})

	t.Run("handles an empty listing", func(t *testing.T) {
		if got := FormatPlaylists(nil); !strings.Contains(got, "no playlists") {
			t.Errorf("expected a friendly empty message, got %q", got)
		}
	})
}

func TestFormatBindings(t *testing.T) {
	t.Run("joins playlist labels", func(t *testing.T) {
		bindings := []shared.Binding{
			{Combo: "Ctrl+Shift+1", Playlists: []string{"1a2B3c4D5e6F7g8H9i0J1k", "2a2B3c4D5e6F7g8H9i0J1k"}},
		}
		names := map[string]string{"1a2B3c4D5e6F7g8H9i0J1k": "Top Tracks"}

		got := FormatBindings(bindings, names)

		if !strings.Contains(got, "Ctrl+Shift+1") {
			t.Errorf("expected the combo, got %q", got)
		}
		if !strings.Contains(got, "Top Tracks, 2a2B3c4D5e6F7g8H9i0J1k") {
			t.Errorf("expected labels joined with a comma, got %q", got)
		}
	})

	t.Run("handles no bindings", func(t *testing.T) {
		if got := FormatBindings(nil, nil); !strings.Contains(got, "no bindings") {
			t.Errorf("expected a friendly empty message, got %q", got)
		}
	})
}

func TestFormatHistory(t *testing.T) {
	t.Run("renders rows with details", func(t *testing.T) {
		entries := []history.Entry{
			{
				Combo:       "Ctrl+Shift+1",
				TrackID:     "4uLU6hMCjMI75M1A2tKUQC",
				TrackName:   "Band - Song",
				Added:       2,
				LikedStatus: "added",
				Detail:      "2 added; liked: added",
				CreatedAt:   time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				TrackID:   "5uLU6hMCjMI75M1A2tKUQC",
				Failed:    1,
				CreatedAt: time.Date(2025, time.March, 1, 11, 0, 0, 0, time.UTC),
			},
		}

		got := FormatHistory(entries)

		if !strings.Contains(got, "Band - Song") {
			t.Errorf("expected the track name, got %q", got)
		}
		if !strings.Contains(got, "2 added; liked: added") {
			t.Errorf("expected the stored detail, got %q", got)
		}
		if !strings.Contains(got, "5uLU6hMCjMI75M1A2tKUQC") {
			t.Errorf("expected the track id fallback, got %q", got)
		}
		if !strings.Contains(got, "0 added, 0 already present, 1 failed") {
			t.Errorf("expected a computed outcome when detail is missing, got %q", got)
		}
	})

	t.Run("handles an empty log", func(t *testing.T) {
		if got := FormatHistory(nil); !strings.Contains(got, "no history") {
			t.Errorf("expected a friendly empty message, got %q", got)
		}
	})
}
