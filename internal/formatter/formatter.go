// package formatter renders domain objects as terminal text: trigger results,
// playlist listings, bindings, and history rows.
package formatter

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/history"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// FormatTrack renders a track as "Artist - Name [m:ss]". The duration is
// omitted when unknown.
func FormatTrack(track *services.Track) string {
	if track == nil {
		return ""
	}

	label := track.Label()
	if track.Duration > 0 {
		return fmt.Sprintf("%s [%s]", label, formatDuration(track.Duration))
	}
	return label
}

// formatDuration renders milliseconds as m:ss.
func formatDuration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatResult renders a mutation outcome: the summary line followed by one
// row per playlist. Playlist names are substituted where the lookup knows
// them.
func FormatResult(result *engine.Result, names map[string]string) string {
	var b strings.Builder

	b.WriteString(result.Summary())
	b.WriteString("\n")

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, id := range result.Added {
		fmt.Fprintf(w, "  added\t%s\n", playlistLabel(id, names))
	}
	for _, id := range result.AlreadyPresent {
		fmt.Fprintf(w, "  already present\t%s\n", playlistLabel(id, names))
	}
	for id, reason := range result.Failed {
		fmt.Fprintf(w, "  failed\t%s\t%s\n", playlistLabel(id, names), reason)
	}
	if result.LikedStatus == engine.LikedFailed && result.LikedMessage != "" {
		fmt.Fprintf(w, "  liked\tfailed\t%s\n", result.LikedMessage)
	}
	w.Flush()

	return b.String()
}

// playlistLabel prefers the playlist name over the raw id.
func playlistLabel(id string, names map[string]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

// FormatPlaylists renders a playlist listing as aligned columns.
func FormatPlaylists(playlists []services.Playlist) string {
	if len(playlists) == 0 {
		return "no playlists\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tTRACKS\tOWNER\tID")
	for _, playlist := range playlists {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", playlist.Name, playlist.TrackCount, playlist.Owner, playlist.ID)
	}
	w.Flush()

	return b.String()
}

// FormatBindings renders the configured combo → playlist bindings.
func FormatBindings(bindings []shared.Binding, names map[string]string) string {
	if len(bindings) == 0 {
		return "no bindings configured\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "COMBO\tPLAYLISTS")
	for _, binding := range bindings {
		labels := make([]string, 0, len(binding.Playlists))
		for _, id := range binding.Playlists {
			labels = append(labels, playlistLabel(id, names))
		}
		fmt.Fprintf(w, "%s\t%s\n", binding.Combo, strings.Join(labels, ", "))
	}
	w.Flush()

	return b.String()
}

// FormatHistory renders history rows newest first, as Recent returns them.
func FormatHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "no history yet\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "WHEN\tCOMBO\tTRACK\tOUTCOME")
	for _, entry := range entries {
		track := entry.TrackName
		if track == "" {
			track = entry.TrackID
		}
		outcome := entry.Detail
		if outcome == "" {
			outcome = fmt.Sprintf("%d added, %d already present, %d failed", entry.Added, entry.AlreadyPresent, entry.Failed)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.Combo, track, outcome)
	}
	w.Flush()

	return b.String()
}
