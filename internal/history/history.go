// package history persists one row per hotkey trigger so operators can audit
// what each press did.
//
// Rows live in the sqlite database configured under [database] in the config
// file; the schema ships as an embedded migration in the shared package.
package history

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// defaultRecentLimit bounds Recent queries that pass no explicit limit.
const defaultRecentLimit = 20

// Entry is one recorded trigger outcome.
type Entry struct {
	ID             string    `json:"id"`
	Combo          string    `json:"combo,omitempty"`
	TrackID        string    `json:"track_id"`
	TrackName      string    `json:"track_name,omitempty"`
	Added          int       `json:"added"`
	AlreadyPresent int       `json:"already_present"`
	Failed         int       `json:"failed"`
	LikedStatus    string    `json:"liked_status"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromResult flattens an engine result into an Entry. Failure reasons are
// folded into the detail line, sorted by playlist id so the text is stable.
func FromResult(combo string, track *services.Track, result *engine.Result) Entry {
	entry := Entry{
		Combo:          combo,
		TrackID:        result.TrackID,
		Added:          len(result.Added),
		AlreadyPresent: len(result.AlreadyPresent),
		Failed:         len(result.Failed),
		LikedStatus:    string(result.LikedStatus),
		Detail:         result.Summary(),
	}

	if entry.TrackID == "" {
		entry.TrackID = result.TrackURI
	}
	if track != nil {
		entry.TrackName = track.Label()
	}

	if len(result.Failed) > 0 {
		reasons := make([]string, 0, len(result.Failed))
		for playlistID, message := range result.Failed {
			reasons = append(reasons, fmt.Sprintf("%s: %s", playlistID, message))
		}
		sort.Strings(reasons)
		entry.Detail = result.Summary() + " (" + strings.Join(reasons, "; ") + ")"
	}

	return entry
}

// Store reads and writes history rows.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already-open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens the sqlite database at path, applies pool settings and pending
// migrations, and returns a ready Store. Path ":memory:" works for tests.
func Open(path string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, maxOpenConns, maxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts an entry with a generated id. CreatedAt defaults to now.
func (s *Store) Record(entry *Entry) error {
	if entry.TrackID == "" {
		return fmt.Errorf("%w: history entry needs a track id", shared.ErrInvalidInput)
	}

	entry.ID = shared.GenerateID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO history (id, combo, track_id, track_name, added, already_present, failed, liked_status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		entry.ID,
		entry.Combo,
		entry.TrackID,
		entry.TrackName,
		entry.Added,
		entry.AlreadyPresent,
		entry.Failed,
		entry.LikedStatus,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Recent returns the newest entries, most recent first. A non-positive limit
// falls back to a small default.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
		SELECT id, combo, track_id, track_name, added, already_present, failed, liked_status, detail, created_at
		FROM history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		err := rows.Scan(
			&entry.ID,
			&entry.Combo,
			&entry.TrackID,
			&entry.TrackName,
			&entry.Added,
			&entry.AlreadyPresent,
			&entry.Failed,
			&entry.LikedStatus,
			&entry.Detail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
