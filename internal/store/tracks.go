package store

import "database/sql"

// UpsertTrack inserts or updates a remote track, keyed by (provider, id).
func (s *Store) UpsertTrack(t *Track) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tracks (provider, id, name, artist_display, album, year, isrc, duration_ms, normalized)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(provider, id) DO UPDATE SET
				name=excluded.name, artist_display=excluded.artist_display,
				album=excluded.album, year=excluded.year, isrc=excluded.isrc,
				duration_ms=excluded.duration_ms, normalized=excluded.normalized`,
			t.Provider, t.ID, t.Name, t.ArtistDisplay, t.Album, t.Year, t.ISRC, t.DurationMS, t.Normalized)
		return err
	})
}

// GetTrack returns the track for (provider, id), or nil if none exists.
func (s *Store) GetTrack(provider Provider, id string) (*Track, error) {
	row := s.db.QueryRow(`
		SELECT provider, id, name, artist_display, album, year, isrc, duration_ms, normalized
		FROM tracks WHERE provider=? AND id=?`, provider, id)
	return scanTrack(row)
}

func scanTrack(row *sql.Row) (*Track, error) {
	var t Track
	err := row.Scan(&t.Provider, &t.ID, &t.Name, &t.ArtistDisplay, &t.Album, &t.Year, &t.ISRC, &t.DurationMS, &t.Normalized)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AllTracks returns every remote track for provider.
func (s *Store) AllTracks(provider Provider) ([]*Track, error) {
	rows, err := s.db.Query(`
		SELECT provider, id, name, artist_display, album, year, isrc, duration_ms, normalized
		FROM tracks WHERE provider=?`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]*Track, error) {
	var out []*Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.Provider, &t.ID, &t.Name, &t.ArtistDisplay, &t.Album, &t.Year, &t.ISRC, &t.DurationMS, &t.Normalized); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// TracksByIDs returns the tracks with the given ids, skipping any that
// don't exist.
func (s *Store) TracksByIDs(provider Provider, ids []string) ([]*Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args := inClause(`
		SELECT provider, id, name, artist_display, album, year, isrc, duration_ms, normalized
		FROM tracks WHERE provider=? AND id IN (`, provider, ids, `)`)
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// UnmatchedTracks returns every track for provider that has no row in
// matches.
func (s *Store) UnmatchedTracks(provider Provider) ([]*Track, error) {
	rows, err := s.db.Query(`
		SELECT t.provider, t.id, t.name, t.artist_display, t.album, t.year, t.isrc, t.duration_ms, t.normalized
		FROM tracks t
		LEFT JOIN matches m ON m.provider = t.provider AND m.track_id = t.id
		WHERE t.provider=? AND m.track_id IS NULL`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// inClause builds a "prefix (?, ?, ...) suffix" query and its arg list,
// with provider prepended as the first bind argument.
func inClause(prefix string, provider Provider, ids []string, suffix string) (string, []interface{}) {
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, provider)
	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, id)
	}
	return prefix + placeholders + suffix, args
}
