package store

import (
	"database/sql"
	"time"
)

// UpsertPlaylist inserts or updates a playlist, keyed by (provider, id).
func (s *Store) UpsertPlaylist(p *Playlist) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlists (provider, id, name, owner_id, owner_display_name, snapshot_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(provider, id) DO UPDATE SET
				name=excluded.name, owner_id=excluded.owner_id,
				owner_display_name=excluded.owner_display_name, snapshot_id=excluded.snapshot_id`,
			p.Provider, p.ID, p.Name, p.OwnerID, p.OwnerDisplayName, p.SnapshotID)
		return err
	})
}

// GetPlaylist returns the playlist for (provider, id), or nil.
func (s *Store) GetPlaylist(provider Provider, id string) (*Playlist, error) {
	row := s.db.QueryRow(`
		SELECT provider, id, name, owner_id, owner_display_name, snapshot_id
		FROM playlists WHERE provider=? AND id=?`, provider, id)
	var p Playlist
	if err := row.Scan(&p.Provider, &p.ID, &p.Name, &p.OwnerID, &p.OwnerDisplayName, &p.SnapshotID); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}

// AllPlaylists returns every playlist for provider.
func (s *Store) AllPlaylists(provider Provider) ([]*Playlist, error) {
	rows, err := s.db.Query(`
		SELECT provider, id, name, owner_id, owner_display_name, snapshot_id
		FROM playlists WHERE provider=?`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.Provider, &p.ID, &p.Name, &p.OwnerID, &p.OwnerDisplayName, &p.SnapshotID); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ReplacePlaylistTracks atomically replaces every entry of (provider,
// playlistID) with entries, re-indexed as dense 0-based positions, per
// spec §4.3's all-or-nothing replace invariant.
func (s *Store) ReplacePlaylistTracks(provider Provider, playlistID string, entries []PlaylistEntry) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE provider=? AND playlist_id=?`,
			provider, playlistID); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO playlist_tracks (provider, playlist_id, position, track_id, added_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for pos, e := range entries {
			if _, err := stmt.Exec(provider, playlistID, pos, e.TrackID, e.AddedAt.Unix()); err != nil {
				return err
			}
		}
		return nil
	})
}

// PlaylistTracks returns the entries of (provider, playlistID) in position order.
func (s *Store) PlaylistTracks(provider Provider, playlistID string) ([]PlaylistEntry, error) {
	rows, err := s.db.Query(`
		SELECT track_id, added_at FROM playlist_tracks
		WHERE provider=? AND playlist_id=? ORDER BY position`, provider, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlaylistEntry
	for rows.Next() {
		var e PlaylistEntry
		var addedAt int64
		if err := rows.Scan(&e.TrackID, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(addedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlaylistsContainingTracks returns the DISTINCT playlist ids that contain
// any of trackIDs, per spec §4.3.
func (s *Store) PlaylistsContainingTracks(provider Provider, trackIDs []string) ([]string, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	q, args := inClause(`
		SELECT DISTINCT playlist_id FROM playlist_tracks
		WHERE provider=? AND track_id IN (`, provider, trackIDs, `)`)
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpsertLikedEntry inserts or updates a "Liked Songs" entry.
func (s *Store) UpsertLikedEntry(provider Provider, e *LikedEntry) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO liked_tracks (provider, track_id, added_at) VALUES (?, ?, ?)
			ON CONFLICT(provider, track_id) DO UPDATE SET added_at=excluded.added_at`,
			provider, e.TrackID, e.AddedAt.Unix())
		return err
	})
}

// LikedEntriesForTracks returns the liked entries among trackIDs, per spec §4.3.
func (s *Store) LikedEntriesForTracks(provider Provider, trackIDs []string) ([]LikedEntry, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}
	q, args := inClause(`
		SELECT track_id, added_at FROM liked_tracks
		WHERE provider=? AND track_id IN (`, provider, trackIDs, `)`)
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LikedEntry
	for rows.Next() {
		var e LikedEntry
		var addedAt int64
		if err := rows.Scan(&e.TrackID, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(addedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllLikedEntries returns every "Liked Songs" entry for provider.
func (s *Store) AllLikedEntries(provider Provider) ([]LikedEntry, error) {
	rows, err := s.db.Query(`SELECT track_id, added_at FROM liked_tracks WHERE provider=?`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LikedEntry
	for rows.Next() {
		var e LikedEntry
		var addedAt int64
		if err := rows.Scan(&e.TrackID, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(addedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// AnyLiked reports whether any of trackIDs is in "Liked".
func (s *Store) AnyLiked(provider Provider, trackIDs []string) (bool, error) {
	entries, err := s.LikedEntriesForTracks(provider, trackIDs)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
