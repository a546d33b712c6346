package store

import "database/sql"

// UpsertMatch writes a match row, replacing any existing match for
// (provider, track id). Callers are responsible for the MANUAL-is-sticky
// rule (spec §3 invariant 4, §4.7) — this method performs no such check,
// since the Store has no opinion about priority; internal/match enforces
// it before calling here.
func (s *Store) UpsertMatch(m *Match) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO matches (provider, track_id, file_id, score, method, confidence)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(provider, track_id) DO UPDATE SET
				file_id=excluded.file_id, score=excluded.score,
				method=excluded.method, confidence=excluded.confidence`,
			m.Provider, m.TrackID, m.FileID, m.Score, m.Method, m.Confidence)
		return err
	})
}

// GetMatch returns the match for (provider, track id), or nil.
func (s *Store) GetMatch(provider Provider, trackID string) (*Match, error) {
	row := s.db.QueryRow(`
		SELECT provider, track_id, file_id, score, method, confidence
		FROM matches WHERE provider=? AND track_id=?`, provider, trackID)
	var m Match
	if err := row.Scan(&m.Provider, &m.TrackID, &m.FileID, &m.Score, &m.Method, &m.Confidence); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &m, nil
}

// MatchedFileForTrack returns the library file matched to (provider,
// track id), or nil if the track is unmatched.
func (s *Store) MatchedFileForTrack(provider Provider, trackID string) (*LibraryFile, error) {
	m, err := s.GetMatch(provider, trackID)
	if err != nil || m == nil {
		return nil, err
	}
	return s.GetFile(m.FileID)
}

// DeleteMatchesByTrackIDs removes any match rows for the given track ids.
func (s *Store) DeleteMatchesByTrackIDs(provider Provider, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	q, args := inClause(`DELETE FROM matches WHERE provider=? AND track_id IN (`, provider, trackIDs, `)`)
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(q, args...)
		return err
	})
}

// DeleteMatchesByFileIDs removes any match rows referencing the given
// file ids. When preserveManual is true, MANUAL matches are excluded and
// survive; when false, they are deleted too (spec §4.7, §9 open question).
func (s *Store) DeleteMatchesByFileIDs(fileIDs []int64, preserveManual bool) error {
	if len(fileIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(fileIDs)+1)
	placeholders := ""
	for i, id := range fileIDs {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, id)
	}
	q := `DELETE FROM matches WHERE file_id IN (` + placeholders + `)`
	if preserveManual {
		q += ` AND confidence != ?`
		args = append(args, Manual)
	}
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(q, args...)
		return err
	})
}

// TierCounts tallies matches by confidence tier.
func (s *Store) TierCounts(provider Provider) (*TierCounts, error) {
	rows, err := s.db.Query(`SELECT confidence, COUNT(*) FROM matches WHERE provider=? GROUP BY confidence`, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tc := &TierCounts{}
	for rows.Next() {
		var conf string
		var n int
		if err := rows.Scan(&conf, &n); err != nil {
			return nil, err
		}
		switch Confidence(conf) {
		case Manual:
			tc.Manual = n
		case Certain:
			tc.Certain = n
		case High:
			tc.High = n
		case Medium:
			tc.Medium = n
		case Low:
			tc.Low = n
		}
	}
	return tc, rows.Err()
}
