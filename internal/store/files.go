package store

import "database/sql"

// UpsertFile inserts or updates a library file keyed by canonical path,
// returning the assigned row id and whether the row was newly inserted.
func (s *Store) UpsertFile(f *LibraryFile) (id int64, inserted bool, err error) {
	err = s.withTx(func(tx *sql.Tx) error {
		var existingID int64
		scanErr := tx.QueryRow(`SELECT id FROM library_files WHERE path=?`, f.Path).Scan(&existingID)
		switch scanErr {
		case sql.ErrNoRows:
			res, err := tx.Exec(`
				INSERT INTO library_files (path, size, mtime, hash, title, artist, album, year, duration_sec, bitrate_kbps, isrc, normalized)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				f.Path, f.Size, f.MTime, f.Hash, f.Title, f.Artist, f.Album, f.Year, f.DurationSec, f.BitrateKbps, f.ISRC, f.Normalized)
			if err != nil {
				return err
			}
			id, err = res.LastInsertId()
			if err != nil {
				return err
			}
			inserted = true
			return nil
		case nil:
			if _, err := tx.Exec(`
				UPDATE library_files SET size=?, mtime=?, hash=?, title=?, artist=?, album=?,
					year=?, duration_sec=?, bitrate_kbps=?, isrc=?, normalized=? WHERE id=?`,
				f.Size, f.MTime, f.Hash, f.Title, f.Artist, f.Album, f.Year, f.DurationSec, f.BitrateKbps, f.ISRC, f.Normalized, existingID); err != nil {
				return err
			}
			id = existingID
			inserted = false
			return nil
		default:
			return scanErr
		}
	})
	return id, inserted, err
}

// GetFileByPath returns the library file at the canonical path, or nil.
func (s *Store) GetFileByPath(path string) (*LibraryFile, error) {
	row := s.db.QueryRow(`
		SELECT id, path, size, mtime, hash, title, artist, album, year, duration_sec, bitrate_kbps, isrc, normalized
		FROM library_files WHERE path=?`, path)
	return scanFile(row)
}

// GetFile returns the library file with the given row id, or nil.
func (s *Store) GetFile(id int64) (*LibraryFile, error) {
	row := s.db.QueryRow(`
		SELECT id, path, size, mtime, hash, title, artist, album, year, duration_sec, bitrate_kbps, isrc, normalized
		FROM library_files WHERE id=?`, id)
	return scanFile(row)
}

func scanFile(row *sql.Row) (*LibraryFile, error) {
	var f LibraryFile
	err := row.Scan(&f.ID, &f.Path, &f.Size, &f.MTime, &f.Hash, &f.Title, &f.Artist, &f.Album,
		&f.Year, &f.DurationSec, &f.BitrateKbps, &f.ISRC, &f.Normalized)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// AllFiles returns every library file, ordered by id.
func (s *Store) AllFiles() ([]*LibraryFile, error) {
	rows, err := s.db.Query(`
		SELECT id, path, size, mtime, hash, title, artist, album, year, duration_sec, bitrate_kbps, isrc, normalized
		FROM library_files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

// FilesByIDs returns the library files with the given ids.
func (s *Store) FilesByIDs(ids []int64) ([]*LibraryFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(ids))
	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = id
	}
	rows, err := s.db.Query(`
		SELECT id, path, size, mtime, hash, title, artist, album, year, duration_sec, bitrate_kbps, isrc, normalized
		FROM library_files WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

func collectFiles(rows *sql.Rows) ([]*LibraryFile, error) {
	var out []*LibraryFile
	for rows.Next() {
		var f LibraryFile
		if err := rows.Scan(&f.ID, &f.Path, &f.Size, &f.MTime, &f.Hash, &f.Title, &f.Artist, &f.Album,
			&f.Year, &f.DurationSec, &f.BitrateKbps, &f.ISRC, &f.Normalized); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// UnmatchedFiles returns every library file that has no row in matches.
func (s *Store) UnmatchedFiles() ([]*LibraryFile, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.path, f.size, f.mtime, f.hash, f.title, f.artist, f.album, f.year,
			f.duration_sec, f.bitrate_kbps, f.isrc, f.normalized
		FROM library_files f
		LEFT JOIN matches m ON m.file_id = f.id
		WHERE m.file_id IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFiles(rows)
}

// DeleteFile removes the library file with the given id. Matches
// referencing it cascade-delete per the foreign key in schema.go
// (spec §3 invariant 1).
func (s *Store) DeleteFile(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM library_files WHERE id=?`, id)
		return err
	})
}

// PathsSeen returns the set of canonical paths currently stored, mapped to
// their row ids. The scanner builds its own snapshot from AllFiles instead.
func (s *Store) PathsSeen() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT path, id FROM library_files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var p string
		var id int64
		if err := rows.Scan(&p, &id); err != nil {
			return nil, err
		}
		out[p] = id
	}
	return out, rows.Err()
}
