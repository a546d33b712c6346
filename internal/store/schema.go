package store

const schema = `
CREATE TABLE IF NOT EXISTS tracks (
	provider       TEXT NOT NULL,
	id             TEXT NOT NULL,
	name           TEXT NOT NULL,
	artist_display TEXT NOT NULL,
	album          TEXT NOT NULL,
	year           INTEGER,
	isrc           TEXT,
	duration_ms    INTEGER,
	normalized     TEXT NOT NULL,
	PRIMARY KEY (provider, id)
);
CREATE INDEX IF NOT EXISTS idx_tracks_isrc ON tracks(isrc);
CREATE INDEX IF NOT EXISTS idx_tracks_normalized ON tracks(normalized);

CREATE TABLE IF NOT EXISTS playlists (
	provider           TEXT NOT NULL,
	id                 TEXT NOT NULL,
	name               TEXT NOT NULL,
	owner_id           TEXT NOT NULL,
	owner_display_name TEXT NOT NULL,
	snapshot_id        TEXT NOT NULL,
	PRIMARY KEY (provider, id)
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
	provider    TEXT NOT NULL,
	playlist_id TEXT NOT NULL,
	position    INTEGER NOT NULL,
	track_id    TEXT NOT NULL,
	added_at    INTEGER NOT NULL,
	PRIMARY KEY (provider, playlist_id, position)
);
CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(provider, track_id);

CREATE TABLE IF NOT EXISTS liked_tracks (
	provider TEXT NOT NULL,
	track_id TEXT NOT NULL,
	added_at INTEGER NOT NULL,
	PRIMARY KEY (provider, track_id)
);

CREATE TABLE IF NOT EXISTS library_files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	path         TEXT NOT NULL UNIQUE,
	size         INTEGER NOT NULL,
	mtime        REAL NOT NULL,
	hash         TEXT NOT NULL,
	title        TEXT NOT NULL,
	artist       TEXT NOT NULL,
	album        TEXT NOT NULL,
	year         INTEGER,
	duration_sec REAL,
	bitrate_kbps INTEGER,
	isrc         TEXT,
	normalized   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_library_files_normalized ON library_files(normalized);

CREATE TABLE IF NOT EXISTS matches (
	provider   TEXT NOT NULL,
	track_id   TEXT NOT NULL,
	file_id    INTEGER NOT NULL REFERENCES library_files(id) ON DELETE CASCADE,
	score      REAL NOT NULL,
	method     TEXT NOT NULL,
	confidence TEXT NOT NULL,
	PRIMARY KEY (provider, track_id)
);
CREATE INDEX IF NOT EXISTS idx_matches_file ON matches(file_id);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// ensureSchema creates the tables and indices in schema if they don't
// already exist. Safe to call on every Open.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(schema)
	return classifyErr(err)
}
