package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings table - overrides of the built-in pose to label mapping
		`CREATE TABLE IF NOT EXISTS bindings (
			pose TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture events table - one row per committed gesture and its outcome
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			pose TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL DEFAULT '',
			committed_at DATETIME NOT NULL,
			handled_at DATETIME,
			outcome TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT ''
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_events_committed_at ON gesture_events(committed_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
