package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the session warehouse, outcome and cache tables.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id          TEXT NOT NULL UNIQUE,
			project             TEXT NOT NULL,
			recorded_at         TEXT NOT NULL,
			tool_calls          INTEGER NOT NULL,
			errors              INTEGER NOT NULL,
			file_edits          INTEGER NOT NULL,
			reworks             INTEGER NOT NULL,
			test_runs           INTEGER NOT NULL,
			tests_passed        INTEGER NOT NULL,
			agent_spawns        INTEGER NOT NULL,
			agent_successes     INTEGER NOT NULL,
			lines_changed       INTEGER NOT NULL,
			files_modified      INTEGER NOT NULL,
			duration_seconds    REAL NOT NULL,
			error_rate          REAL NOT NULL,
			rework_rate         REAL NOT NULL,
			test_pass_rate      REAL NOT NULL,
			agent_success_rate  REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS tip_outcomes (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			tip_id             TEXT NOT NULL,
			rule_name          TEXT NOT NULL,
			command_suggested  TEXT NOT NULL,
			outcome            TEXT NOT NULL,
			project            TEXT NOT NULL,
			recorded_at        TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS stats_cache (
			cache_key   TEXT PRIMARY KEY,
			stats_json  TEXT NOT NULL,
			created_ms  INTEGER NOT NULL,
			ttl_ms      INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_recorded ON sessions(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tip_outcomes_project ON tip_outcomes(project)`,
		`CREATE INDEX IF NOT EXISTS idx_tip_outcomes_rule ON tip_outcomes(rule_name)`,
		`CREATE INDEX IF NOT EXISTS idx_tip_outcomes_command ON tip_outcomes(command_suggested)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
