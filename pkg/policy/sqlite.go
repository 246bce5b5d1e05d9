// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLite-backed stores for single-node deployments where a Redis instance is
// not worth running. Same JSON documents as the Redis stores, one row per
// profile per namespace.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_state (
	profile_id TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS config_overrides (
	profile_id TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// OpenSQLite opens the database at path, creating it and the schema when
// missing. The returned handle is shared by both store implementations.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	logrus.Infof("opened sqlite store at %s", path)
	return db, nil
}

// SQLiteSessionStore implements SessionStore using SQLite.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a new SQLite-backed session state store.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// GetSessionState retrieves the session state for a profile
func (s *SQLiteSessionStore) GetSessionState(ctx context.Context, profileID string) (*SessionState, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM session_state WHERE profile_id = ?`, profileID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		// Profile doesn't exist, return new state
		logrus.Infof("no existing session state for profile %s, returning new state", profileID)
		return NewSessionState(time.Now()), nil
	}
	if err != nil {
		logrus.Errorf("failed to get session state for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		logrus.Errorf("failed to unmarshal session state for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}

	logrus.Debugf("retrieved session state for profile %s", profileID)
	return &state, nil
}

// UpdateSessionState upserts the session state for a profile
func (s *SQLiteSessionStore) UpdateSessionState(ctx context.Context, profileID string, state *SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		logrus.Errorf("failed to marshal session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_state (profile_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(profile_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		profileID, string(data), time.Now().UTC())
	if err != nil {
		logrus.Errorf("failed to set session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to set session state: %w", err)
	}

	logrus.Debugf("updated session state for profile %s", profileID)
	return nil
}

// DeleteSessionState deletes the session state for a profile
func (s *SQLiteSessionStore) DeleteSessionState(ctx context.Context, profileID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_state WHERE profile_id = ?`, profileID); err != nil {
		logrus.Errorf("failed to delete session state for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to delete session state: %w", err)
	}

	logrus.Infof("deleted session state for profile %s", profileID)
	return nil
}

// SQLiteConfigStore implements ConfigStore using SQLite.
type SQLiteConfigStore struct {
	db *sql.DB
}

// NewSQLiteConfigStore creates a new SQLite-backed config override store.
func NewSQLiteConfigStore(db *sql.DB) *SQLiteConfigStore {
	return &SQLiteConfigStore{db: db}
}

// GetOverrides retrieves the config overrides for a profile
func (s *SQLiteConfigStore) GetOverrides(ctx context.Context, profileID string) (*Overrides, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM config_overrides WHERE profile_id = ?`, profileID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		// No overrides set, defaults apply
		return &Overrides{}, nil
	}
	if err != nil {
		logrus.Errorf("failed to get config overrides for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to get config overrides: %w", err)
	}

	var overrides Overrides
	if err := json.Unmarshal([]byte(data), &overrides); err != nil {
		logrus.Errorf("failed to unmarshal config overrides for profile %s: %v", profileID, err)
		return nil, fmt.Errorf("failed to unmarshal config overrides: %w", err)
	}

	logrus.Debugf("retrieved config overrides for profile %s", profileID)
	return &overrides, nil
}

// UpdateOverrides upserts the config overrides for a profile
func (s *SQLiteConfigStore) UpdateOverrides(ctx context.Context, profileID string, overrides *Overrides) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		logrus.Errorf("failed to marshal config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to marshal config overrides: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO config_overrides (profile_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(profile_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		profileID, string(data), time.Now().UTC())
	if err != nil {
		logrus.Errorf("failed to set config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to set config overrides: %w", err)
	}

	logrus.Infof("updated config overrides for profile %s", profileID)
	return nil
}

// DeleteOverrides deletes the config overrides for a profile
func (s *SQLiteConfigStore) DeleteOverrides(ctx context.Context, profileID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM config_overrides WHERE profile_id = ?`, profileID); err != nil {
		logrus.Errorf("failed to delete config overrides for profile %s: %v", profileID, err)
		return fmt.Errorf("failed to delete config overrides: %w", err)
	}

	logrus.Infof("deleted config overrides for profile %s", profileID)
	return nil
}
