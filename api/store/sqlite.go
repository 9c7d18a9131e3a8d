/* sqlite.go
 * Contains the SQLite engine. The database handle is limited to a single connection which is verified before
 * every operation and reopened when it has dropped
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/vlakddp4/publicbot/api/shared"
	"github.com/vlakddp4/publicbot/api/store/migrations"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
)

var (
	sqliteSelectColumns = strings.Join(ColumnNames(ParticipantColumns), ", ")
	sqliteUpsertSQL     = buildUpsertSQL()
	sqliteProfileSQL    = buildProfileUpdateSQL()
)

// SQLiteStore persists participants in a SQLite database file
type SQLiteStore struct {
	path      string
	mu        sync.Mutex
	db        *sql.DB
	now       func() time.Time
	reconnect *rate.Limiter
}

// OpenSQLite opens (creating if needed) the database at path and applies the embedded migrations
// Preconditions: Receives a context and the path of the database file
// Postconditions: Returns an open SQLiteStore, or an error if the file cannot be opened or migrated
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	s := &SQLiteStore{
		path:      filepath.Clean(path),
		now:       utcNow,
		reconnect: newReconnectLimiter(),
	}
	if _, err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureOpen returns a live handle, reopening the database if the current handle fails a ping
func (s *SQLiteStore) ensureOpen(ctx context.Context) (*sql.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("connect", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.PingContext(ctx); err == nil {
			return s.db, nil
		}
		log.Printf("sqlite connection to %s lost, reopening", s.path)
		_ = s.db.Close()
		s.db = nil
	}

	if !s.reconnect.Allow() {
		return nil, storageErr("connect", ErrReconnectThrottled)
	}
	db, err := openSQLiteDB(ctx, s.path)
	if err != nil {
		return nil, storageErr("connect", err)
	}
	s.db = db
	return db, nil
}

func openSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// migrateSQLite applies the embedded migrations. An up to date schema is not an error
func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping verifies the connection, reopening it if needed
func (s *SQLiteStore) Ping(ctx context.Context) error {
	_, err := s.ensureOpen(ctx)
	return err
}

// Upsert inserts a participant or overwrites the registration fields of the existing row
func (s *SQLiteStore) Upsert(ctx context.Context, participant shared.Participant) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant.UpdatedAt = s.now()

	cols := InsertColumns()
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, sqliteValue(participant, col))
	}
	if _, err := db.ExecContext(ctx, sqliteUpsertSQL, args...); err != nil {
		return storageErr("upsert participant", err)
	}
	return nil
}

// UpdateProfile overwrites the profile fields of an existing row
func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID int64, profile shared.Profile) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant := shared.Participant{UserID: userID, Profile: profile, UpdatedAt: s.now()}

	cols := ProfileColumns()
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, sqliteValue(participant, col))
	}
	args = append(args, userID)

	res, err := db.ExecContext(ctx, sqliteProfileSQL, args...)
	if err != nil {
		return storageErr("update profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update profile", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row for userID if present
func (s *SQLiteStore) Delete(ctx context.Context, userID int64) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM participants WHERE user_id = ?`, userID); err != nil {
		return storageErr("delete participant", err)
	}
	return nil
}

// Get returns the row for userID
func (s *SQLiteStore) Get(ctx context.Context, userID int64) (shared.Participant, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return shared.Participant{}, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+sqliteSelectColumns+` FROM participants WHERE user_id = ?`, userID)
	participant, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return shared.Participant{}, ErrNotFound
	}
	if err != nil {
		return shared.Participant{}, storageErr("get participant", err)
	}
	return participant, nil
}

// Exists reports whether a row exists for userID
func (s *SQLiteStore) Exists(ctx context.Context, userID int64) (bool, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return false, err
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM participants WHERE user_id = ? LIMIT 1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("check participant", err)
	}
	return true, nil
}

// Count returns the number of rows
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, storageErr("count participants", err)
	}
	return n, nil
}

// Page returns at most limit rows starting at offset, ordered by user id
func (s *SQLiteStore) Page(ctx context.Context, limit int, offset int) ([]shared.Participant, error) {
	if err := checkPageArgs(limit, offset); err != nil {
		return nil, err
	}
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+sqliteSelectColumns+` FROM participants ORDER BY user_id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, storageErr("list participants", err)
	}
	defer rows.Close()

	participants := make([]shared.Participant, 0, limit)
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, storageErr("scan participant", err)
		}
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list participants", err)
	}
	return participants, nil
}

// scanParticipant scans a row selected with sqliteSelectColumns
func scanParticipant(scanner interface{ Scan(...any) error }) (shared.Participant, error) {
	var p shared.Participant
	var image, intro sql.NullString
	var updatedAt int64
	err := scanner.Scan(
		&p.UserID, &p.Username,
		&p.DiscordNickname, &p.IngameNickname, &p.Tier, &p.RankPoints, &p.MostPlayedChampions, &p.StatsLink,
		&image, &intro,
		&updatedAt,
	)
	if err != nil {
		return shared.Participant{}, err
	}
	p.ImageURL = image.String
	p.SelfIntroduction = intro.String
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// sqliteValue converts a column value to what the SQLite schema stores
func sqliteValue(p shared.Participant, col Column) any {
	value := fieldValue(p, col.Name)
	switch v := value.(type) {
	case time.Time:
		return toMillis(v)
	case string:
		if col.Rule == RuleProfile && v == "" {
			return nil
		}
	}
	return value
}

func buildUpsertSQL() string {
	insert := ColumnNames(InsertColumns())
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insert)), ", ")

	var assignments []string
	for _, name := range ColumnNames(ConflictColumns()) {
		assignments = append(assignments, fmt.Sprintf("%s = excluded.%s", name, name))
	}
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(user_id) DO UPDATE SET %s`,
		participantsTable, strings.Join(insert, ", "), placeholders, strings.Join(assignments, ", "),
	)
}

func buildProfileUpdateSQL() string {
	var assignments []string
	for _, name := range ColumnNames(ProfileColumns()) {
		assignments = append(assignments, name+" = ?")
	}
	return fmt.Sprintf(`UPDATE %s SET %s WHERE user_id = ?`, participantsTable, strings.Join(assignments, ", "))
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
