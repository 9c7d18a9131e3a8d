/* postgres.go
 * Contains the PostgreSQL engine, built on gorm. The schema is created with AutoMigrate from participantRow
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vlakddp4/publicbot/api/shared"
	"golang.org/x/time/rate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// participantRow is the gorm model of the participants table. Column names must match ParticipantColumns
type participantRow struct {
	UserID              int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username            string    `gorm:"column:username;not null;default:''"`
	DiscordNickname     string    `gorm:"column:discord_nickname;not null"`
	IngameNickname      string    `gorm:"column:ingame_nickname;not null"`
	Tier                string    `gorm:"column:tier;not null"`
	RankPoints          int       `gorm:"column:rank_points;not null"`
	MostPlayedChampions string    `gorm:"column:most_played_champions;not null"`
	StatsLink           string    `gorm:"column:stats_link;not null"`
	ProfileImageURL     *string   `gorm:"column:profile_image_url"`
	SelfIntroduction    *string   `gorm:"column:self_introduction"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (participantRow) TableName() string {
	return participantsTable
}

func newParticipantRow(p shared.Participant) participantRow {
	return participantRow{
		UserID:              p.UserID,
		Username:            p.Username,
		DiscordNickname:     p.DiscordNickname,
		IngameNickname:      p.IngameNickname,
		Tier:                p.Tier,
		RankPoints:          p.RankPoints,
		MostPlayedChampions: p.MostPlayedChampions,
		StatsLink:           p.StatsLink,
		ProfileImageURL:     nullable(p.ImageURL),
		SelfIntroduction:    nullable(p.SelfIntroduction),
		UpdatedAt:           p.UpdatedAt,
	}
}

func (r participantRow) toParticipant() shared.Participant {
	p := shared.Participant{
		UserID:   r.UserID,
		Username: r.Username,
		Registration: shared.Registration{
			DiscordNickname:     r.DiscordNickname,
			IngameNickname:      r.IngameNickname,
			Tier:                r.Tier,
			RankPoints:          r.RankPoints,
			MostPlayedChampions: r.MostPlayedChampions,
			StatsLink:           r.StatsLink,
		},
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.ProfileImageURL != nil {
		p.ImageURL = *r.ProfileImageURL
	}
	if r.SelfIntroduction != nil {
		p.SelfIntroduction = *r.SelfIntroduction
	}
	return p
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// PostgresStore persists participants in a PostgreSQL table through gorm
type PostgresStore struct {
	dsn       string
	mu        sync.Mutex
	db        *gorm.DB
	now       func() time.Time
	reconnect *rate.Limiter
}

// OpenPostgres connects to dsn and migrates the participants table
// Preconditions: Receives a context and a postgres connection string
// Postconditions: Returns a connected PostgresStore, or an error if the server cannot be reached
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	s := &PostgresStore{
		dsn:       dsn,
		now:       utcNow,
		reconnect: newReconnectLimiter(),
	}
	if _, err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureOpen(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("connect", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			if err = sqlDB.PingContext(ctx); err == nil {
				return s.db.WithContext(ctx), nil
			}
			_ = sqlDB.Close()
		}
		log.Printf("postgres connection lost, reconnecting: %v", err)
		s.db = nil
	}

	if !s.reconnect.Allow() {
		return nil, storageErr("connect", ErrReconnectThrottled)
	}
	db, err := openPostgresDB(ctx, s.dsn)
	if err != nil {
		return nil, storageErr("connect", err)
	}
	s.db = db
	return db.WithContext(ctx), nil
}

func openPostgresDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&participantRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate participants table: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection
func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection, reconnecting if needed
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.ensureOpen(ctx)
	return err
}

// Upsert inserts a participant or overwrites the registration fields of the existing row
func (s *PostgresStore) Upsert(ctx context.Context, participant shared.Participant) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant.UpdatedAt = s.now()
	// profile fields are never written by a registration
	participant.Profile = shared.Profile{}
	row := newParticipantRow(participant)

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(ColumnNames(ConflictColumns())),
	}).Create(&row).Error
	if err != nil {
		return storageErr("upsert participant", err)
	}
	return nil
}

// UpdateProfile overwrites the profile fields of an existing row
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID int64, profile shared.Profile) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant := shared.Participant{UserID: userID, Profile: profile, UpdatedAt: s.now()}

	updates := make(map[string]any, len(ProfileColumns()))
	for _, col := range ProfileColumns() {
		value := fieldValue(participant, col.Name)
		if str, ok := value.(string); ok {
			value = nullable(str)
		}
		updates[col.Name] = value
	}

	res := db.Model(&participantRow{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return storageErr("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row for userID if present
func (s *PostgresStore) Delete(ctx context.Context, userID int64) error {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("user_id = ?", userID).Delete(&participantRow{}).Error; err != nil {
		return storageErr("delete participant", err)
	}
	return nil
}

// Get returns the row for userID
func (s *PostgresStore) Get(ctx context.Context, userID int64) (shared.Participant, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return shared.Participant{}, err
	}
	var row participantRow
	err = db.Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.Participant{}, ErrNotFound
	}
	if err != nil {
		return shared.Participant{}, storageErr("get participant", err)
	}
	return row.toParticipant(), nil
}

// Exists reports whether a row exists for userID
func (s *PostgresStore) Exists(ctx context.Context, userID int64) (bool, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return false, err
	}
	var n int64
	if err := db.Model(&participantRow{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return false, storageErr("check participant", err)
	}
	return n > 0, nil
}

// Count returns the number of rows
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&participantRow{}).Count(&n).Error; err != nil {
		return 0, storageErr("count participants", err)
	}
	return int(n), nil
}

// Page returns at most limit rows starting at offset, ordered by user id
func (s *PostgresStore) Page(ctx context.Context, limit int, offset int) ([]shared.Participant, error) {
	if err := checkPageArgs(limit, offset); err != nil {
		return nil, err
	}
	db, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}

	var rows []participantRow
	if err := db.Order("user_id ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, storageErr("list participants", err)
	}
	participants := make([]shared.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, row.toParticipant())
	}
	return participants, nil
}
