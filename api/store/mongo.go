/* mongo.go
 * Contains the MongoDB engine. Participants are stored one document per user with the user id as _id, so the
 * collection needs no extra index to keep one record per user
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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/time/rate"
)

// participantDoc is the document shape of a participant. Keys must match ParticipantColumns
type participantDoc struct {
	UserID              int64     `bson:"_id"`
	Username            string    `bson:"username"`
	DiscordNickname     string    `bson:"discord_nickname"`
	IngameNickname      string    `bson:"ingame_nickname"`
	Tier                string    `bson:"tier"`
	RankPoints          int       `bson:"rank_points"`
	MostPlayedChampions string    `bson:"most_played_champions"`
	StatsLink           string    `bson:"stats_link"`
	ProfileImageURL     string    `bson:"profile_image_url,omitempty"`
	SelfIntroduction    string    `bson:"self_introduction,omitempty"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func (d participantDoc) toParticipant() shared.Participant {
	return shared.Participant{
		UserID:   d.UserID,
		Username: d.Username,
		Registration: shared.Registration{
			DiscordNickname:     d.DiscordNickname,
			IngameNickname:      d.IngameNickname,
			Tier:                d.Tier,
			RankPoints:          d.RankPoints,
			MostPlayedChampions: d.MostPlayedChampions,
			StatsLink:           d.StatsLink,
		},
		Profile: shared.Profile{
			ImageURL:         d.ProfileImageURL,
			SelfIntroduction: d.SelfIntroduction,
		},
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoStore persists participants in a MongoDB collection
type MongoStore struct {
	uri       string
	dbName    string
	mu        sync.Mutex
	client    *mongo.Client
	coll      *mongo.Collection
	now       func() time.Time
	reconnect *rate.Limiter
}

// OpenMongo connects to the deployment at uri and uses the participants collection of dbName
// Preconditions: Receives a context, a mongo connection string and a database name
// Postconditions: Returns a connected MongoStore, or an error if the deployment cannot be reached
func OpenMongo(ctx context.Context, uri string, dbName string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" || strings.TrimSpace(dbName) == "" {
		return nil, fmt.Errorf("mongo uri and database name are required")
	}
	s := &MongoStore{
		uri:       uri,
		dbName:    dbName,
		now:       utcNow,
		reconnect: newReconnectLimiter(),
	}
	if _, err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureOpen pings the current client and reconnects if the ping fails
func (s *MongoStore) ensureOpen(ctx context.Context) (*mongo.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("connect", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Ping(ctx, readpref.Primary()); err == nil {
			return s.coll, nil
		}
		log.Printf("mongo connection to database %s lost, reconnecting", s.dbName)
		_ = s.client.Disconnect(ctx)
		s.client = nil
		s.coll = nil
	}

	if !s.reconnect.Allow() {
		return nil, storageErr("connect", ErrReconnectThrottled)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, storageErr("connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr("connect", err)
	}
	s.client = client
	s.coll = client.Database(s.dbName).Collection(participantsTable)
	return s.coll, nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(context.Background())
	s.client = nil
	s.coll = nil
	return err
}

// Ping verifies the connection, reconnecting if needed
func (s *MongoStore) Ping(ctx context.Context) error {
	_, err := s.ensureOpen(ctx)
	return err
}

// Upsert inserts a participant or overwrites the registration fields of the existing document.
// The update is a single upsert so concurrent writes for one user resolve by commit order
func (s *MongoStore) Upsert(ctx context.Context, participant shared.Participant) error {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant.UpdatedAt = s.now()

	filter := bson.D{{Key: "_id", Value: participant.UserID}}
	_, err = coll.UpdateOne(ctx, filter, registrationUpdate(participant), options.Update().SetUpsert(true))
	if err != nil {
		return storageErr("upsert participant", err)
	}
	return nil
}

// UpdateProfile overwrites the profile fields of an existing document
func (s *MongoStore) UpdateProfile(ctx context.Context, userID int64, profile shared.Profile) error {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	participant := shared.Participant{UserID: userID, Profile: profile, UpdatedAt: s.now()}

	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, profileUpdate(participant))
	if err != nil {
		return storageErr("update profile", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document for userID if present
func (s *MongoStore) Delete(ctx context.Context, userID int64) error {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: userID}}); err != nil {
		return storageErr("delete participant", err)
	}
	return nil
}

// Get returns the document for userID
func (s *MongoStore) Get(ctx context.Context, userID int64) (shared.Participant, error) {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return shared.Participant{}, err
	}
	var doc participantDoc
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return shared.Participant{}, ErrNotFound
	}
	if err != nil {
		return shared.Participant{}, storageErr("get participant", err)
	}
	return doc.toParticipant(), nil
}

// Exists reports whether a document exists for userID
func (s *MongoStore) Exists(ctx context.Context, userID int64) (bool, error) {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return false, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: userID}}, options.Count().SetLimit(1))
	if err != nil {
		return false, storageErr("check participant", err)
	}
	return n > 0, nil
}

// Count returns the number of documents
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, storageErr("count participants", err)
	}
	return int(n), nil
}

// Page returns at most limit documents starting at offset, ordered by user id
func (s *MongoStore) Page(ctx context.Context, limit int, offset int) ([]shared.Participant, error) {
	if err := checkPageArgs(limit, offset); err != nil {
		return nil, err
	}
	coll, err := s.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storageErr("list participants", err)
	}

	var docs []participantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, storageErr("list participants", err)
	}
	participants := make([]shared.Participant, 0, len(docs))
	for _, doc := range docs {
		participants = append(participants, doc.toParticipant())
	}
	return participants, nil
}

// registrationUpdate builds the upsert document from the merge policy: registration fields and the timestamp
// are always set, insert-only fields only when the document is created
func registrationUpdate(p shared.Participant) bson.D {
	set := bson.D{}
	setOnInsert := bson.D{}
	for _, col := range ParticipantColumns {
		switch col.Rule {
		case RuleRegistration, RuleTimestamp:
			set = append(set, bson.E{Key: col.BSON, Value: fieldValue(p, col.Name)})
		case RuleInsertOnly:
			setOnInsert = append(setOnInsert, bson.E{Key: col.BSON, Value: fieldValue(p, col.Name)})
		}
	}
	return bson.D{{Key: "$set", Value: set}, {Key: "$setOnInsert", Value: setOnInsert}}
}

// profileUpdate builds the profile update document. Empty profile fields are removed from the document
func profileUpdate(p shared.Participant) bson.D {
	set := bson.D{}
	unset := bson.D{}
	for _, col := range ProfileColumns() {
		value := fieldValue(p, col.Name)
		if s, ok := value.(string); ok && s == "" {
			unset = append(unset, bson.E{Key: col.BSON, Value: ""})
			continue
		}
		set = append(set, bson.E{Key: col.BSON, Value: value})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}
