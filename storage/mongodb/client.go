// Package mongodb stores accounts and sessions in MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"

	defaultTimeout = 5 * time.Second
)

// Store owns the client connection and hands out the repositories built on it.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Connect dials uri, verifies the primary is reachable and returns a Store for database.
// timeout bounds every subsequent store operation.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongodb: uri is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongodb: connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongodb: ping")
	}

	log.Info().Str("database", database).Msg("connected to mongodb")
	return &Store{client: client, db: client.Database(database), timeout: timeout}, nil
}

// EnsureIndexes creates the unique and lookup indexes both repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "phone", Value: bson.D{{Key: "$gt", Value: ""}}}}),
		},
	})
	if err != nil {
		return errors.Wrap(err, "mongodb: user indexes")
	}

	_, err = s.db.Collection(sessionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "deviceId", Value: 1}, {Key: "revokedAt", Value: 1}}},
		{
			// One unrevoked session per device slot. revokedAt is stored as an explicit null.
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "deviceId", Value: 1}},
			Options: options.Index().
				SetName("sessions_live_device_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "revokedAt", Value: bson.D{{Key: "$type", Value: "null"}}}}),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "lastUsedAt", Value: -1}}},
	})
	if err != nil {
		return errors.Wrap(err, "mongodb: session indexes")
	}
	return nil
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{coll: s.db.Collection(usersCollection), store: s}
}

func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{coll: s.db.Collection(sessionsCollection), store: s}
}

// Drop removes the whole database. Used by integration tests to clean up after themselves.
func (s *Store) Drop(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.db.Drop(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
