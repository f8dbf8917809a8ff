package mongodb

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/sessions"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo implements sessions.Repo. Every mutation is one conditional update, so the
// filter carries the precondition and the match count reports whether it held.
type SessionRepo struct {
	coll  *mongo.Collection
	store *Store
}

func (r *SessionRepo) Create(ctx context.Context, session *sessions.Session) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toSessionDocument(session)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "mongodb: insert session")
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*sessions.Session, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	var doc sessionDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrapf(err, "mongodb: find session")
	}
	return doc.toSession(), nil
}

func (r *SessionRepo) RevokeDeviceSlot(ctx context.Context, userID, deviceID string, now time.Time) (int64, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "deviceId", Value: deviceID},
		{Key: "revokedAt", Value: nil},
	}
	res, err := r.coll.UpdateMany(ctx, filter, revokeUpdate(now))
	if err != nil {
		return 0, apperrors.Wrapf(err, "mongodb: revoke device sessions")
	}
	return res.ModifiedCount, nil
}

func (r *SessionRepo) Rotate(ctx context.Context, id, expectedHash, newHash string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "refreshTokenHash", Value: expectedHash},
		{Key: "revokedAt", Value: nil},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "refreshTokenHash", Value: newHash},
		{Key: "lastUsedAt", Value: now},
		{Key: "updatedAt", Value: now},
	}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, apperrors.Wrapf(err, "mongodb: rotate session")
	}
	return res.MatchedCount == 1, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	filter := bson.D{{Key: "_id", Value: id}, {Key: "revokedAt", Value: nil}}
	res, err := r.coll.UpdateOne(ctx, filter, revokeUpdate(now))
	if err != nil {
		return false, apperrors.Wrapf(err, "mongodb: revoke session")
	}
	return res.MatchedCount == 1, nil
}

func (r *SessionRepo) RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	owned := bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: userID}}
	res, err := r.coll.UpdateOne(ctx, append(owned, bson.E{Key: "revokedAt", Value: nil}), revokeUpdate(now))
	if err != nil {
		return false, apperrors.Wrapf(err, "mongodb: revoke user session")
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	// Nothing matched: either already revoked or not this user's session.
	n, err := r.coll.CountDocuments(ctx, owned)
	if err != nil {
		return false, apperrors.Wrapf(err, "mongodb: count user session")
	}
	if n == 0 {
		return false, apperrors.ErrNotFound
	}
	return false, nil
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	filter := bson.D{{Key: "userId", Value: userID}, {Key: "revokedAt", Value: nil}}
	res, err := r.coll.UpdateMany(ctx, filter, revokeUpdate(now))
	if err != nil {
		return 0, apperrors.Wrapf(err, "mongodb: revoke all sessions")
	}
	return res.ModifiedCount, nil
}

func (r *SessionRepo) ListActive(ctx context.Context, userID string, now time.Time) ([]*sessions.Session, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "revokedAt", Value: nil},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastUsedAt", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Wrapf(err, "mongodb: list sessions")
	}
	var docs []sessionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Wrapf(err, "mongodb: decode sessions")
	}

	list := make([]*sessions.Session, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toSession())
	}
	return list, nil
}

func revokeUpdate(now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "revokedAt", Value: now},
		{Key: "updatedAt", Value: now},
	}}}
}
