package mongodb

import (
	"context"
	"errors"

	apperrors "github.com/jrsteele09/go-session-server/internal/errors"
	"github.com/jrsteele09/go-session-server/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var _ users.UserRepo = (*UserRepo)(nil)

// UserRepo implements users.UserRepo. Email and phone uniqueness is enforced by the
// indexes created in EnsureIndexes.
type UserRepo struct {
	coll  *mongo.Collection
	store *Store
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "mongodb: insert user")
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, toUserDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.Wrapf(err, "mongodb: replace user")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return apperrors.Wrapf(err, "mongodb: delete user")
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	if phone == "" {
		return nil, apperrors.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "phone", Value: phone}})
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: bson.D{{Key: "isActive", Value: active}}}})
	if err != nil {
		return apperrors.Wrapf(err, "mongodb: set user active")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D) (*users.User, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrapf(err, "mongodb: find user")
	}
	return doc.toUser(), nil
}
