package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/nade-api/internal/models"
	"github.com/noah-isme/nade-api/internal/repository"
	"github.com/noah-isme/nade-api/pkg/database"
)

// UserStore keeps staff accounts in the "users" collection.
type UserStore struct {
	col *mongo.Collection
}

// NewUserStore binds the store to db.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(database.CollectionUsers)}
}

// List returns all users, newest first.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByResetToken matches the stored token hash and requires expiry > now.
func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": bson.M{"$gt": now},
	})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	user := doc.model()
	return &user, nil
}

// CountByRole counts users holding role.
func (s *UserStore) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"role": string(role)})
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

// Create inserts a user and writes the generated id back.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	doc := userDoc{
		Email:     user.Email,
		Password:  user.PasswordHash,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("create user: %w", duplicate(err))
	}
	user.ID = insertedHex(res)
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

// Update writes name, email and role.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	return s.update(ctx, user.ID, "update user", bson.M{"$set": bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"role":      string(user.Role),
		"updatedAt": user.UpdatedAt,
	}})
}

// UpdatePassword replaces the hash and unsets any pending reset token.
func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return s.update(ctx, id, "update password", bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": updatedAt},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	})
}

// SetResetToken stores a reset token hash and its expiry.
func (s *UserStore) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return s.update(ctx, id, "set reset token", bson.M{"$set": bson.M{
		"resetPasswordToken":   tokenHash,
		"resetPasswordExpires": expires,
		"updatedAt":            time.Now().UTC(),
	}})
}

func (s *UserStore) update(ctx context.Context, id, op string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, duplicate(err))
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
