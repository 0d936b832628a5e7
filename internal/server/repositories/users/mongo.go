package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// CollectionName is the Mongo collection holding user documents.
const CollectionName = "users"

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserName     string             `bson:"username"`
	Email        string             `bson:"email"`
	FullName     string             `bson:"fullName"`
	Avatar       string             `bson:"avatar"`
	CoverImage   string             `bson:"coverImage"`
	Password     string             `bson:"password"`
	RefreshToken string             `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:            d.ID.Hex(),
		UserName:      d.UserName,
		Email:         d.Email,
		FullName:      d.FullName,
		AvatarURL:     d.Avatar,
		CoverImageURL: d.CoverImage,
		PasswordHash:  d.Password,
		RefreshToken:  d.RefreshToken,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type MongoRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(CollectionName), now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the unique indexes on username and email.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now()
	doc := userDocument{
		ID:         primitive.NewObjectID(),
		UserName:   user.UserName,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.AvatarURL,
		CoverImage: user.CoverImageURL,
		Password:   user.PasswordHash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, mapMongoError(err)
	}

	return doc.toModel(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) FindByLogin(ctx context.Context, email, userName string) (*models.User, error) {
	filter, ok := loginFilter(email, userName)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *MongoRepository) Exists(ctx context.Context, email, userName string) (bool, error) {
	filter, ok := loginFilter(email, userName)
	if !ok {
		return false, nil
	}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *MongoRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	set := bson.M{"updatedAt": r.now()}
	update := bson.M{"$set": set}
	if token == "" {
		update["$unset"] = bson.M{"refreshToken": 1}
	} else {
		set["refreshToken"] = token
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}
	if presented == "" {
		return common.ErrRefreshTokenReused
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshToken": presented},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrRefreshTokenReused
	}
	return nil
}

func (r *MongoRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.update(ctx, id, bson.M{"password": hash})
	return err
}

func (r *MongoRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	return r.update(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (r *MongoRepository) SetAvatar(ctx context.Context, id, url string) (*models.User, error) {
	return r.update(ctx, id, bson.M{"avatar": url})
}

func (r *MongoRepository) SetCoverImage(ctx context.Context, id, url string) (*models.User, error) {
	return r.update(ctx, id, bson.M{"coverImage": url})
}

func (r *MongoRepository) findOne(ctx context.Context, filter any) (*models.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) update(ctx context.Context, id string, set bson.M) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	set["updatedAt"] = r.now()

	var doc userDocument
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return doc.toModel(), nil
}

func loginFilter(email, userName string) (bson.M, bool) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if userName != "" {
		or = append(or, bson.M{"username": userName})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}

func mapMongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
