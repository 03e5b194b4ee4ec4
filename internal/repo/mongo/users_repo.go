package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
)

const usersCollection = "users"

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	FirstName    string        `bson:"firstname"`
	LastName     string        `bson:"lastname"`
	Phone        string        `bson:"phone"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Phone:        d.Phone,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func fromUser(u user.User) userDoc {
	return userDoc{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UsersRepo stores users as documents keyed by ObjectID. Ids are exposed as
// their hex form.
type UsersRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	prom   *observability.Prom
}

// NewUsersRepo binds the users collection of database. prom may be nil.
func NewUsersRepo(client *mongo.Client, database string, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		client: client,
		coll:   client.Database(database).Collection(usersCollection),
		prom:   prom,
	}
}

// EnsureIndexes creates the unique email index. Safe to call on every boot.
func (r *UsersRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return user.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return user.ErrEmailTaken
	default:
		return err
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	doc := fromUser(u)
	doc.ID = bson.NewObjectID()

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	return r.findOne(ctx, "users.get_by_id", bson.M{"_id": oid})
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_email", bson.M{"email": email})
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.M) (user.User, error) {
	var doc userDoc

	err := r.prom.ObserveDB(op, func() error {
		return r.coll.FindOne(ctx, filter).Decode(&doc)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	var doc userDoc

	err = r.prom.ObserveDB("users.update", func() error {
		return r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{
				"firstname": u.FirstName,
				"lastname":  u.LastName,
				"phone":     u.Phone,
				"email":     u.Email,
				"password":  u.PasswordHash,
				"updatedAt": u.UpdatedAt,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		return user.User{}, mapErr(err)
	}

	return doc.toUser(), nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.ErrNotFound
	}

	var res *mongo.DeleteResult

	err = r.prom.ObserveDB("users.delete", func() error {
		var err error
		res, err = r.coll.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
	if err != nil {
		return mapErr(err)
	}

	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	return nil
}
