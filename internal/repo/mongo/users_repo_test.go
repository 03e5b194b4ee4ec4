package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/geocoder89/accounthub/internal/db"
	"github.com/geocoder89/accounthub/internal/domain/user"
)

func setupRepo(t *testing.T) *UsersRepo {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()

	client, err := db.NewMongo(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}

	database := "accounthub_test_" + bson.NewObjectID().Hex()
	t.Cleanup(func() {
		_ = client.Database(database).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	r := NewUsersRepo(client, database, nil)
	if err := r.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return r
}

func newUser(email string) user.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return user.User{FirstName: "A", LastName: "B", Phone: "1234567890", Email: email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
}

func TestUsersRepo_Lifecycle(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, newUser("a@b.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := bson.ObjectIDFromHex(created.ID); err != nil {
		t.Fatalf("id should be ObjectID hex, got %q", created.ID)
	}

	if _, err := r.Create(ctx, newUser("a@b.com")); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	other, err := r.Create(ctx, newUser("c@d.com"))
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	other.Email = "a@b.com"
	if _, err := r.Update(ctx, other); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("update to taken email should conflict, got %v", err)
	}

	created.Phone = "0987654321"
	updated, err := r.Update(ctx, created)
	if err != nil || updated.Phone != "0987654321" || updated.PasswordHash != "hash" {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetByID(ctx, created.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRepo_MalformedIDIsNotFound(t *testing.T) {
	// no server needed: the id is rejected before any round trip
	r := &UsersRepo{}

	if _, err := r.GetByID(context.Background(), "zzz"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(context.Background(), "zzz"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
