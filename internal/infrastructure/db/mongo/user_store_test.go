package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

const testNS = "de_db.user"

func userDoc(id primitive.ObjectID, username, email string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "full_name", Value: "Ann Lee"},
		{Key: "username", Value: username},
		{Key: "email", Value: email},
		{Key: "password", Value: "pw1"},
		{Key: "role", Value: "user"},
		{Key: "image", Value: "img.png"},
		{Key: "created", Value: "2024-03-01 10:00:00"},
		{Key: "updated", Value: "default"},
	}
}

func TestUserStore_FindOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, userDoc(id, "ann", "ann@x.com")))

		store := NewUserStore(mt.DB, "")
		u, err := store.FindOne(context.Background(), ports.UserFilter{Username: "ann"})
		if err != nil {
			mt.Fatalf("find: %v", err)
		}
		if u.ID != id.Hex() || u.Username != "ann" || u.Password != "pw1" || u.FullName != "Ann Lee" {
			mt.Fatalf("unexpected user: %+v", u)
		}
		want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		if !u.Created.Equal(want) {
			mt.Fatalf("expected created %v, got %v", want, u.Created)
		}
		if !u.Updated.IsZero() {
			mt.Fatalf("expected unset updated, got %v", u.Updated)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		store := NewUserStore(mt.DB, "")
		_, err := store.FindOne(context.Background(), ports.UserFilter{Email: "ghost@x.com"})
		if !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, "")
		_, err := store.FindOne(context.Background(), ports.UserFilter{ID: "nope"})
		if !errors.Is(err, domain.ErrInvalidID) {
			mt.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	mt.Run("empty filter", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, "")
		if _, err := store.FindOne(context.Background(), ports.UserFilter{}); !errors.Is(err, errEmptyFilter) {
			mt.Fatalf("expected errEmptyFilter, got %v", err)
		}
	})
}

func TestUserStore_InsertOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		store := NewUserStore(mt.DB, "")
		id, err := store.InsertOne(context.Background(), &domain.User{
			FullName: "Ann Lee", Username: "ann", Email: "ann@x.com", Password: "pw1", Role: "user",
			Created: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		})
		if err != nil {
			mt.Fatalf("insert: %v", err)
		}
		if !primitive.IsValidObjectID(id) {
			mt.Fatalf("expected hex object id, got %q", id)
		}
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: de_db.user index: uniq_email dup key: { email: "ann@x.com" }`,
		}))

		store := NewUserStore(mt.DB, "")
		_, err := store.InsertOne(context.Background(), &domain.User{Username: "ann", Email: "ann@x.com"})

		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) {
			mt.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.Field != domain.FieldEmail {
			mt.Fatalf("expected email conflict, got %s", conflict.Field)
		}
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: de_db.user index: uniq_username dup key: { username: "ann" }`,
		}))

		store := NewUserStore(mt.DB, "")
		_, err := store.InsertOne(context.Background(), &domain.User{Username: "ann", Email: "ann@x.com"})

		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != domain.FieldUsername {
			mt.Fatalf("expected username conflict, got %v", err)
		}
	})
}

func TestUserStore_UpdateOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	password := "pw2"
	updated := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		store := NewUserStore(mt.DB, "")
		err := store.UpdateOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()},
			ports.UserPatch{Password: &password, Updated: &updated})
		if err != nil {
			mt.Fatalf("update: %v", err)
		}
	})

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		store := NewUserStore(mt.DB, "")
		err := store.UpdateOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()},
			ports.UserPatch{Password: &password, Updated: &updated})
		if !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("username taken by another user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: de_db.user index: uniq_username dup key: { username: "bob" }`,
		}))

		username := "bob"
		store := NewUserStore(mt.DB, "")
		err := store.UpdateOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()},
			ports.UserPatch{Username: &username, Updated: &updated})

		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != domain.FieldUsername {
			mt.Fatalf("expected username conflict, got %v", err)
		}
	})

	mt.Run("email taken by another user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: de_db.user index: uniq_email dup key: { email: "bob@x.com" }`,
		}))

		email := "bob@x.com"
		store := NewUserStore(mt.DB, "")
		err := store.UpdateOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()},
			ports.UserPatch{Email: &email, Updated: &updated})

		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || conflict.Field != domain.FieldEmail {
			mt.Fatalf("expected email conflict, got %v", err)
		}
	})
}

func TestUserStore_DeleteOne(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		store := NewUserStore(mt.DB, "")
		if err := store.DeleteOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()}); err != nil {
			mt.Fatalf("delete: %v", err)
		}
	})

	mt.Run("no match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		store := NewUserStore(mt.DB, "")
		err := store.DeleteOne(context.Background(), ports.UserFilter{ID: primitive.NewObjectID().Hex()})
		if !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUserStore_FindAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns every document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "ann", "ann@x.com"),
			userDoc(primitive.NewObjectID(), "bob", "bob@x.com"),
		))

		store := NewUserStore(mt.DB, "")
		users, err := store.FindAll(context.Background())
		if err != nil {
			mt.Fatalf("find all: %v", err)
		}
		if len(users) != 2 || users[0].Username != "ann" || users[1].Username != "bob" {
			mt.Fatalf("unexpected users: %+v", users)
		}
	})
}

func TestToSet(t *testing.T) {
	name := "Ann"
	updated := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)

	set := toSet(ports.UserPatch{FullName: &name, Updated: &updated})
	if len(set) != 2 {
		t.Fatalf("expected 2 fields, got %v", set)
	}
	if set["full_name"] != "Ann" {
		t.Fatalf("unexpected full_name: %v", set["full_name"])
	}
	if set["updated"] != "2024-03-02 09:30:00" {
		t.Fatalf("unexpected updated: %v", set["updated"])
	}
}

func TestClassify(t *testing.T) {
	network := mongo.CommandError{Code: 6, Name: "HostUnreachable", Labels: []string{"NetworkError"}}
	if err := classify("find user", network); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("network error: expected ErrStoreUnavailable, got %v", err)
	}

	if err := classify("find user", fmt.Errorf("wrapped: %w", context.DeadlineExceeded)); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("deadline: expected ErrStoreUnavailable, got %v", err)
	}

	other := errors.New("cannot decode string into an integer type")
	err := classify("find user", other)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("decode error must not read as store unavailable")
	}
	if !errors.Is(err, other) {
		t.Fatalf("expected original error to be wrapped")
	}
}

func TestDuplicateField(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want string
	}{
		{
			"username index",
			`E11000 duplicate key error collection: de_db.user index: uniq_username dup key: { username: "ann" }`,
			domain.FieldUsername,
		},
		{
			"email index",
			`E11000 duplicate key error collection: de_db.user index: uniq_email dup key: { email: "ann@x.com" }`,
			domain.FieldEmail,
		},
		{
			"default email index name",
			`E11000 duplicate key error collection: de_db.user index: email_1 dup key: { email: "ann@x.com" }`,
			domain.FieldEmail,
		},
		{
			"username value mentions the email index",
			`E11000 duplicate key error collection: de_db.user index: uniq_username dup key: { username: "x_email_1" }`,
			domain.FieldUsername,
		},
		{
			"username value mentions the named email index",
			`E11000 duplicate key error collection: de_db.user index: uniq_username dup key: { username: "uniq_email" }`,
			domain.FieldUsername,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: tc.msg}}}

			var conflict *domain.ConflictError
			if !errors.As(classify("insert user", err), &conflict) {
				t.Fatalf("expected ConflictError")
			}
			if conflict.Field != tc.want {
				t.Fatalf("expected %s conflict, got %s", tc.want, conflict.Field)
			}
		})
	}
}

func TestToDomain_LegacyTimestamps(t *testing.T) {
	u := toDomain(mongoUser{
		ID:       primitive.NewObjectID(),
		Username: "ann",
		Created:  "01/03/2024 10:00",
		Updated:  "default",
	})

	if !u.Created.IsZero() || u.RawCreated != "01/03/2024 10:00" {
		t.Fatalf("unparseable created must be kept raw: %+v", u)
	}
	if !u.Updated.IsZero() || u.RawUpdated != "" {
		t.Fatalf("the unset sentinel is not a raw value: %+v", u)
	}
	if p := u.Profile(); p.Created != "01/03/2024 10:00" || p.Updated != domain.UnsetTimestamp {
		t.Fatalf("unexpected profile timestamps: %+v", p)
	}
}
