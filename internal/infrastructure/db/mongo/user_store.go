package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// DefaultUsersCollection is where users are stored unless configured otherwise.
const DefaultUsersCollection = "user"

const (
	usernameIndex = "uniq_username"
	emailIndex    = "uniq_email"
)

var errEmptyFilter = errors.New("empty user filter")

// UserStore implements ports.UserStore on a MongoDB collection.
type UserStore struct {
	coll *mongo.Collection
}

var _ ports.UserStore = (*UserStore)(nil)

func NewUserStore(db *mongo.Database, collection string) *UserStore {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	return &UserStore{coll: db.Collection(collection)}
}

type mongoUser struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	FullName string             `bson:"full_name"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
	Role     string             `bson:"role"`
	Image    string             `bson:"image"`
	Created  string             `bson:"created"`
	Updated  string             `bson:"updated"`
}

func (r *UserStore) FindOne(ctx context.Context, f ports.UserFilter) (*domain.User, error) {
	filter, err := toFilter(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify("find user", err)
	}
	return toDomain(mu), nil
}

func (r *UserStore) InsertOne(ctx context.Context, u *domain.User) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Password: u.Password,
		Role:     u.Role,
		Image:    u.Image,
		Created:  domain.FormatTimestamp(u.Created),
		Updated:  domain.FormatTimestamp(u.Updated),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", classify("insert user", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *UserStore) UpdateOne(ctx context.Context, f ports.UserFilter, p ports.UserPatch) error {
	filter, err := toFilter(f)
	if err != nil {
		return err
	}

	set := toSet(p)
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return classify("update user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserStore) DeleteOne(ctx context.Context, f ports.UserFilter) error {
	filter, err := toFilter(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return classify("delete user", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindAll returns every document in the collection. There is no pagination.
func (r *UserStore) FindAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, classify("find users", err)
	}

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify("decode users", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, toDomain(d))
	}
	return users, nil
}

// EnsureIndexes creates the unique indexes backing username and email uniqueness.
// Creation fails if the collection already holds duplicates.
func (r *UserStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return classify("create indexes", err)
	}
	return nil
}

func toFilter(f ports.UserFilter) (bson.M, error) {
	filter := bson.M{}
	if f.ID != "" {
		oid, err := primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter["_id"] = oid
	}
	if f.Username != "" {
		filter["username"] = f.Username
	}
	if f.Email != "" {
		filter["email"] = f.Email
	}
	if len(filter) == 0 {
		return nil, errEmptyFilter
	}
	return filter, nil
}

func toSet(p ports.UserPatch) bson.M {
	set := bson.M{}
	if p.FullName != nil {
		set["full_name"] = *p.FullName
	}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Password != nil {
		set["password"] = *p.Password
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	if p.Updated != nil {
		set["updated"] = domain.FormatTimestamp(*p.Updated)
	}
	return set
}

// toDomain maps a stored document. Timestamps that do not parse (legacy
// records) are carried as raw strings.
func toDomain(mu mongoUser) *domain.User {
	u := &domain.User{
		ID:       mu.ID.Hex(),
		FullName: mu.FullName,
		Username: mu.Username,
		Email:    mu.Email,
		Password: mu.Password,
		Role:     mu.Role,
		Image:    mu.Image,
	}
	if t, err := domain.ParseTimestamp(mu.Created); err == nil {
		u.Created = t
	} else {
		u.RawCreated = mu.Created
	}
	if t, err := domain.ParseTimestamp(mu.Updated); err == nil {
		u.Updated = t
	} else {
		u.RawUpdated = mu.Updated
	}
	return u
}

// classify turns a driver error into a domain error: unique index violations
// become *domain.ConflictError and connectivity failures wrap
// domain.ErrStoreUnavailable.
func classify(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.ConflictError{Field: duplicateField(err)}
	}
	if unavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unavailable(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, topology.ErrServerSelectionTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// duplicateField maps the violated index to the user field it guards. Only
// the index name is read; the duplicated value may contain anything.
func duplicateField(err error) string {
	var msgs []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			msgs = append(msgs, e.Message)
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		msgs = append(msgs, ce.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, err.Error())
	}

	for _, msg := range msgs {
		switch duplicateIndex(msg) {
		case emailIndex, "email_1":
			return domain.FieldEmail
		case usernameIndex, "username_1":
			return domain.FieldUsername
		}
	}
	return domain.FieldUsername
}

// duplicateIndex extracts the index name from an E11000 message:
// "E11000 duplicate key error collection: db.user index: <name> dup key: {...}".
func duplicateIndex(msg string) string {
	if head, _, ok := strings.Cut(msg, " dup key:"); ok {
		msg = head
	}
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
	return name
}
