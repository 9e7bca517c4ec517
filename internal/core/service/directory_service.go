package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

const (
	MsgRegistered      = "User Registration Successfully!"
	MsgUpdated         = "User Update Successfully!"
	MsgPasswordChanged = "Password Update Successfully!"
	MsgUsernameChanged = "Username Update Successfully!"
	MsgDeleted         = "User Delete Successfully!"
)

// DirectoryService implements registration, authentication, lookup, update
// and deletion of users.
//
// Uniqueness of usernames and emails is checked before every write, but the
// check and the write are separate store calls. Optional reservations narrow
// the window between them and the store's unique indexes close it; the
// pre-check exists to produce a friendly rejection in the common case.
type DirectoryService struct {
	store        ports.UserStore
	reservations ports.Reservations
	log          zerolog.Logger
	now          func() time.Time
}

// NewDirectoryService returns a DirectoryService. reservations may be nil.
func NewDirectoryService(store ports.UserStore, reservations ports.Reservations, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		store:        store,
		reservations: reservations,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user after checking that username and email are free.
func (s *DirectoryService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Confirmation, error) {
	const op = "register"
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	releaseUsername, err := s.reserve(ctx, domain.FieldUsername, in.Username)
	if err != nil {
		return nil, s.reject(op, err)
	}
	defer releaseUsername()

	if taken, err := s.taken(ctx, ports.UserFilter{Username: in.Username}, ""); err != nil {
		return nil, s.fail(op, err)
	} else if taken {
		return nil, s.reject(op, domain.ErrUsernameTaken)
	}

	releaseEmail, err := s.reserve(ctx, domain.FieldEmail, in.Email)
	if err != nil {
		return nil, s.reject(op, err)
	}
	defer releaseEmail()

	if taken, err := s.taken(ctx, ports.UserFilter{Email: in.Email}, ""); err != nil {
		return nil, s.fail(op, err)
	} else if taken {
		return nil, s.reject(op, domain.ErrEmailTaken)
	}

	user := &domain.User{
		FullName: in.FullName,
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
		Image:    in.Image,
		Created:  s.clock(),
	}

	id, err := s.store.InsertOne(ctx, user)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info().Str("user_id", id).Str("username", in.Username).Msg("user registered")
	return &ports.Confirmation{UserID: id, Message: MsgRegistered}, nil
}

// Authenticate checks the password of username by exact comparison and
// returns the user's profile on a match.
func (s *DirectoryService) Authenticate(ctx context.Context, username, password string) (*domain.Profile, error) {
	const op = "authenticate"
	if username == "" || password == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	user, err := s.store.FindOne(ctx, ports.UserFilter{Username: username})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, s.reject(op, domain.ErrUsernameIncorrect)
	}
	if err != nil {
		return nil, s.fail(op, err)
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, s.reject(op, domain.ErrPasswordIncorrect)
	}

	profile := user.Profile()
	return &profile, nil
}

// GetByID returns the profile of the user identified by id.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	user, err := s.findByID(ctx, "get", id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// ListAll returns every user currently in the store.
func (s *DirectoryService) ListAll(ctx context.Context) ([]domain.Profile, error) {
	users, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.fail("list", err)
	}
	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// Update overwrites the descriptive fields and email of an existing user.
func (s *DirectoryService) Update(ctx context.Context, in ports.UpdateInput) (*ports.Confirmation, error) {
	const op = "update"
	if in.ID == "" || in.FullName == "" || in.Email == "" || in.Role == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	current, err := s.findByID(ctx, op, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Email != current.Email {
		release, err := s.reserve(ctx, domain.FieldEmail, in.Email)
		if err != nil {
			return nil, s.reject(op, err)
		}
		defer release()

		if taken, err := s.taken(ctx, ports.UserFilter{Email: in.Email}, current.ID); err != nil {
			return nil, s.fail(op, err)
		} else if taken {
			return nil, s.reject(op, domain.ErrEmailTaken)
		}
	}

	updated := s.clock()
	patch := ports.UserPatch{
		FullName: &in.FullName,
		Email:    &in.Email,
		Role:     &in.Role,
		Image:    &in.Image,
		Updated:  &updated,
	}
	return s.apply(ctx, op, current.ID, patch, MsgUpdated)
}

// ChangePassword replaces the stored password of an existing user.
func (s *DirectoryService) ChangePassword(ctx context.Context, id, password string) (*ports.Confirmation, error) {
	const op = "change_password"
	if id == "" || password == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	current, err := s.findByID(ctx, op, id)
	if err != nil {
		return nil, err
	}

	updated := s.clock()
	return s.apply(ctx, op, current.ID, ports.UserPatch{Password: &password, Updated: &updated}, MsgPasswordChanged)
}

// ChangeUsername renames an existing user. Renaming to the username the user
// already holds is accepted and only advances the updated timestamp.
func (s *DirectoryService) ChangeUsername(ctx context.Context, id, username string) (*ports.Confirmation, error) {
	const op = "change_username"
	if id == "" || username == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	current, err := s.findByID(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if username != current.Username {
		release, err := s.reserve(ctx, domain.FieldUsername, username)
		if err != nil {
			return nil, s.reject(op, err)
		}
		defer release()

		if taken, err := s.taken(ctx, ports.UserFilter{Username: username}, current.ID); err != nil {
			return nil, s.fail(op, err)
		} else if taken {
			return nil, s.reject(op, domain.ErrUsernameTaken)
		}
	}

	updated := s.clock()
	return s.apply(ctx, op, current.ID, ports.UserPatch{Username: &username, Updated: &updated}, MsgUsernameChanged)
}

// Delete removes an existing user.
func (s *DirectoryService) Delete(ctx context.Context, id string) (*ports.Confirmation, error) {
	const op = "delete"
	if id == "" {
		return nil, s.reject(op, domain.ErrMissingFields)
	}

	current, err := s.findByID(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteOne(ctx, ports.UserFilter{ID: current.ID}); err != nil {
		return nil, s.fail(op, err)
	}

	s.log.Info().Str("user_id", current.ID).Str("username", current.Username).Msg("user deleted")
	return &ports.Confirmation{UserID: current.ID, Message: MsgDeleted}, nil
}

// findByID loads a user, translating an empty id into ErrInvalidID.
func (s *DirectoryService) findByID(ctx context.Context, op, id string) (*domain.User, error) {
	if id == "" {
		return nil, s.reject(op, domain.ErrInvalidID)
	}
	user, err := s.store.FindOne(ctx, ports.UserFilter{ID: id})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return user, nil
}

// taken reports whether a user other than selfID matches filter.
func (s *DirectoryService) taken(ctx context.Context, filter ports.UserFilter, selfID string) (bool, error) {
	other, err := s.store.FindOne(ctx, filter)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return other.ID != selfID, nil
}

// apply writes patch to the user and logs the mutation.
func (s *DirectoryService) apply(ctx context.Context, op, id string, patch ports.UserPatch, msg string) (*ports.Confirmation, error) {
	if err := s.store.UpdateOne(ctx, ports.UserFilter{ID: id}, patch); err != nil {
		return nil, s.fail(op, err)
	}
	s.log.Info().Str("user_id", id).Str("op", op).Msg("user updated")
	return &ports.Confirmation{UserID: id, Message: msg}, nil
}

// reserve claims field=value for the duration of a write. The returned func
// releases the claim. A reservation backend failure is logged and tolerated.
func (s *DirectoryService) reserve(ctx context.Context, field, value string) (func(), error) {
	if s.reservations == nil {
		return func() {}, nil
	}

	token, ok, err := s.reservations.Claim(ctx, field, value)
	if err != nil {
		s.log.Warn().Err(err).Str("field", field).Msg("reservation unavailable, relying on unique index")
		return func() {}, nil
	}
	if !ok {
		return nil, takenError(field)
	}

	return func() {
		if err := s.reservations.Release(context.WithoutCancel(ctx), field, value, token); err != nil {
			s.log.Warn().Err(err).Str("field", field).Msg("failed to release reservation")
		}
	}, nil
}

// fail classifies a store error: rule violations and unique-index conflicts
// become soft failures, everything else is logged and returned wrapped.
func (s *DirectoryService) fail(op string, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return s.reject(op, takenError(conflict.Field))
	}
	if domain.IsRuleViolation(err) {
		return s.reject(op, err)
	}
	s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return fmt.Errorf("%s: %w", op, err)
}

func (s *DirectoryService) reject(op string, err error) error {
	s.log.Debug().Str("op", op).Str("reason", string(domain.ReasonOf(err))).Msg("request rejected")
	return err
}

func (s *DirectoryService) clock() time.Time {
	return s.now().Truncate(time.Second)
}

func takenError(field string) error {
	if field == domain.FieldEmail {
		return domain.ErrEmailTaken
	}
	return domain.ErrUsernameTaken
}
