// Package credential manages user identities and their passcodes.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/samber/lo"
)

var (
	// ErrDuplicateName is returned when registering a name that is already taken.
	ErrDuplicateName = errors.New("user name already exists")
	// ErrInvalidCredential is returned for unknown users and wrong passcodes alike.
	ErrInvalidCredential = errors.New("invalid name or passcode")
	// ErrEmptyInput is returned when name or passcode is blank.
	ErrEmptyInput = errors.New("name and passcode must not be empty")
	// ErrUnknownRole is returned for roles other than RoleChild and RoleParent.
	ErrUnknownRole = errors.New("unknown role")
)

// Role determines what a user may do. Parents are admins.
type Role string

const (
	RoleChild  Role = "Child"
	RoleParent Role = "Parent"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "child", "":
		return RoleChild, nil
	case "parent", "admin":
		return RoleParent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// RoleOf returns the role of a stored user.
func RoleOf(u *database.User) Role {
	if u.IsAdmin {
		return RoleParent
	}
	return RoleChild
}

// Store registers and authenticates users.
type Store struct {
	db database.UserDB
}

// NewStore returns a Store backed by db.
func NewStore(db database.UserDB) *Store {
	return &Store{db: db}
}

// Register creates a user with a hashed passcode.
func (s *Store) Register(ctx context.Context, name, passcode string, role Role) (*database.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(passcode) == "" {
		return nil, ErrEmptyInput
	}
	if role != RoleChild && role != RoleParent {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	hash, err := HashPasscode(passcode)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Name:         name,
		PasscodeHash: hash,
		IsAdmin:      role == RoleParent,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user if passcode matches the stored hash.
// Unknown names and wrong passcodes both yield ErrInvalidCredential.
func (s *Store) Authenticate(ctx context.Context, name, passcode string) (*database.User, error) {
	user, err := s.db.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.Debug("login attempt for unknown user", "name", name)
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	ok, err := VerifyPasscode(user.PasscodeHash, passcode)
	if err != nil {
		log.Error("stored passcode hash is unreadable", "user", user.Name, "error", err)
		return nil, ErrInvalidCredential
	}
	if !ok {
		log.Debug("login attempt with wrong passcode", "name", user.Name)
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// Delete removes a user. Their sessions are not touched.
func (s *Store) Delete(ctx context.Context, userID uint) error {
	return s.db.DeleteUser(ctx, userID)
}

// Get returns a user by id.
func (s *Store) Get(ctx context.Context, userID uint) (*database.User, error) {
	return s.db.GetUserByID(ctx, userID)
}

// List returns all users ordered by name.
func (s *Store) List(ctx context.Context) ([]database.User, error) {
	return s.db.ListUsers(ctx)
}

// Names returns the names offered on the sign-in screen.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	users, err := s.db.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u database.User, _ int) string { return u.Name }), nil
}

// ChangePasscode replaces the passcode of the named user.
func (s *Store) ChangePasscode(ctx context.Context, name, passcode string) error {
	if strings.TrimSpace(passcode) == "" {
		return ErrEmptyInput
	}
	user, err := s.db.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	hash, err := HashPasscode(passcode)
	if err != nil {
		return err
	}
	return s.db.UpdateUserPasscode(ctx, user.ID, hash)
}

// EnsureBootstrapAdmin creates the admin user if no user with that name exists.
// It reports whether a user was created.
func (s *Store) EnsureBootstrapAdmin(ctx context.Context, name, passcode string) (bool, error) {
	_, err := s.db.GetUserByName(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	if _, err := s.Register(ctx, name, passcode, RoleParent); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	log.Info("Created bootstrap admin", "name", name)
	return true, nil
}
