package engine

import (
	"context"
	"errors"
	"time"

	"github.com/jon4hz/eduquest/internal/credential"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/learner"
)

// SignIn authenticates the user and starts a fresh learner context.
func (e *Engine) SignIn(ctx context.Context, name, passcode string) (*database.User, error) {
	user, err := e.users.Authenticate(ctx, name, passcode)
	if err != nil {
		return nil, err
	}
	sc := learner.NewContext(user.ID, user.Name, e.now())
	if err := e.contexts.Set(ctx, sc); err != nil {
		return nil, err
	}
	e.log.Info("User signed in", "user", user.Name)
	return user, nil
}

// SignOut drops the learner context, abandoning any unsaved session, and
// returns how long the user was signed in.
func (e *Engine) SignOut(ctx context.Context, userID uint) (time.Duration, error) {
	var signedIn time.Duration
	sc, err := e.contexts.Get(ctx, userID)
	switch {
	case err == nil:
		signedIn = e.now().Sub(sc.SignedInAt)
		if sc.State != learner.Idle {
			e.log.Info("Abandoning unsaved session on sign out", "user", sc.UserName, "state", sc.State)
		}
	case errors.Is(err, learner.ErrNoContext):
	default:
		return 0, err
	}
	if err := e.contexts.Delete(ctx, userID); err != nil {
		return 0, err
	}
	return signedIn, nil
}

// User returns a user by id.
func (e *Engine) User(ctx context.Context, userID uint) (*database.User, error) {
	return e.users.Get(ctx, userID)
}

// UserNames returns the names for the sign-in picker.
func (e *Engine) UserNames(ctx context.Context) ([]string, error) {
	return e.users.Names(ctx)
}

// Users returns all users ordered by name.
func (e *Engine) Users(ctx context.Context) ([]database.User, error) {
	return e.users.List(ctx)
}

// RegisterUser creates a user. actor is nil when called from the CLI.
func (e *Engine) RegisterUser(ctx context.Context, actor *database.User, name, passcode string, role credential.Role) (*database.User, error) {
	user, err := e.users.Register(ctx, name, passcode, role)
	if err != nil {
		return nil, err
	}
	e.recordEvent(ctx, database.HistoryEventUserCreated, user.Name, actor, string(role))
	return user, nil
}

// DeleteUser removes a user. Their sessions are kept.
func (e *Engine) DeleteUser(ctx context.Context, actor *database.User, userID uint) error {
	if actor != nil && actor.ID == userID {
		return ErrSelfDelete
	}
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := e.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := e.contexts.Delete(ctx, userID); err != nil {
		e.log.Warn("failed to drop learner context of deleted user", "user", user.Name, "error", err)
	}
	e.recordEvent(ctx, database.HistoryEventUserDeleted, user.Name, actor, "")
	return nil
}

// DeleteUserByName is the CLI variant of DeleteUser.
func (e *Engine) DeleteUserByName(ctx context.Context, name string) error {
	users, err := e.users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Name == name {
			return e.DeleteUser(ctx, nil, u.ID)
		}
	}
	return database.ErrNotFound
}

// ChangePasscode replaces the passcode of the named user.
func (e *Engine) ChangePasscode(ctx context.Context, name, passcode string) error {
	return e.users.ChangePasscode(ctx, name, passcode)
}
