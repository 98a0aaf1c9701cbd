package credential

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jon4hz/eduquest/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestHashPasscode(t *testing.T) {
	a, err := HashPasscode("abc123")
	require.NoError(t, err)
	b, err := HashPasscode("abc123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "argon2id$"))
	assert.NotContains(t, a, "abc123")
	assert.NotEqual(t, a, b, "salts must differ")

	ok, err := VerifyPasscode(a, "abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPasscode(a, "abc124")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPasscode("sha256$abc", "abc123")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		err  bool
	}{
		{in: "Child", want: RoleChild},
		{in: "parent", want: RoleParent},
		{in: " ADMIN ", want: RoleParent},
		{in: "", want: RoleChild},
		{in: "coach", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type StoreTestSuite struct {
	suite.Suite
	db    *database.Client
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	db, err := database.New(filepath.Join(s.T().TempDir(), "eduquest.db"))
	s.Require().NoError(err)
	s.db = db
	s.store = NewStore(db)
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *StoreTestSuite) TestRegisterAndAuthenticate() {
	user, err := s.store.Register(s.ctx, "Kid", "abc123", RoleChild)
	s.Require().NoError(err)
	s.False(user.IsAdmin)
	s.NotEqual("abc123", user.PasscodeHash)

	got, err := s.store.Authenticate(s.ctx, "Kid", "abc123")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
	s.Equal(RoleChild, RoleOf(got))
}

func (s *StoreTestSuite) TestOneCharacterFlipsResult() {
	_, err := s.store.Register(s.ctx, "Kid", "abc123", RoleChild)
	s.Require().NoError(err)

	_, err = s.store.Authenticate(s.ctx, "Kid", "abc124")
	s.ErrorIs(err, ErrInvalidCredential)
	_, err = s.store.Authenticate(s.ctx, "Kid", "Abc123")
	s.ErrorIs(err, ErrInvalidCredential)
}

func (s *StoreTestSuite) TestUnknownUserLooksLikeWrongPasscode() {
	_, err := s.store.Authenticate(s.ctx, "Ghost", "abc123")
	s.ErrorIs(err, ErrInvalidCredential)
}

func (s *StoreTestSuite) TestRegisterDuplicateName() {
	_, err := s.store.Register(s.ctx, "Kid", "abc123", RoleChild)
	s.Require().NoError(err)
	_, err = s.store.Register(s.ctx, " Kid ", "other", RoleParent)
	s.ErrorIs(err, ErrDuplicateName)
}

func (s *StoreTestSuite) TestRegisterEmptyInput() {
	_, err := s.store.Register(s.ctx, "  ", "abc123", RoleChild)
	s.ErrorIs(err, ErrEmptyInput)
	_, err = s.store.Register(s.ctx, "Kid", "", RoleChild)
	s.ErrorIs(err, ErrEmptyInput)
}

func (s *StoreTestSuite) TestDelete() {
	user, err := s.store.Register(s.ctx, "Kid", "abc123", RoleChild)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Delete(s.ctx, user.ID))

	_, err = s.store.Authenticate(s.ctx, "Kid", "abc123")
	s.ErrorIs(err, ErrInvalidCredential)
	s.ErrorIs(s.store.Delete(s.ctx, user.ID), database.ErrNotFound)
}

func (s *StoreTestSuite) TestBootstrapAdminIsCreatedOnce() {
	created, err := s.store.EnsureBootstrapAdmin(s.ctx, "Parent", "Learningapp12345")
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.EnsureBootstrapAdmin(s.ctx, "Parent", "something-else")
	s.Require().NoError(err)
	s.False(created)

	admin, err := s.store.Authenticate(s.ctx, "Parent", "Learningapp12345")
	s.Require().NoError(err)
	s.True(admin.IsAdmin)
}

func (s *StoreTestSuite) TestChangePasscode() {
	_, err := s.store.EnsureBootstrapAdmin(s.ctx, "Parent", "Learningapp12345")
	s.Require().NoError(err)
	s.Require().NoError(s.store.ChangePasscode(s.ctx, "Parent", "n3w-secret"))

	_, err = s.store.Authenticate(s.ctx, "Parent", "Learningapp12345")
	s.ErrorIs(err, ErrInvalidCredential)
	_, err = s.store.Authenticate(s.ctx, "Parent", "n3w-secret")
	s.NoError(err)

	s.ErrorIs(s.store.ChangePasscode(s.ctx, "Nobody", "x"), database.ErrNotFound)
}

func (s *StoreTestSuite) TestNames() {
	for _, n := range []string{"Zed", "Amy"} {
		_, err := s.store.Register(s.ctx, n, "pw", RoleChild)
		s.Require().NoError(err)
	}
	names, err := s.store.Names(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Amy", "Zed"}, names)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
