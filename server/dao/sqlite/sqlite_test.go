package sqlite

import (
	"context"
	"net/mail"
	"testing"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) dao.Store {
	st, err := NewDatastore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testGrammar() grammar.Grammar {
	return grammar.Grammar{Rules: []grammar.Rule{
		{Name: "sum", Body: &grammar.Sequence{Items: []grammar.Node{
			&grammar.RuleRef{Name: "num"},
			&grammar.ZeroOrMore{Body: &grammar.Sequence{Items: []grammar.Node{
				&grammar.Pattern{Info: grammar.NewPatternInfo(`\+`, "")},
				&grammar.RuleRef{Name: "num"},
			}}},
		}}},
		{Name: "num", Body: &grammar.Pattern{Info: grammar.NewPatternInfo(`[0-9]+`, "")}},
	}}
}

func Test_UsersDB(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		assert := assert.New(t)
		st := newTestStore(t)

		email, _ := mail.ParseAddress("ada@example.com")
		created, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "hash", Email: email, Role: dao.Admin})
		require.NoError(t, err)
		assert.NotEqual(uuid.Nil, created.ID)
		assert.Equal("ada@example.com", created.Email.Address)
		assert.Equal(dao.Admin, created.Role)
		assert.False(created.Created.IsZero())
		assert.True(created.LastLoginTime.IsZero())

		byName, err := st.Users().GetByUsername(ctx, "ada")
		assert.NoError(err)
		assert.Equal(created.ID, byName.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		st := newTestStore(t)

		_, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
		require.NoError(t, err)
		_, err = st.Users().Create(ctx, dao.User{Username: "ada", Password: "b"})
		assert.ErrorIs(t, err, dao.ErrConstraintViolation)
	})

	t.Run("not found", func(t *testing.T) {
		st := newTestStore(t)

		_, err := st.Users().GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, dao.ErrNotFound)
		_, err = st.Users().Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, dao.ErrNotFound)
	})

	t.Run("update and delete", func(t *testing.T) {
		assert := assert.New(t)
		st := newTestStore(t)

		u, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
		require.NoError(t, err)

		u.Username = "ada2"
		u.Email = nil
		updated, err := st.Users().Update(ctx, u.ID, u)
		assert.NoError(err)
		assert.Equal("ada2", updated.Username)
		assert.Nil(updated.Email)

		all, err := st.Users().GetAll(ctx)
		assert.NoError(err)
		assert.Len(all, 1)

		_, err = st.Users().Delete(ctx, u.ID)
		assert.NoError(err)
		all, err = st.Users().GetAll(ctx)
		assert.NoError(err)
		assert.Len(all, 0)
	})
}

func Test_UsersDB_OwnedGrammars(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		owned    int
		others   int
		changeID bool
	}{
		{name: "no grammars"},
		{name: "counts only own", owned: 2, others: 1},
		{name: "grammars follow new ID", owned: 3, changeID: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			st := newTestStore(t)

			u, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
			require.NoError(t, err)
			other, err := st.Users().Create(ctx, dao.User{Username: "bob", Password: "b"})
			require.NoError(t, err)
			for i := 0; i < tc.owned; i++ {
				_, err := st.Grammars().Create(ctx, dao.Grammar{Owner: u.ID, Name: "g", AST: testGrammar()})
				require.NoError(t, err)
			}
			for i := 0; i < tc.others; i++ {
				_, err := st.Grammars().Create(ctx, dao.Grammar{Owner: other.ID, Name: "o", AST: testGrammar()})
				require.NoError(t, err)
			}

			if tc.changeID {
				oldID := u.ID
				u.ID = uuid.New()
				_, err := st.Users().Update(ctx, oldID, u)
				require.NoError(t, err)
			}

			got, err := st.Users().GetByID(ctx, u.ID)
			assert.NoError(err)
			assert.Equal(tc.owned, got.Grammars)

			byName, err := st.Users().GetByUsername(ctx, "ada")
			assert.NoError(err)
			assert.Equal(tc.owned, byName.Grammars)

			owned, err := st.Grammars().GetAllByOwner(ctx, u.ID)
			assert.NoError(err)
			assert.Len(owned, tc.owned)

			deleted, err := st.Users().Delete(ctx, u.ID)
			assert.NoError(err)
			assert.Equal(tc.owned, deleted.Grammars)

			remaining, err := st.Grammars().GetAll(ctx)
			assert.NoError(err)
			assert.Len(remaining, tc.others)

			all, err := st.Users().GetAll(ctx)
			assert.NoError(err)
			if assert.Len(all, 1) {
				assert.Equal("bob", all[0].Username)
				assert.Equal(tc.others, all[0].Grammars)
			}
		})
	}
}

func Test_GrammarsDB(t *testing.T) {
	ctx := context.Background()

	t.Run("AST survives storage", func(t *testing.T) {
		assert := assert.New(t)
		st := newTestStore(t)

		owner, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
		require.NoError(t, err)

		created, err := st.Grammars().Create(ctx, dao.Grammar{
			Owner:  owner.ID,
			Name:   "sums",
			Source: "sum : num (r'\\+' num)*\nnum : r'[0-9]+'\n",
			AST:    testGrammar(),
		})
		require.NoError(t, err)

		got, err := st.Grammars().GetByID(ctx, created.ID)
		assert.NoError(err)
		assert.Equal("sums", got.Name)
		assert.Equal(owner.ID, got.Owner)
		assert.Equal(testGrammar().String(), got.AST.String())
	})

	t.Run("by owner", func(t *testing.T) {
		assert := assert.New(t)
		st := newTestStore(t)

		a, err := st.Users().Create(ctx, dao.User{Username: "a", Password: "a"})
		require.NoError(t, err)
		b, err := st.Users().Create(ctx, dao.User{Username: "b", Password: "b"})
		require.NoError(t, err)

		for _, name := range []string{"z", "y"} {
			_, err := st.Grammars().Create(ctx, dao.Grammar{Owner: a.ID, Name: name, AST: testGrammar()})
			require.NoError(t, err)
		}
		_, err = st.Grammars().Create(ctx, dao.Grammar{Owner: b.ID, Name: "x", AST: testGrammar()})
		require.NoError(t, err)

		ofA, err := st.Grammars().GetAllByOwner(ctx, a.ID)
		assert.NoError(err)
		if assert.Len(ofA, 2) {
			assert.Equal("y", ofA[0].Name)
			assert.Equal("z", ofA[1].Name)
		}

		all, err := st.Grammars().GetAll(ctx)
		assert.NoError(err)
		assert.Len(all, 3)
	})

	t.Run("owner must exist", func(t *testing.T) {
		st := newTestStore(t)

		_, err := st.Grammars().Create(ctx, dao.Grammar{Owner: uuid.New(), Name: "orphan", AST: testGrammar()})
		assert.ErrorIs(t, err, dao.ErrConstraintViolation)
	})

	t.Run("delete", func(t *testing.T) {
		assert := assert.New(t)
		st := newTestStore(t)

		owner, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
		require.NoError(t, err)
		g, err := st.Grammars().Create(ctx, dao.Grammar{Owner: owner.ID, Name: "g", AST: testGrammar()})
		require.NoError(t, err)

		_, err = st.Grammars().Delete(ctx, g.ID)
		assert.NoError(err)
		_, err = st.Grammars().GetByID(ctx, g.ID)
		assert.ErrorIs(err, dao.ErrNotFound)
	})
}
