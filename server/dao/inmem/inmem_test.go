package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/remora/server/dao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Store_UserGrammarCount(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		grammars    int
		deleteFirst bool
		expect      int
	}{
		{name: "none", expect: 0},
		{name: "some", grammars: 3, expect: 3},
		{name: "deleted grammar is not counted", grammars: 2, deleteFirst: true, expect: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			st := NewDatastore()

			u, err := st.Users().Create(ctx, dao.User{Username: "ada", Password: "a"})
			require.NoError(t, err)
			assert.Equal(0, u.Grammars)

			var first dao.Grammar
			for i := 0; i < tc.grammars; i++ {
				g, err := st.Grammars().Create(ctx, dao.Grammar{Owner: u.ID, Name: "g"})
				require.NoError(t, err)
				if i == 0 {
					first = g
				}
			}
			if tc.deleteFirst {
				_, err := st.Grammars().Delete(ctx, first.ID)
				require.NoError(t, err)
			}

			got, err := st.Users().GetByID(ctx, u.ID)
			assert.NoError(err)
			assert.Equal(tc.expect, got.Grammars)

			all, err := st.Users().GetAll(ctx)
			assert.NoError(err)
			if assert.Len(all, 1) {
				assert.Equal(tc.expect, all[0].Grammars)
			}

			got.Grammars = 99
			updated, err := st.Users().Update(ctx, u.ID, got)
			assert.NoError(err)
			assert.Equal(tc.expect, updated.Grammars)
		})
	}
}
