// Package inmem holds repositories that keep everything in memory. Nothing
// survives the process.
package inmem

import (
	"fmt"

	"github.com/dekarrin/remora/server/dao"
)

type store struct {
	users    *InMemoryUsersRepository
	grammars *InMemoryGrammarsRepository
}

func NewDatastore() dao.Store {
	st := &store{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
	}
	st.users.countGrammars = st.grammars.countOwnedBy
	return st
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) Close() error {
	var err error

	if nextErr := s.users.Close(); nextErr != nil {
		err = nextErr
	}
	if nextErr := s.grammars.Close(); nextErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
