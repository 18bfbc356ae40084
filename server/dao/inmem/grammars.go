package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dekarrin/remora/internal/util"
	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *InMemoryGrammarsRepository {
	return &InMemoryGrammarsRepository{
		grammars:     make(map[uuid.UUID]dao.Grammar),
		byOwnerIndex: make(map[uuid.UUID]util.KeySet[uuid.UUID]),
	}
}

type InMemoryGrammarsRepository struct {
	mtx          sync.RWMutex
	grammars     map[uuid.UUID]dao.Grammar
	byOwnerIndex map[uuid.UUID]util.KeySet[uuid.UUID]
}

func (imgr *InMemoryGrammarsRepository) Close() error {
	return nil
}

func (imgr *InMemoryGrammarsRepository) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	g.ID = newUUID
	now := time.Now()
	g.Created = now
	g.Modified = now

	imgr.grammars[g.ID] = g
	imgr.index(g)

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	all := make([]dao.Grammar, 0, len(imgr.grammars))
	for k := range imgr.grammars {
		all = append(all, imgr.grammars[k])
	}

	return sortGrammars(all), nil
}

func (imgr *InMemoryGrammarsRepository) countOwnedBy(owner uuid.UUID) int {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	return imgr.byOwnerIndex[owner].Len()
}

func (imgr *InMemoryGrammarsRepository) GetAllByOwner(ctx context.Context, owner uuid.UUID) ([]dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	ids := imgr.byOwnerIndex[owner]
	all := make([]dao.Grammar, 0, ids.Len())
	for id := range ids {
		all = append(all, imgr.grammars[id])
	}

	return sortGrammars(all), nil
}

func (imgr *InMemoryGrammarsRepository) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	existing, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	if g.ID != id {
		if _, ok := imgr.grammars[g.ID]; ok {
			return dao.Grammar{}, dao.ErrConstraintViolation
		}
	}

	g.Created = existing.Created
	g.Modified = time.Now()

	imgr.unindex(existing)
	delete(imgr.grammars, id)
	imgr.grammars[g.ID] = g
	imgr.index(g)

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.RLock()
	defer imgr.mtx.RUnlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	imgr.mtx.Lock()
	defer imgr.mtx.Unlock()

	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	imgr.unindex(g)
	delete(imgr.grammars, id)

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) index(g dao.Grammar) {
	owned, ok := imgr.byOwnerIndex[g.Owner]
	if !ok {
		owned = util.KeySet[uuid.UUID]{}
		imgr.byOwnerIndex[g.Owner] = owned
	}
	owned.Add(g.ID)
}

func (imgr *InMemoryGrammarsRepository) unindex(g dao.Grammar) {
	owned := imgr.byOwnerIndex[g.Owner]
	owned.Remove(g.ID)
	if owned.Empty() {
		delete(imgr.byOwnerIndex, g.Owner)
	}
}

func sortGrammars(all []dao.Grammar) []dao.Grammar {
	return util.SortBy(all, func(l, r dao.Grammar) bool {
		if l.Name != r.Name {
			return l.Name < r.Name
		}
		return l.ID.String() < r.ID.String()
	})
}
