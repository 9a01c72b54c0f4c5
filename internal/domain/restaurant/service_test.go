package restaurant

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	byID    map[string]*Restaurant
	serving []Restaurant

	existsErr     error
	createErr     error
	saveErr       error
	conflictSaves int

	created   *Restaurant
	saveCalls int
	lastFind  struct {
		itemName    string
		minCapacity int
		strategy    Strategy
	}
}

func newMockRepo(restaurants ...*Restaurant) *mockRepo {
	byID := make(map[string]*Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}
	return &mockRepo{byID: byID}
}

func (m *mockRepo) Get(_ context.Context, id string) (*Restaurant, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) GetForShare(ctx context.Context, id string) (*Restaurant, error) {
	return m.Get(ctx, id)
}

func (m *mockRepo) Create(_ context.Context, r *Restaurant) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = r
	m.byID[r.ID] = r
	return nil
}

func (m *mockRepo) Save(_ context.Context, r *Restaurant) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.conflictSaves > 0 {
		m.conflictSaves--
		return ErrVersionConflict
	}
	stored, ok := m.byID[r.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = *r
	stored.Version++
	return nil
}

func (m *mockRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, r := range m.byID {
		if r.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) List(_ context.Context, _ string, _, _ int) ([]Restaurant, error) {
	out := make([]Restaurant, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRepo) FindServing(_ context.Context, itemName string, minCapacity int, strategy Strategy) ([]Restaurant, error) {
	m.lastFind.itemName = itemName
	m.lastFind.minCapacity = minCapacity
	m.lastFind.strategy = strategy
	return m.serving, nil
}

// --- Tests ---

func TestAdd_CreatesRestaurant(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, UpdateConfig{})

	r, err := svc.Add(context.Background(), CreateRequest{Name: "Testaurant", Capacity: 10, Rating: 4.5})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Testaurant", r.Name)
	assert.Equal(t, 10, r.Capacity)
	require.NotNil(t, repo.created)
	assert.Equal(t, r.ID, repo.created.ID)
}

func TestAdd_DuplicateName(t *testing.T) {
	repo := newMockRepo(&Restaurant{ID: "r1", Name: "Testaurant"})
	svc := NewService(repo, UpdateConfig{})

	_, err := svc.Add(context.Background(), CreateRequest{Name: "Testaurant", Capacity: 5})
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Nil(t, repo.created)
}

func TestUpdate_OverwritesFields(t *testing.T) {
	repo := newMockRepo(&Restaurant{ID: "r1", Name: "Old", Capacity: 5, Rating: 3.0, Version: 1})
	svc := NewService(repo, UpdateConfig{RetryBackoff: 0})

	err := svc.Update(context.Background(), "r1", CreateRequest{Name: "New", Capacity: 8, Rating: 4.2})
	require.NoError(t, err)

	stored := repo.byID["r1"]
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, 8, stored.Capacity)
	assert.InEpsilon(t, 4.2, stored.Rating, 1e-9)
}

func TestUpdate_RetriesConflictThenSucceeds(t *testing.T) {
	repo := newMockRepo(&Restaurant{ID: "r1", Name: "Old", Version: 1})
	repo.conflictSaves = 2
	svc := NewService(repo, UpdateConfig{MaxAttempts: 3, RetryBackoff: 0})

	err := svc.Update(context.Background(), "r1", CreateRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.saveCalls)
}

func TestUpdate_ConflictExhausted(t *testing.T) {
	repo := newMockRepo(&Restaurant{ID: "r1", Name: "Old", Version: 1})
	repo.conflictSaves = 3
	svc := NewService(repo, UpdateConfig{MaxAttempts: 3, RetryBackoff: 0})

	err := svc.Update(context.Background(), "r1", CreateRequest{Name: "New"})
	require.ErrorIs(t, err, ErrUpdateFailed)
	assert.Equal(t, "Old", repo.byID["r1"].Name)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), UpdateConfig{})

	err := svc.Update(context.Background(), "missing", CreateRequest{Name: "New"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_SaveErrorNotRetried(t *testing.T) {
	repo := newMockRepo(&Restaurant{ID: "r1", Name: "Old", Version: 1})
	repo.saveErr = errors.New("disk full")
	svc := NewService(repo, UpdateConfig{MaxAttempts: 3, RetryBackoff: 0})

	err := svc.Update(context.Background(), "r1", CreateRequest{Name: "New"})
	require.ErrorIs(t, err, repo.saveErr)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestFindServing_ResolvesStrategy(t *testing.T) {
	repo := newMockRepo()
	repo.serving = []Restaurant{{ID: "r1", Name: "A", Capacity: 3}}
	svc := NewService(repo, UpdateConfig{})

	got, err := svc.FindServing(context.Background(), "RATING", "Pizza", 1)
	require.NoError(t, err)

	assert.Len(t, got, 1)
	assert.Equal(t, StrategyRatingDescending, repo.lastFind.strategy)
	assert.Equal(t, "Pizza", repo.lastFind.itemName)
	assert.Equal(t, 1, repo.lastFind.minCapacity)
}

func TestFindServing_UnknownStrategy(t *testing.T) {
	svc := NewService(newMockRepo(), UpdateConfig{})

	_, err := svc.FindServing(context.Background(), "popularity", "Pizza", 1)

	var snfErr *StrategyNotFoundError
	require.ErrorAs(t, err, &snfErr)
}

func TestFindServing_NoneServing(t *testing.T) {
	svc := NewService(newMockRepo(), UpdateConfig{})

	_, err := svc.FindServing(context.Background(), "price", "Pizza", 1)

	var nsErr *NoRestaurantServesItemError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "Pizza", nsErr.ItemName)
}
