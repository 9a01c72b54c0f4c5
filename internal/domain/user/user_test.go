package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byID map[string]*User
}

func newMockRepo(users ...*User) *mockRepo {
	byID := make(map[string]*User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &mockRepo{byID: byID}
}

func (m *mockRepo) Get(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	m.byID[u.ID] = u
	return nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return ErrNotFound
	}
	m.byID[u.ID] = u
	return nil
}

func TestAdd(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	u, err := svc.Add(context.Background(), Request{Name: "Ada", Email: "ada@example.com", Age: 29})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ada", u.Name)
	assert.Contains(t, repo.byID, u.ID)
}

func TestUpdate(t *testing.T) {
	repo := newMockRepo(&User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	svc := NewService(repo)

	err := svc.Update(context.Background(), "u1", Request{Name: "Ada D.", Email: "ada@example.com", Age: 30})
	require.NoError(t, err)

	assert.Equal(t, "Ada D.", repo.byID["u1"].Name)
	assert.Equal(t, 30, repo.byID["u1"].Age)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Update(context.Background(), "ghost", Request{Name: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}
