package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/rentmail/internal/contracts/pricing"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

type memRepo struct{ users map[string]udomain.AppUser }

func (m *memRepo) GetByID(ctx context.Context, uid string) (udomain.AppUser, error) {
	u, ok := m.users[uid]
	if !ok {
		return udomain.AppUser{}, udomain.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) ListByType(ctx context.Context, t udomain.UserType) ([]udomain.AppUser, error) {
	return nil, nil
}

func (m *memRepo) Upsert(ctx context.Context, u udomain.AppUser) error {
	m.users[u.UID] = u
	return nil
}

func (m *memRepo) Delete(ctx context.Context, uid string) error { return nil }

func TestUserFromFlags(t *testing.T) {
	u, err := userFromFlags("", "a@example.com", "Ann", "Lee", "ADMIN")
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	assert.Equal(t, udomain.TypeAdmin, u.Type)

	_, err = userFromFlags("u1", "", "", "", "customer")
	assert.Error(t, err)
	_, err = userFromFlags("u1", "not-an-email", "", "", "customer")
	assert.Error(t, err)
	_, err = userFromFlags("u1", "a@example.com", "", "", "owner")
	assert.Error(t, err)
}

func TestEnsureUser_CreateThenUpdateKeepsCreatedAt(t *testing.T) {
	repo := &memRepo{users: map[string]udomain.AppUser{}}
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	ok, err := ensureUser(ctx, repo, udomain.AppUser{UID: "u1", Email: "a@example.com", CreatedAt: created})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ensureUser(ctx, repo, udomain.AppUser{UID: "u1", Email: "b@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "b@example.com", repo.users["u1"].Email)
	assert.Equal(t, created, repo.users["u1"].CreatedAt)
}

func TestDemoUsers(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	users := demoUsers(3, "boss@example.com", "rentals.example", rand.New(rand.NewSource(1)), now)
	require.Len(t, users, 4)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "boss@example.com", users[0].Email)
	for _, u := range users[1:] {
		assert.Equal(t, udomain.TypeCustomer, u.Type)
		assert.Contains(t, u.Email, "@rentals.example")
		require.NotNil(t, u.Profile)
		assert.NotEmpty(t, u.Profile.PermitNumber)
	}
}

func TestSampleContract(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := sampleContract("uid-9", rand.New(rand.NewSource(7)), now)
	assert.Equal(t, "uid-9", c.UserID)
	assert.Len(t, c.ID, 20)
	assert.GreaterOrEqual(t, pricing.RentalDays(c.DateOut, c.DateDue), 1)
	assert.True(t, pricing.TotalAmount(c).IsPositive())
}
