package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentcard_service/internal/lib/logger/handlers/slogdiscard"
	"rentcard_service/internal/models"
	"rentcard_service/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ Backend[models.RecipientContact] = (*client.Resource[models.RecipientContact])(nil)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) List(ctx context.Context) ([]models.RecipientContact, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.RecipientContact)
	return items, args.Error(1)
}

func (m *MockBackend) Create(ctx context.Context, item models.RecipientContact) (models.RecipientContact, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(models.RecipientContact), args.Error(1)
}

func (m *MockBackend) Update(ctx context.Context, id int64, item models.RecipientContact) (models.RecipientContact, error) {
	args := m.Called(ctx, id, item)
	return args.Get(0).(models.RecipientContact), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func seeded(t *testing.T, backend *MockBackend) (*Store[models.RecipientContact], *recordingNotifier) {
	t.Helper()

	n := &recordingNotifier{}
	s := New[models.RecipientContact](slogdiscard.NewDiscardLogger(), "contacts", backend, n)

	backend.On("List", mock.Anything).Return([]models.RecipientContact{
		{ID: 1, Name: "Ann"},
		{ID: 2, Name: "Bob"},
	}, nil).Once()

	require.NoError(t, s.Fetch(context.Background()))

	return s, n
}

func TestStore_DeleteSuccess(t *testing.T) {
	backend := new(MockBackend)
	s, n := seeded(t, backend)

	backend.On("Delete", mock.Anything, int64(1)).Return(nil).Once()

	require.NoError(t, s.Delete(context.Background(), 1))

	assert.Equal(t, []models.RecipientContact{{ID: 2, Name: "Bob"}}, s.Items())
	assert.Empty(t, n.msgs)
	backend.AssertExpectations(t)
}

func TestStore_DeleteFailureKeepsList(t *testing.T) {
	backend := new(MockBackend)
	s, n := seeded(t, backend)
	before := s.Items()

	backend.On("Delete", mock.Anything, int64(1)).Return(errors.New("500: internal error")).Once()

	err := s.Delete(context.Background(), 1)
	require.Error(t, err)

	assert.Equal(t, before, s.Items())
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "failed to delete contacts")
	assert.False(t, s.Pending())
}

func TestStore_DeleteWaitsForServer(t *testing.T) {
	backend := new(MockBackend)
	s, _ := seeded(t, backend)

	release := make(chan time.Time)
	backend.On("Delete", mock.Anything, int64(2)).WaitUntil(release).Return(nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- s.Delete(context.Background(), 2)
	}()

	require.Eventually(t, s.Pending, time.Second, time.Millisecond)
	assert.Len(t, s.Items(), 2)

	_, err := s.Add(context.Background(), models.RecipientContact{Name: "Cy"})
	assert.ErrorIs(t, err, ErrPending)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []models.RecipientContact{{ID: 1, Name: "Ann"}}, s.Items())
}

func TestStore_AddAndUpdate(t *testing.T) {
	backend := new(MockBackend)
	s, _ := seeded(t, backend)

	backend.On("Create", mock.Anything, models.RecipientContact{Name: "Cy"}).
		Return(models.RecipientContact{ID: 3, Name: "Cy"}, nil).Once()
	backend.On("Update", mock.Anything, int64(1), models.RecipientContact{Name: "Anna"}).
		Return(models.RecipientContact{ID: 1, Name: "Anna"}, nil).Once()

	created, err := s.Add(context.Background(), models.RecipientContact{Name: "Cy"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	_, err = s.Update(context.Background(), 1, models.RecipientContact{Name: "Anna"})
	require.NoError(t, err)

	assert.Equal(t, []models.RecipientContact{
		{ID: 1, Name: "Anna"},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Cy"},
	}, s.Items())
}

func TestStore_UpdateBeforeFetchKeepsConfirmedRecord(t *testing.T) {
	backend := new(MockBackend)
	s := New[models.RecipientContact](slogdiscard.NewDiscardLogger(), "contacts", backend, &recordingNotifier{})

	backend.On("Update", mock.Anything, int64(7), models.RecipientContact{Name: "Dee"}).
		Return(models.RecipientContact{ID: 7, Name: "Dee"}, nil).Once()

	_, err := s.Update(context.Background(), 7, models.RecipientContact{Name: "Dee"})
	require.NoError(t, err)

	assert.Equal(t, []models.RecipientContact{{ID: 7, Name: "Dee"}}, s.Items())
	backend.AssertExpectations(t)
}

func TestStore_FetchFailureKeepsList(t *testing.T) {
	backend := new(MockBackend)
	s, n := seeded(t, backend)

	backend.On("List", mock.Anything).Return(nil, errors.New("network down")).Once()

	require.Error(t, s.Fetch(context.Background()))
	assert.Len(t, s.Items(), 2)
	assert.Len(t, n.msgs, 1)
}
