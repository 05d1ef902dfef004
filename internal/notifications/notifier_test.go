package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushive/backend/internal/models"
)

type fakeNotifStore struct {
	mu          sync.Mutex
	registrants []uuid.UUID
	inserted    []*models.Notification
	failFor     map[uuid.UUID]bool
	listErr     error
}

func (f *fakeNotifStore) Insert(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[n.UserID] {
		return errors.New("insert failed")
	}
	f.inserted = append(f.inserted, n)
	return nil
}

func (f *fakeNotifStore) ActiveRegistrantIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.registrants, nil
}

type fakePusher struct {
	mu    sync.Mutex
	sends []uuid.UUID
}

func (f *fakePusher) SendToUser(userID uuid.UUID, _ string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, userID)
}

func TestNotifyInsertsAndPushes(t *testing.T) {
	store := &fakeNotifStore{}
	pusher := &fakePusher{}
	svc := NewService(store, pusher, 4, nil)

	userID := uuid.New()
	svc.Notify(context.Background(), userID, "Hello", "body", models.NotificationKindSystem)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, userID, store.inserted[0].UserID)
	assert.Equal(t, "Hello", store.inserted[0].Title)
	require.Len(t, pusher.sends, 1)
	assert.Equal(t, userID, pusher.sends[0])
}

func TestNotifyInsertFailureSkipsPush(t *testing.T) {
	userID := uuid.New()
	store := &fakeNotifStore{failFor: map[uuid.UUID]bool{userID: true}}
	pusher := &fakePusher{}
	svc := NewService(store, pusher, 4, nil)

	svc.Notify(context.Background(), userID, "Hello", "body", models.NotificationKindSystem)

	assert.Empty(t, store.inserted)
	assert.Empty(t, pusher.sends)
}

func TestAnnounceFansOutToAllRegistrants(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	store := &fakeNotifStore{registrants: ids}
	pusher := &fakePusher{}
	svc := NewService(store, pusher, 2, nil)

	report, err := svc.Announce(context.Background(), uuid.New(), "Update", "venue changed", models.NotificationKindAnnouncement)
	require.NoError(t, err)

	assert.Equal(t, models.FanoutReport{Requested: 5, Succeeded: 5, Failed: 0}, report)
	assert.Len(t, store.inserted, 5)
	assert.Len(t, pusher.sends, 5)
}

func TestAnnounceCountsPartialFailures(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	store := &fakeNotifStore{
		registrants: ids,
		failFor:     map[uuid.UUID]bool{ids[1]: true, ids[3]: true},
	}
	pusher := &fakePusher{}
	svc := NewService(store, pusher, 3, nil)

	report, err := svc.Announce(context.Background(), uuid.New(), "Update", "body", models.NotificationKindAnnouncement)
	require.NoError(t, err)

	assert.Equal(t, models.FanoutReport{Requested: 4, Succeeded: 2, Failed: 2}, report)
	assert.Len(t, pusher.sends, 2)
}

func TestAnnounceNoRegistrants(t *testing.T) {
	store := &fakeNotifStore{}
	svc := NewService(store, &fakePusher{}, 4, nil)

	report, err := svc.Announce(context.Background(), uuid.New(), "Update", "body", models.NotificationKindAnnouncement)
	require.NoError(t, err)
	assert.Equal(t, models.FanoutReport{Requested: 0}, report)
}

func TestAnnounceRegistrantLookupError(t *testing.T) {
	store := &fakeNotifStore{listErr: errors.New("db down")}
	svc := NewService(store, &fakePusher{}, 4, nil)

	_, err := svc.Announce(context.Background(), uuid.New(), "Update", "body", models.NotificationKindAnnouncement)
	assert.Error(t, err)
}
