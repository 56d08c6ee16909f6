package mirror

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wardmon/wardmon/pkg/db"
	"github.com/wardmon/wardmon/pkg/models"
)

func unsyncedReadings(n int) []models.Reading {
	readings := make([]models.Reading, n)
	for i := range readings {
		readings[i] = models.Reading{
			ID:              int64(i + 1),
			DeviceID:        "N1",
			DeviceTimestamp: int64(1000 + i),
		}
	}

	return readings
}

func TestSyncOnceDrainsBacklog(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelay(ctrl)

	// A short batch ends the pass without another scan.
	store.EXPECT().GetUnsyncedReadings(gomock.Any(), 50).Return(unsyncedReadings(3), nil)

	for i := 1; i <= 3; i++ {
		id := int64(i)
		relay.EXPECT().Push(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, r *models.Reading) error {
				assert.Equal(t, id, r.ID)
				return nil
			})
		store.EXPECT().MarkReadingSynced(gomock.Any(), id).Return(nil)
	}

	w := NewWorker(Config{}, store, relay)

	require.NoError(t, w.syncOnce(context.Background()))
}

func TestSyncOnceTransientFailureStopsPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelay(ctrl)

	pushErr := errors.New("push failed: status 503")

	store.EXPECT().GetUnsyncedReadings(gomock.Any(), 50).Return(unsyncedReadings(2), nil)
	relay.EXPECT().Push(gomock.Any(), gomock.Any()).Return(pushErr)
	// No MarkReadingSynced: a transient failure leaves the row unsynced
	// and the rest of the batch untouched.

	w := NewWorker(Config{}, store, relay)

	err := w.syncOnce(context.Background())
	assert.ErrorIs(t, err, pushErr)
}

func TestSyncOncePermanentRejectionSkipsRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelay(ctrl)

	store.EXPECT().GetUnsyncedReadings(gomock.Any(), 50).Return(unsyncedReadings(2), nil)

	gomock.InOrder(
		relay.EXPECT().Push(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("%w: status 400", ErrPermanent)),
		relay.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil),
	)

	// Both rows end up marked so the rejected one cannot wedge the queue.
	store.EXPECT().MarkReadingSynced(gomock.Any(), int64(1)).Return(nil)
	store.EXPECT().MarkReadingSynced(gomock.Any(), int64(2)).Return(nil)

	w := NewWorker(Config{}, store, relay)

	require.NoError(t, w.syncOnce(context.Background()))
}

func TestStartDrainsOnNudge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelay(ctrl)

	relay.EXPECT().IsEnabled().Return(true)

	synced := make(chan int64, 1)

	store.EXPECT().GetUnsyncedReadings(gomock.Any(), 50).Return(unsyncedReadings(1), nil)
	store.EXPECT().GetUnsyncedReadings(gomock.Any(), 50).Return(nil, nil).AnyTimes()
	relay.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().MarkReadingSynced(gomock.Any(), int64(1)).DoAndReturn(
		func(_ context.Context, id int64) error {
			synced <- id
			return nil
		})

	w := NewWorker(Config{Interval: time.Hour}, store, relay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- w.Start(ctx) }()

	w.Nudge()

	select {
	case id := <-synced:
		assert.Equal(t, int64(1), id)
	case <-time.After(5 * time.Second):
		t.Fatal("nudge did not trigger a sync pass")
	}

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestStartIdleWhenDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelay(ctrl)

	relay.EXPECT().IsEnabled().Return(false)
	// The store must never be touched when the relay is disabled.

	w := NewWorker(Config{}, store, relay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNudgeCoalesces(t *testing.T) {
	w := NewWorker(Config{}, nil, nil)

	// A pile of nudges while the worker is busy collapses into one
	// pending wake-up and never blocks.
	for i := 0; i < 100; i++ {
		w.Nudge()
	}

	assert.Len(t, w.nudge, 1)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(2))
	assert.Equal(t, 8*time.Second, backoffDelay(3))
	assert.Equal(t, maxBackoff, backoffDelay(20))
}
