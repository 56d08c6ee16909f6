package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/db"
	"github.com/wardmon/wardmon/pkg/models"
)

func testPayload(metrics map[string]any) *models.SensorPayload {
	return &models.SensorPayload{
		DeviceID:  "N1",
		Location:  "R1",
		Timestamp: float64(1000),
		Sensors:   metrics,
	}
}

func TestIngestRejectionTouchesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelayNudger(ctrl)
	broadcaster := NewMockBroadcaster(ctrl)

	// No store, relay or broadcaster calls are expected.
	p := NewPipeline(store, alerting.DefaultRules(), nil, relay, broadcaster)

	result, err := p.Ingest(context.Background(), &models.SensorPayload{Location: "R1"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMissingDeviceID)
}

func TestIngestCommitsAndFansOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelayNudger(ctrl)
	broadcaster := NewMockBroadcaster(ctrl)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var committed *models.Reading

	store.EXPECT().
		CommitReading(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, reading *models.Reading, verdict alerting.Verdict) (int64, []models.AlertTransition, error) {
			committed = reading
			assert.True(t, verdict[models.AlertHighTemperature])

			return 42, nil, nil
		})
	relay.EXPECT().Nudge()
	broadcaster.EXPECT().BroadcastReading(gomock.Any()).Do(func(reading *models.Reading) {
		assert.Equal(t, int64(42), reading.ID)
	})

	p := NewPipeline(store, alerting.DefaultRules(), nil, relay, broadcaster)
	p.now = func() time.Time { return now }

	result, err := p.Ingest(context.Background(), testPayload(map[string]any{"temperature": 35.0}))
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.ReadingID)
	assert.True(t, result.AlertActive)

	require.NotNil(t, committed)
	assert.Equal(t, models.AlertHighTemperature, committed.AlertType)
	assert.Equal(t, now, committed.ServerTimestamp)
}

func TestIngestNominalReadingIsNotActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)

	store.EXPECT().
		CommitReading(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(7), nil, nil)

	p := NewPipeline(store, alerting.DefaultRules(), nil, nil, nil)

	result, err := p.Ingest(context.Background(), testPayload(map[string]any{"temperature": 22.0}))
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.ReadingID)
	assert.False(t, result.AlertActive)
	assert.Equal(t, models.AlertNone, result.Reading.AlertType)
}

func TestIngestStorageErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)
	relay := NewMockRelayNudger(ctrl)
	broadcaster := NewMockBroadcaster(ctrl)

	storeErr := errors.New("disk full")

	store.EXPECT().
		CommitReading(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil, storeErr)

	// Relay and broadcaster must not be told about a failed commit.
	p := NewPipeline(store, alerting.DefaultRules(), nil, relay, broadcaster)

	result, err := p.Ingest(context.Background(), testPayload(map[string]any{}))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, RejectionTag(err), "storage failures are not validation rejections")
}

func TestIngestDuplicateDeliveryCommitsAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := db.NewMockService(ctrl)

	gomock.InOrder(
		store.EXPECT().CommitReading(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil, nil),
		store.EXPECT().CommitReading(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(2), nil, nil),
	)

	p := NewPipeline(store, alerting.DefaultRules(), nil, nil, nil)

	payload := testPayload(map[string]any{"humidity": 50.0})

	first, err := p.Ingest(context.Background(), payload)
	require.NoError(t, err)

	second, err := p.Ingest(context.Background(), payload)
	require.NoError(t, err)

	assert.NotEqual(t, first.ReadingID, second.ReadingID, "duplicate deliveries append distinct readings")
}
