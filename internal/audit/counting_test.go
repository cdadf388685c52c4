package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeops-system/internal/database/models"
)

func TestSubmitCountExactMatch(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)

	got, err := env.engine().SubmitCount(context.Background(), item.ID, CountInput{
		CountedQuantity: 20,
		UserID:          7,
	})
	require.NoError(t, err)

	assert.Equal(t, models.AuditItemStatusCounted, got.Status)
	require.NotNil(t, got.CountedQuantity)
	assert.EqualValues(t, 20, *got.CountedQuantity)
	require.NotNil(t, got.Discrepancy)
	assert.EqualValues(t, 0, *got.Discrepancy)
	require.NotNil(t, got.CountedByID)
	assert.EqualValues(t, 7, *got.CountedByID)
	assert.NotNil(t, got.CountedAt)
}

func TestSubmitCountVariance(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	short := env.seedItem(t, a.ID, 101, 20)
	over := env.seedItem(t, a.ID, 102, 20)
	engine := env.engine()

	got, err := engine.SubmitCount(context.Background(), short.ID, CountInput{CountedQuantity: 15, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusDiscrepancy, got.Status)
	assert.EqualValues(t, -5, *got.Discrepancy)

	got, err = engine.SubmitCount(context.Background(), over.ID, CountInput{CountedQuantity: 23, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusDiscrepancy, got.Status)
	assert.EqualValues(t, 3, *got.Discrepancy)
}

func TestSubmitCountRejectsNegative(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)

	_, err := env.engine().SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: -1, UserID: 7})
	assert.True(t, IsValidation(err))

	// The rejected write must leave the row untouched.
	got := env.item(t, item.ID)
	assert.Equal(t, models.AuditItemStatusPending, got.Status)
	assert.Nil(t, got.CountedQuantity)
	assert.Nil(t, got.Discrepancy)
	assert.EqualValues(t, 0, got.Version)
}

func TestSubmitCountRecountOverwrites(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()

	_, err := engine.SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: 12, UserID: 7})
	require.NoError(t, err)

	// An open discrepancy accepts a recount; no history is kept.
	got, err := engine.SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: 20, UserID: 8})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusCounted, got.Status)
	assert.EqualValues(t, 20, *got.CountedQuantity)
	assert.EqualValues(t, 0, *got.Discrepancy)
	assert.EqualValues(t, 8, *got.CountedByID)
}

func TestSubmitCountLockedStates(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()

	_, err := engine.SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: 20, UserID: 7})
	require.NoError(t, err)

	// COUNTED is locked against further count writes.
	_, err = engine.SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: 18, UserID: 7})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.EqualValues(t, 20, *env.item(t, item.ID).CountedQuantity)
}

func TestSubmitCountRequiresRunningAudit(t *testing.T) {
	env := newTestEnv()
	engine := env.engine()

	for _, status := range []models.AuditStatus{
		models.AuditStatusPlanned,
		models.AuditStatusCompleted,
		models.AuditStatusCancelled,
	} {
		a := env.seedAudit(t, 1, status)
		item := env.seedItem(t, a.ID, 101, 20)

		_, err := engine.SubmitCount(context.Background(), item.ID, CountInput{CountedQuantity: 20, UserID: 7})
		assert.ErrorIs(t, err, ErrInvalidState, "audit status %s", status)
	}
}

func TestSubmitDiscrepancy(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	engine := env.engine()

	item := env.seedItem(t, a.ID, 101, 20)
	got, err := engine.SubmitDiscrepancy(context.Background(), item.ID, DiscrepancyInput{MissingQuantity: 5, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusDiscrepancy, got.Status)
	assert.EqualValues(t, 15, *got.CountedQuantity)
	assert.EqualValues(t, -5, *got.Discrepancy)
}

func TestSubmitDiscrepancyZeroEqualsExactCount(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	engine := env.engine()

	viaMissing := env.seedItem(t, a.ID, 101, 20)
	viaCount := env.seedItem(t, a.ID, 102, 20)

	gotMissing, err := engine.SubmitDiscrepancy(context.Background(), viaMissing.ID, DiscrepancyInput{MissingQuantity: 0, UserID: 7})
	require.NoError(t, err)
	gotCount, err := engine.SubmitCount(context.Background(), viaCount.ID, CountInput{CountedQuantity: 20, UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, gotCount.Status, gotMissing.Status)
	assert.Equal(t, models.AuditItemStatusCounted, gotMissing.Status)
	assert.Equal(t, *gotCount.CountedQuantity, *gotMissing.CountedQuantity)
	assert.Equal(t, *gotCount.Discrepancy, *gotMissing.Discrepancy)
}

func TestSubmitDiscrepancyBounds(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()

	_, err := engine.SubmitDiscrepancy(context.Background(), item.ID, DiscrepancyInput{MissingQuantity: 21, UserID: 7})
	assert.True(t, IsValidation(err))

	_, err = engine.SubmitDiscrepancy(context.Background(), item.ID, DiscrepancyInput{MissingQuantity: -1, UserID: 7})
	assert.True(t, IsValidation(err))

	assert.Equal(t, models.AuditItemStatusPending, env.item(t, item.ID).Status)
}

func TestSetStatusAcceptVariance(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()

	_, err := engine.SubmitDiscrepancy(context.Background(), item.ID, DiscrepancyInput{MissingQuantity: 5, UserID: 7})
	require.NoError(t, err)

	got, err := engine.SetStatus(context.Background(), item.ID, StatusInput{
		Status: models.AuditItemStatusReconciled,
		Notes:  str("shrinkage accepted"),
		UserID: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusReconciled, got.Status)
	// Accepting a variance keeps the recorded figures in place.
	assert.EqualValues(t, 15, *got.CountedQuantity)
	assert.EqualValues(t, -5, *got.Discrepancy)
	assert.Equal(t, "shrinkage accepted", *got.Notes)
}

func TestSetStatusSameStatusIsNoOp(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)

	got, err := env.engine().SetStatus(context.Background(), item.ID, StatusInput{
		Status: models.AuditItemStatusPending,
		UserID: 7,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Version)
	assert.EqualValues(t, 0, env.item(t, item.ID).Version)
}

func TestSetStatusRejections(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	engine := env.engine()
	ctx := context.Background()

	// A line with a recorded count cannot return to PENDING here.
	counted := env.seedItem(t, a.ID, 101, 20)
	_, err := engine.SubmitCount(ctx, counted.ID, CountInput{CountedQuantity: 15, UserID: 7})
	require.NoError(t, err)
	_, err = engine.SetStatus(ctx, counted.ID, StatusInput{Status: models.AuditItemStatusPending, UserID: 7})
	assert.ErrorIs(t, err, ErrInvalidState)

	// A line without a count cannot be pushed into a counted-family status.
	uncounted := env.seedItem(t, a.ID, 102, 20)
	_, err = engine.SetStatus(ctx, uncounted.ID, StatusInput{Status: models.AuditItemStatusReconciled, UserID: 7})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Locked states only reopen through Reopen.
	settled := env.seedItem(t, a.ID, 103, 20)
	_, err = engine.SubmitCount(ctx, settled.ID, CountInput{CountedQuantity: 20, UserID: 7})
	require.NoError(t, err)
	_, err = engine.SetStatus(ctx, settled.ID, StatusInput{Status: models.AuditItemStatusDiscrepancy, UserID: 7})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReopenClearsCount(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()
	ctx := context.Background()

	_, err := engine.SubmitCount(ctx, item.ID, CountInput{
		CountedQuantity: 20,
		Notes:           str("first pass"),
		UserID:          7,
	})
	require.NoError(t, err)

	got, err := engine.Reopen(ctx, item.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusPending, got.Status)
	assert.Nil(t, got.CountedQuantity)
	assert.Nil(t, got.Discrepancy)
	assert.Nil(t, got.CountedByID)
	assert.Nil(t, got.CountedAt)
	// The note survives as a trace of the first attempt.
	assert.Equal(t, "first pass", *got.Notes)

	// A reopened line accepts a fresh count.
	recounted, err := engine.SubmitCount(ctx, item.ID, CountInput{CountedQuantity: 18, UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, models.AuditItemStatusDiscrepancy, recounted.Status)
	assert.EqualValues(t, -2, *recounted.Discrepancy)
}

func TestReopenRejections(t *testing.T) {
	env := newTestEnv()
	engine := env.engine()
	ctx := context.Background()

	running := env.seedAudit(t, 1, models.AuditStatusInProgress)
	pending := env.seedItem(t, running.ID, 101, 20)
	_, err := engine.Reopen(ctx, pending.ID, 9)
	assert.ErrorIs(t, err, ErrInvalidState)

	done := env.seedAudit(t, 1, models.AuditStatusCompleted)
	closed := env.seedItem(t, done.ID, 102, 20)
	_, err = engine.Reopen(ctx, closed.ID, 9)
	assert.ErrorIs(t, err, ErrInvalidState)
}

// Discrepancy and counted quantity are set and cleared together; one is
// never present without the other.
func TestCountFieldsPairedThroughLifecycle(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	engine := env.engine()
	ctx := context.Background()

	check := func() {
		got := env.item(t, item.ID)
		assert.Equal(t, got.CountedQuantity == nil, got.Discrepancy == nil)
	}

	check()
	_, err := engine.SubmitCount(ctx, item.ID, CountInput{CountedQuantity: 15, UserID: 7})
	require.NoError(t, err)
	check()
	_, err = engine.Reopen(ctx, item.ID, 7)
	require.NoError(t, err)
	check()
}

func TestUpdateItemStaleVersionConflict(t *testing.T) {
	env := newTestEnv()
	a := env.seedAudit(t, 1, models.AuditStatusInProgress)
	item := env.seedItem(t, a.ID, 101, 20)
	ctx := context.Background()

	stale := env.item(t, item.ID)

	// Another counter lands a write first.
	_, err := env.engine().SubmitCount(ctx, item.ID, CountInput{CountedQuantity: 20, UserID: 7})
	require.NoError(t, err)

	stale.Status = models.AuditItemStatusDiscrepancy
	stale.CountedQuantity = i32(15)
	stale.Discrepancy = i32(-5)
	err = env.store.UpdateItem(ctx, stale, stale.Version)
	assert.ErrorIs(t, err, ErrConflict)

	// The winner's write is intact.
	got := env.item(t, item.ID)
	assert.Equal(t, models.AuditItemStatusCounted, got.Status)
	assert.EqualValues(t, 20, *got.CountedQuantity)
}
