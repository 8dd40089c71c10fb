package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlguard/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestFiller(c *fakeClock) *FieldFiller {
	return NewFieldFiller(c.now, slog.New(slog.DiscardHandler))
}

func TestFillInsert_WithPrincipal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := newTestFiller(clock)
	ctx := domain.WithPrincipal(context.Background(), &domain.Principal{ID: 42, OrgID: 7})

	stale := int64(999)
	u := &domain.User{Username: "alice"}
	u.Creator = &stale
	u.Version = 12
	u.Deleted = 1
	u.CreateTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	f.FillInsert(ctx, u)

	require.NotNil(t, u.Creator)
	require.NotNil(t, u.Updater)
	assert.Equal(t, int64(42), *u.Creator)
	assert.Equal(t, int64(42), *u.Updater)
	assert.Equal(t, clock.t, u.CreateTime)
	assert.Equal(t, clock.t, u.UpdateTime)
	assert.Equal(t, int64(0), u.Version)
	assert.Equal(t, 0, u.Deleted)
	assert.Equal(t, int64(7), u.OrgID)
}

func TestFillInsert_WithoutPrincipal(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := newTestFiller(clock)

	stale := int64(5)
	u := &domain.User{Username: "job", OrgID: 3}
	u.Creator = &stale
	u.Version = 4

	f.FillInsert(context.Background(), u)

	assert.Nil(t, u.Creator)
	assert.Nil(t, u.Updater)
	assert.Equal(t, clock.t, u.CreateTime)
	assert.Equal(t, int64(0), u.Version)
	assert.Equal(t, int64(3), u.OrgID, "org id untouched without a principal")
}

func TestFillUpdate_KeepsCreationFields(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f := newTestFiller(clock)

	u := &domain.User{Username: "alice"}
	f.FillInsert(domain.WithPrincipal(context.Background(), &domain.Principal{ID: 1}), u)
	u.Version = 3

	clock.t = clock.t.Add(time.Hour)
	f.FillUpdate(domain.WithPrincipal(context.Background(), &domain.Principal{ID: 2}), u)

	require.NotNil(t, u.Creator)
	assert.Equal(t, int64(1), *u.Creator)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), u.CreateTime)
	require.NotNil(t, u.Updater)
	assert.Equal(t, int64(2), *u.Updater)
	assert.Equal(t, clock.t, u.UpdateTime)
	assert.Equal(t, int64(3), u.Version)
}

func TestFillUpdate_WithoutPrincipalClearsUpdater(t *testing.T) {
	f := newTestFiller(&fakeClock{t: time.Unix(0, 0)})

	prev := int64(8)
	u := &domain.User{}
	u.Updater = &prev

	f.FillUpdate(context.Background(), u)
	assert.Nil(t, u.Updater)
}

func TestNewFieldFiller_DefaultClock(t *testing.T) {
	f := NewFieldFiller(nil, nil)
	u := &domain.User{}
	before := time.Now().UTC()
	f.FillInsert(context.Background(), u)
	assert.False(t, u.CreateTime.Before(before.Add(-time.Second)))
}
