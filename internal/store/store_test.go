package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eden/internal/apperr"
	mydb "eden/internal/db"
	"eden/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := mydb.Open("sqlite", filepath.Join(t.TempDir(), "eden.db"))
	require.NoError(t, err)
	require.NoError(t, mydb.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func ptr[T any](v T) *T { return &v }

func storeItem(owner uint, title string, priceCentavos int64, sub string) *models.Posting {
	return &models.Posting{
		OwnerID:       owner,
		Kind:          models.KindStore,
		Status:        models.StatusPending,
		Title:         title,
		Description:   title + " for sale",
		PriceCentavos: ptr(priceCentavos),
		Subcategory:   ptr(sub),
	}
}

func TestPostingsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewPostings(openTestDB(t))

	p := storeItem(1, "Shovel", 1500, "tools")
	require.NoError(t, s.Create(ctx, p))
	require.NotZero(t, p.ID)

	ok, err := s.UpdateStatus(ctx, p.ID, models.StatusPending, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	// second transition from pending must not match
	ok, err = s.UpdateStatus(ctx, p.ID, models.StatusPending, models.StatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	ok, err = s.MarkDeleted(ctx, p.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkDeleted(ctx, p.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.NotNil(t, got.RemovedAt)
}

func TestPostingsGetMissing(t *testing.T) {
	s := NewPostings(openTestDB(t))

	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListApprovedFilters(t *testing.T) {
	ctx := context.Background()
	s := NewPostings(openTestDB(t))

	items := []*models.Posting{
		storeItem(1, "Garden Shovel", 1500, "tools"),
		storeItem(1, "Rose bush", 900, "flowers"),
		storeItem(2, "100% Cotton Banner", 400, "decoration"),
		storeItem(2, "Hidden rake", 700, "tools"),
	}
	for _, p := range items {
		require.NoError(t, s.Create(ctx, p))
	}
	for _, p := range items[:3] {
		_, err := s.UpdateStatus(ctx, p.ID, models.StatusPending, models.StatusApproved)
		require.NoError(t, err)
	}

	all, err := s.ListApproved(ctx, models.KindStore, models.PostingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, items[2].ID, all[0].ID, "newest first")

	tools, err := s.ListApproved(ctx, models.KindStore, models.PostingFilter{Subcategory: "tools"})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "Garden Shovel", tools[0].Title)

	found, err := s.ListApproved(ctx, models.KindStore, models.PostingFilter{Search: "SHOVEL"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	byDesc, err := s.ListApproved(ctx, models.KindStore, models.PostingFilter{Search: "bush for"})
	require.NoError(t, err)
	require.Len(t, byDesc, 1)

	pct, err := s.ListApproved(ctx, models.KindStore, models.PostingFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, items[2].ID, pct[0].ID)

	jobs, err := s.ListApproved(ctx, models.KindJobListing, models.PostingFilter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestUpdatePendingOnlyTouchesPending(t *testing.T) {
	ctx := context.Background()
	s := NewPostings(openTestDB(t))

	p := storeItem(1, "Pot", 300, "plants")
	require.NoError(t, s.Create(ctx, p))

	p.Title = "Clay pot"
	p.ImagePath = "/uploads/pot.png"
	ok, err := s.UpdatePending(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clay pot", got.Title)
	assert.Equal(t, "/uploads/pot.png", got.ImagePath)

	_, err = s.UpdateStatus(ctx, p.ID, models.StatusPending, models.StatusApproved)
	require.NoError(t, err)

	p.Title = "Changed after approval"
	ok, err = s.UpdatePending(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewUsers(openTestDB(t))

	u := &models.User{Username: "ana", Email: ptr("ana@example.com"), PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, s.Create(ctx, u))

	err := s.Create(ctx, &models.User{Username: "ana", PasswordHash: "y", Role: models.RoleUser})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = s.Create(ctx, &models.User{Username: "other", Email: ptr("ana@example.com"), PasswordHash: "y", Role: models.RoleUser})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// users without email do not collide with each other
	require.NoError(t, s.Create(ctx, &models.User{Username: "b", PasswordHash: "y", Role: models.RoleUser}))
	require.NoError(t, s.Create(ctx, &models.User{Username: "c", PasswordHash: "y", Role: models.RoleUser}))

	require.NoError(t, s.SetRole(ctx, "ana", models.RoleAdmin))
	got, err := s.ByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, s.SetRole(ctx, "nobody", models.RoleAdmin), apperr.ErrNotFound)
}

func TestUsersCreateUniqueKeyRace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := NewUsers(db)
	require.NoError(t, s.Create(ctx, &models.User{Username: "ana", Email: ptr("ana@example.com"), PasswordHash: "x", Role: models.RoleUser}))

	// the pre-insert counts see nothing, as if a concurrent signup committed in between
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:zero_count", func(tx *gorm.DB) {
		if n, ok := tx.Statement.Dest.(*int64); ok {
			*n = 0
		}
	}))

	err := s.Create(ctx, &models.User{Username: "other", Email: ptr("ana@example.com"), PasswordHash: "y", Role: models.RoleUser})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "username or email already registered", apperr.Message(err))
}

func TestUsersCreateReportsLookupErrors(t *testing.T) {
	db := openTestDB(t)
	s := NewUsers(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = s.Create(context.Background(), &models.User{Username: "ana", PasswordHash: "x", Role: models.RoleUser})
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
}

func TestApplications(t *testing.T) {
	ctx := context.Background()
	s := NewApplications(openTestDB(t))

	a := &models.Application{RequestID: 3, ApplicantName: "Ben", ApplicantEmail: "ben@example.com", ResumePath: "/uploads/cv.pdf", Status: models.ApplicationPending}
	require.NoError(t, s.Create(ctx, a))

	list, err := s.ListByRequest(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ok, err := s.UpdateStatus(ctx, a.ID, models.ApplicationPending, models.ApplicationAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateStatus(ctx, a.ID, models.ApplicationPending, models.ApplicationRejected)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuditSeesDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := NewPostings(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	audit := NewAudit(sqlDB, mydb.SQLDriverName("sqlite"))

	p := storeItem(1, "Lamp", 2000, "decoration")
	p.ImagePath = "/uploads/lamp.png"
	require.NoError(t, s.Create(ctx, p))
	kept := storeItem(1, "Vase", 1000, "decoration")
	require.NoError(t, s.Create(ctx, kept))
	_, err = s.MarkDeleted(ctx, p.ID, time.Now())
	require.NoError(t, err)

	row, err := audit.Posting(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted", row.Status)
	assert.Equal(t, "/uploads/lamp.png", row.ImagePath)
	require.NotNil(t, row.PriceCentavos)
	assert.Equal(t, int64(2000), *row.PriceCentavos)
	assert.Nil(t, row.HourlyRate)
	assert.NotNil(t, row.RemovedAt)

	all, err := audit.Postings(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	live, err := audit.Postings(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, kept.ID, live[0].ID)

	_, err = audit.Posting(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
