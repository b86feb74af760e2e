package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestGroup(t *testing.T, store *SQLiteStore) *models.Group {
	t.Helper()
	group := &models.Group{
		Name:       "Home",
		InviteCode: uuid.NewString()[:6],
		Members:    []models.Member{{DisplayName: "Aki"}},
		Categories: models.DefaultCategories(),
	}
	require.NoError(t, store.CreateGroup(context.Background(), group))
	return group
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	group := newTestGroup(t, store)
	ctx := context.Background()

	t.Run("CreateExpense assigns ID and starts unsettled", func(t *testing.T) {
		e := &models.Expense{GroupID: group.ID, Date: "2025-01-05", Payer: "Aki", Item: "Rice", Amount: 2400, Category: "食費", Settled: true, SettledAt: 99}
		require.NoError(t, store.CreateExpense(ctx, e))

		assert.NotEmpty(t, e.ID)
		assert.NotZero(t, e.CreatedAt)
		assert.False(t, e.Settled)
		assert.Zero(t, e.SettledAt)

		got, err := store.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, *e, *got)
	})

	t.Run("ListExpenses returns newest first", func(t *testing.T) {
		other := newTestStore(t)
		g := newTestGroup(t, other)
		for i, item := range []string{"first", "second", "third"} {
			e := &models.Expense{GroupID: g.ID, Date: "2025-01-01", Payer: "Aki", Item: item, Amount: int64(i + 1), Category: "食費", CreatedAt: 1000}
			require.NoError(t, other.CreateExpense(ctx, e))
		}

		list, err := other.ListExpenses(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "third", list[0].Item)
		assert.Equal(t, "first", list[2].Item)

		empty, err := other.ListExpenses(ctx, "no-such-group")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("UpdateExpense applies a partial patch", func(t *testing.T) {
		e := &models.Expense{GroupID: group.ID, Date: "2025-01-06", Payer: "Aki", Item: "Bus", Amount: 220, Category: "交通費"}
		require.NoError(t, store.CreateExpense(ctx, e))

		amount := int64(440)
		updated, err := store.UpdateExpense(ctx, e.ID, models.ExpensePatch{Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, int64(440), updated.Amount)
		assert.Equal(t, "Bus", updated.Item)
		assert.Equal(t, e.CreatedAt, updated.CreatedAt)

		_, err = store.UpdateExpense(ctx, "missing", models.ExpensePatch{Amount: &amount})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ToggleSettled keeps SettledAt in step", func(t *testing.T) {
		e := &models.Expense{GroupID: group.ID, Date: "2025-01-07", Payer: "Aki", Item: "Soap", Amount: 300, Category: "日用品"}
		require.NoError(t, store.CreateExpense(ctx, e))
		now := time.Unix(1735689600, 0)

		toggled, err := store.ToggleSettled(ctx, e.ID, now)
		require.NoError(t, err)
		assert.True(t, toggled.Settled)
		assert.Equal(t, now.Unix(), toggled.SettledAt)

		toggled, err = store.ToggleSettled(ctx, e.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, toggled.Settled)
		assert.Zero(t, toggled.SettledAt)

		stored, err := store.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.False(t, stored.Settled)
		assert.Zero(t, stored.SettledAt)
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		e := &models.Expense{GroupID: group.ID, Date: "2025-01-08", Payer: "Aki", Item: "Gum", Amount: 100, Category: "その他"}
		require.NoError(t, store.CreateExpense(ctx, e))
		require.NoError(t, store.DeleteExpense(ctx, e.ID))

		_, err := store.GetExpense(ctx, e.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteExpense(ctx, e.ID), storage.ErrNotFound)
	})
}

func TestSQLiteStore_SettleExpenses(t *testing.T) {
	store := newTestStore(t)
	group := newTestGroup(t, store)
	other := newTestGroup(t, store)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		e := &models.Expense{GroupID: group.ID, Date: "2025-02-01", Payer: "Aki", Item: "x", Amount: 100, Category: "食費"}
		require.NoError(t, store.CreateExpense(ctx, e))
		ids = append(ids, e.ID)
	}
	foreign := &models.Expense{GroupID: other.ID, Date: "2025-02-01", Payer: "Aki", Item: "x", Amount: 100, Category: "食費"}
	require.NoError(t, store.CreateExpense(ctx, foreign))

	early := time.Unix(1700000000, 0)
	_, err := store.ToggleSettled(ctx, ids[0], early)
	require.NoError(t, err)

	now := time.Unix(1740000000, 0)
	n, err := store.SettleExpenses(ctx, group.ID, append(ids, foreign.ID, "missing"), now)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "already settled and foreign records must not change")

	list, err := store.ListExpenses(ctx, group.ID)
	require.NoError(t, err)
	for _, e := range list {
		assert.True(t, e.Settled)
		if e.ID == ids[0] {
			assert.Equal(t, early.Unix(), e.SettledAt)
		} else {
			assert.Equal(t, now.Unix(), e.SettledAt)
		}
	}

	f, err := store.GetExpense(ctx, foreign.ID)
	require.NoError(t, err)
	assert.False(t, f.Settled)

	n, err = store.SettleExpenses(ctx, group.ID, nil, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:       "Home",
		InviteCode: "q1w2e3",
		Members:    []models.Member{{UserID: "u1", DisplayName: "Aki"}},
		Categories: []string{"食費", "外食"},
	}
	require.NoError(t, store.CreateGroup(ctx, group))
	assert.Equal(t, "Q1W2E3", group.InviteCode)

	t.Run("lookup by invite code ignores case", func(t *testing.T) {
		got, err := store.GetGroupByInviteCode(ctx, " q1w2e3 ")
		require.NoError(t, err)
		assert.Equal(t, group.ID, got.ID)
		assert.Equal(t, []string{"食費", "外食"}, got.Categories)

		_, err = store.GetGroupByInviteCode(ctx, "NOPE00")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("AddMember enforces two members", func(t *testing.T) {
		assert.ErrorIs(t, store.AddMember(ctx, group.ID, models.Member{UserID: "u1", DisplayName: "Again"}), storage.ErrAlreadyMember)
		assert.ErrorIs(t, store.AddMember(ctx, group.ID, models.Member{UserID: "u2", DisplayName: "Aki"}), models.ErrDuplicateMemberName)
		require.NoError(t, store.AddMember(ctx, group.ID, models.Member{UserID: "u2", DisplayName: "Ren"}))
		assert.ErrorIs(t, store.AddMember(ctx, group.ID, models.Member{UserID: "u3", DisplayName: "Sora"}), storage.ErrGroupFull)

		got, err := store.GetGroupForUser(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, []string{"Aki", "Ren"}, got.Settings().Users)

		_, err = store.GetGroupForUser(ctx, "u3")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateSettings renames by position and replaces categories", func(t *testing.T) {
		updated, err := store.UpdateSettings(ctx, group.ID, models.Settings{
			Users:      []string{"Akiko", "Ren", "Extra"},
			Categories: []string{"旅行", "食費", "ペット"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Akiko", "Ren"}, updated.Settings().Users)
		assert.Equal(t, []string{"旅行", "食費", "ペット"}, updated.Categories)

		kept, err := store.UpdateSettings(ctx, group.ID, models.Settings{})
		require.NoError(t, err)
		assert.Equal(t, updated.Categories, kept.Categories)
	})

	t.Run("UpdateSettings rejects colliding names", func(t *testing.T) {
		_, err := store.UpdateSettings(ctx, group.ID, models.Settings{
			Users:      []string{"Ren"},
			Categories: []string{"雑費"},
		})
		assert.ErrorIs(t, err, models.ErrDuplicateMemberName)

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Akiko", "Ren"}, got.Settings().Users)
		assert.Equal(t, []string{"旅行", "食費", "ペット"}, got.Categories)

		swapped, err := store.UpdateSettings(ctx, group.ID, models.Settings{Users: []string{"Ren", "Akiko"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ren", "Akiko"}, swapped.Settings().Users)
	})
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("aki@example.com", "Aki", "hash")
	require.NoError(t, store.CreateUser(ctx, user))
	assert.ErrorIs(t, store.CreateUser(ctx, models.NewUser("aki@example.com", "Dup", "hash")), storage.ErrEmailExists)

	got, err := store.GetUserByEmail(ctx, "aki@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aki", got.DisplayName)

	missing, err := store.GetUserByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
