package testutils

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management/internal/domain/settings"
)

// RunStoreContract exercises the behaviour every settings.Store must share.
// newStore must return an empty store on each call.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) settings.Store) {
	t.Run("absent user", func(t *testing.T) {
		store := newStore(t)
		got, err := store.GetByUserID(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("insert then get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Insert(ctx, &settings.UserSettings{
			UserID:       "u1",
			PhotoURL:     StringPtr("https://cdn.example.com/u1.png"),
			MainCurrency: "EUR",
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "u1", got.UserID)
		require.NotNil(t, got.PhotoURL)
		assert.Equal(t, "https://cdn.example.com/u1.png", *got.PhotoURL)
		assert.Equal(t, "EUR", got.MainCurrency)

		byID, err := store.GetByDocumentID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, got, byID)
	})

	t.Run("null photo round trips", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
		require.NoError(t, err)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got.PhotoURL)
	})

	t.Run("duplicate user rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
		require.NoError(t, err)

		_, err = store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "EUR"})
		assert.ErrorIs(t, err, settings.ErrDuplicateUser)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("concurrent inserts keep one document", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok int
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, settings.ErrDuplicateUser)
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("replace keeps document id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Insert(ctx, &settings.UserSettings{
			UserID:       "u1",
			PhotoURL:     StringPtr("a.png"),
			MainCurrency: "USD",
		})
		require.NoError(t, err)

		err = store.ReplaceByDocumentID(ctx, id, &settings.UserSettings{UserID: "u1", MainCurrency: "JPY"})
		require.NoError(t, err)

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "JPY", got.MainCurrency)
		assert.Nil(t, got.PhotoURL, "replace overwrites the whole document")
	})

	t.Run("replace and delete missing document", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"", "not-an-id", "6553f1c2a1b2c3d4e5f60718"} {
			err := store.ReplaceByDocumentID(ctx, id, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
			assert.ErrorIs(t, err, settings.ErrDocumentNotFound, id)

			err = store.DeleteByDocumentID(ctx, id)
			assert.ErrorIs(t, err, settings.ErrDocumentNotFound, id)

			got, err := store.GetByDocumentID(ctx, id)
			assert.NoError(t, err)
			assert.Nil(t, got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
		require.NoError(t, err)
		_, err = store.Insert(ctx, &settings.UserSettings{UserID: "u2", MainCurrency: "GBP"})
		require.NoError(t, err)

		require.NoError(t, store.DeleteByDocumentID(ctx, id))

		got, err := store.GetByUserID(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got)

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "u2", all[0].UserID)

		// the user can be inserted again once their document is gone
		_, err = store.Insert(ctx, &settings.UserSettings{UserID: "u1", MainCurrency: "USD"})
		assert.NoError(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
