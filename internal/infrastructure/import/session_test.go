package csvimport

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportSession(t *testing.T) {
	t.Run("starts in the created state", func(t *testing.T) {
		session := NewImportSession(EntityProducts, "products.csv", 1024)

		assert.NotEqual(t, uuid.Nil, session.ID)
		assert.Equal(t, EntityProducts, session.EntityType)
		assert.Equal(t, "products.csv", session.FileName)
		assert.Equal(t, int64(1024), session.FileSize)
		assert.Equal(t, StateCreated, session.State)
		assert.Nil(t, session.CompletedAt)
	})

	t.Run("stamps CompletedAt only on terminal states", func(t *testing.T) {
		session := NewImportSession(EntityProducts, "products.csv", 1024)

		session.UpdateState(StateValidating)
		assert.Equal(t, StateValidating, session.State)
		assert.Nil(t, session.CompletedAt)

		session.UpdateState(StateCompleted)
		assert.Equal(t, StateCompleted, session.State)
		assert.NotNil(t, session.CompletedAt)
	})

	t.Run("absorbs a validation result", func(t *testing.T) {
		session := NewImportSession(EntityProducts, "products.csv", 1024)

		session.SetValidationResult(&ValidationResult{
			ValidationID: session.ID.String(),
			TotalRows:    100,
			ValidRows:    95,
			ErrorRows:    5,
			Errors:       []RowError{{Row: 10, Column: "code", Message: "required"}},
			Preview:      []map[string]any{{"code": "SKU-001", "name": "Widget"}},
		})

		assert.Equal(t, 100, session.TotalRows)
		assert.Equal(t, 95, session.ValidRows)
		assert.Equal(t, 5, session.ErrorRows)
		assert.Len(t, session.Errors, 1)
		assert.Len(t, session.Preview, 1)
		assert.False(t, session.IsValid())
	})
}

func TestInMemorySessionStore(t *testing.T) {
	t.Run("round trips a session", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		defer store.Stop()
		session := NewImportSession(EntityProducts, "products.csv", 1024)

		require.NoError(t, store.Save(session))

		got, err := store.Get(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
	})

	t.Run("unknown id yields nil", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		defer store.Stop()

		got, err := store.Get(uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete removes the session", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		defer store.Stop()
		session := NewImportSession(EntityProducts, "products.csv", 1024)
		require.NoError(t, store.Save(session))

		require.NoError(t, store.Delete(session.ID))

		got, _ := store.Get(session.ID)
		assert.Nil(t, got)
	})

	t.Run("list honors the limit", func(t *testing.T) {
		store := NewInMemorySessionStore(time.Hour)
		defer store.Stop()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Save(NewImportSession(EntityProducts, "products.csv", 1024)))
		}

		sessions, err := store.List(3)
		require.NoError(t, err)
		assert.Len(t, sessions, 3)

		sessions, err = store.List(10)
		require.NoError(t, err)
		assert.Len(t, sessions, 5)
	})

	t.Run("expired sessions are invisible", func(t *testing.T) {
		store := NewInMemorySessionStore(10 * time.Millisecond)
		defer store.Stop()
		session := NewImportSession(EntityProducts, "products.csv", 1024)
		require.NoError(t, store.Save(session))

		time.Sleep(20 * time.Millisecond)

		got, err := store.Get(session.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("cleanup purges expired sessions", func(t *testing.T) {
		store := NewInMemorySessionStore(10 * time.Millisecond)
		defer store.Stop()
		require.NoError(t, store.Save(NewImportSession(EntityProducts, "products.csv", 1024)))

		time.Sleep(20 * time.Millisecond)
		store.Cleanup()

		store.mu.RLock()
		defer store.mu.RUnlock()
		assert.Empty(t, store.sessions)
	})
}
