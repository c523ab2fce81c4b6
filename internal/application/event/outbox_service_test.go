package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/shared"
)

// fakeOutboxRepo keeps entries in a map. Only the methods OutboxService
// touches have real behavior.
type fakeOutboxRepo struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) add(status shared.OutboxStatus) *shared.OutboxEntry {
	entry := &shared.OutboxEntry{
		ID:            uuid.New(),
		EventID:       uuid.New(),
		EventType:     "risk.high_risk_detected",
		AggregateID:   uuid.New(),
		AggregateType: "RiskAssessment",
		Status:        status,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if status == shared.OutboxStatusDead {
		entry.RetryCount = 5
		entry.LastError = "bus unavailable"
	}
	r.entries[entry.ID] = entry
	return entry
}

func (r *fakeOutboxRepo) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	total := int64(len(dead))

	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(dead) {
		end = len(dead)
	}
	return dead[start:end], total, nil
}

func (r *fakeOutboxRepo) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	return r.entries[id], nil
}

func (r *fakeOutboxRepo) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeOutboxRepo) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func newOutboxService() (*OutboxService, *fakeOutboxRepo) {
	repo := newFakeOutboxRepo()
	return NewOutboxService(repo, zap.NewNop()), repo
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	return derr.Code
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	t.Run("returns only dead entries", func(t *testing.T) {
		service, repo := newOutboxService()
		for i := 0; i < 5; i++ {
			repo.add(shared.OutboxStatusDead)
		}
		repo.add(shared.OutboxStatusPending)
		repo.add(shared.OutboxStatusSent)

		result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 10})

		require.NoError(t, err)
		assert.Equal(t, int64(5), result.Total)
		require.Len(t, result.Entries, 5)
		for _, entry := range result.Entries {
			assert.Equal(t, "DEAD", entry.Status)
		}
	})

	t.Run("zero filter defaults to page 1 of 20", func(t *testing.T) {
		service, repo := newOutboxService()
		repo.add(shared.OutboxStatusDead)

		result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 20, result.PageSize)
		assert.Equal(t, 1, result.TotalPages)
	})

	t.Run("total pages rounds up", func(t *testing.T) {
		service, repo := newOutboxService()
		for i := 0; i < 5; i++ {
			repo.add(shared.OutboxStatusDead)
		}

		result, err := service.GetDeadLetterEntries(context.Background(), OutboxFilter{Page: 1, PageSize: 2})

		require.NoError(t, err)
		assert.Equal(t, int64(5), result.Total)
		assert.Len(t, result.Entries, 2)
		assert.Equal(t, 3, result.TotalPages)
	})
}

func TestOutboxService_GetEntry(t *testing.T) {
	service, repo := newOutboxService()
	entry := repo.add(shared.OutboxStatusDead)

	t.Run("found", func(t *testing.T) {
		dto, err := service.GetEntry(context.Background(), entry.ID)

		require.NoError(t, err)
		assert.Equal(t, entry.ID, dto.ID)
		assert.Equal(t, "risk.high_risk_detected", dto.EventType)
		assert.Equal(t, "DEAD", dto.Status)
		assert.Equal(t, "bus unavailable", dto.LastError)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := service.GetEntry(context.Background(), uuid.New())

		assert.Equal(t, "ENTRY_NOT_FOUND", domainCode(t, err))
	})
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	t.Run("re-queues a dead entry", func(t *testing.T) {
		service, repo := newOutboxService()
		entry := repo.add(shared.OutboxStatusDead)

		dto, err := service.RetryDeadEntry(context.Background(), entry.ID)

		require.NoError(t, err)
		assert.Equal(t, "PENDING", dto.Status)
		assert.Zero(t, dto.RetryCount)
		assert.Empty(t, dto.LastError)
		assert.Equal(t, shared.OutboxStatusPending, repo.entries[entry.ID].Status)
	})

	t.Run("missing entry", func(t *testing.T) {
		service, _ := newOutboxService()

		_, err := service.RetryDeadEntry(context.Background(), uuid.New())

		assert.Equal(t, "ENTRY_NOT_FOUND", domainCode(t, err))
	})

	t.Run("entry not dead", func(t *testing.T) {
		service, repo := newOutboxService()
		entry := repo.add(shared.OutboxStatusPending)

		_, err := service.RetryDeadEntry(context.Background(), entry.ID)

		assert.Equal(t, "INVALID_STATUS", domainCode(t, err))
	})
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	service, repo := newOutboxService()
	for i := 0; i < 3; i++ {
		repo.add(shared.OutboxStatusDead)
	}
	pending := repo.add(shared.OutboxStatusPending)

	count, err := service.RetryAllDeadEntries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	for _, entry := range repo.entries {
		assert.Equal(t, shared.OutboxStatusPending, entry.Status)
		if entry.ID != pending.ID {
			assert.Zero(t, entry.RetryCount)
			assert.Empty(t, entry.LastError)
		}
	}
}

func TestOutboxService_GetStats(t *testing.T) {
	service, repo := newOutboxService()
	statuses := []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	}
	for _, status := range statuses {
		repo.add(status)
	}

	stats, err := service.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
}
