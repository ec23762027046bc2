package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 5, 9, 0, 0, 123456000, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chamados.db")

	require.NoError(t, migrations.Up(migrations.SQLite, migrations.SQLiteURL(path)))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTicket(regional, reason string, openedAt time.Time) *domain.Ticket {
	return domain.NewTicket(domain.TicketParams{
		Regional: regional,
		Store:    "Loja 12",
		Leader:   "Maria",
		Reason:   reason,
	}, openedAt)
}

func ids(tickets []*domain.Ticket) []int64 {
	out := make([]int64, 0, len(tickets))
	for _, tk := range tickets {
		out = append(out, tk.ID)
	}
	return out
}

func TestTicketRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))

	created, err := repo.Create(ctx, newTicket("REGIONAL SUL", "Falha Impressão", baseTime))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, domain.StatusOpen, created.Status)
	assert.True(t, baseTime.Equal(created.OpenedAt))

	require.NoError(t, created.Close(baseTime.Add(26*time.Hour+5*time.Second), "admin"))
	updated, err := repo.MarkClosed(ctx, created)
	require.NoError(t, err)
	assert.True(t, updated)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, found.Status)
	assert.Equal(t, "26:00:05", found.Duration())
	assert.Equal(t, "admin", *found.ClosedBy)

	t.Run("second close is rejected by the store", func(t *testing.T) {
		updated, err := repo.MarkClosed(ctx, created)
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 404)
		assert.ErrorIs(t, err, errors.ErrTicketNotFound)
	})
}

func TestTicketRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))

	day1 := time.Date(2024, 3, 1, 23, 59, 59, 999999000, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	t1, err := repo.Create(ctx, newTicket("SUL", "A", day1))
	require.NoError(t, err)
	t2, err := repo.Create(ctx, newTicket("SUL", "B", day2))
	require.NoError(t, err)
	t3, err := repo.Create(ctx, newTicket("NORTE", "A", day3))
	require.NoError(t, err)

	require.NoError(t, t3.Close(day3.Add(time.Minute), ""))
	_, err = repo.MarkClosed(ctx, t3)
	require.NoError(t, err)

	all, err := repo.List(ctx, domain.TicketFilter{Status: domain.FilterAll})
	require.NoError(t, err)
	assert.Equal(t, []int64{t1.ID, t2.ID, t3.ID}, ids(all))

	open, err := repo.List(ctx, domain.TicketFilter{Status: domain.FilterOpen})
	require.NoError(t, err)
	assert.Equal(t, []int64{t1.ID, t2.ID}, ids(open))

	closed, err := repo.List(ctx, domain.TicketFilter{Status: domain.FilterClosed})
	require.NoError(t, err)
	assert.Equal(t, []int64{t3.ID}, ids(closed))
	assert.Nil(t, closed[0].ClosedBy)

	r, err := domain.NewDateRange(day1, day1)
	require.NoError(t, err)
	inRange, err := repo.List(ctx, domain.TicketFilter{Status: domain.FilterAll, Range: &r})
	require.NoError(t, err)
	assert.Equal(t, []int64{t1.ID}, ids(inRange))

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	next, err := repo.Create(ctx, newTicket("SUL", "C", day3))
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.ID, "ids are never reused")
}

func TestTicketRepository_LegacyTextDuration(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTicketRepository(db)

	_, err := db.ExecContext(ctx, `INSERT INTO chamados (regional, loja, lider, motivo, abertura, fechamento, duracao, status)
		VALUES ('SUL', 'Loja 1', 'Ana', 'Outro', '2024-03-01 08:00:00.000000', '2024-03-02 09:00:00.000000', '1 day, 1:00:00', 'Finalizado')`)
	require.NoError(t, err)

	ticket, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, ticket.Elapsed)
	assert.Equal(t, 25*time.Hour, *ticket.Elapsed)
	assert.Equal(t, "25:00:00", ticket.Duration())
}

func TestTicketRepository_ConcurrentClose(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))

	created, err := repo.Create(ctx, newTicket("SUL", "Outro", baseTime))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket := *created
			if err := ticket.Close(baseTime.Add(time.Duration(i+1)*time.Minute), "w"); err != nil {
				return
			}
			ok, err := repo.MarkClosed(ctx, &ticket)
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.Create(ctx, &domain.User{
		Username:     "admin",
		PasswordHash: "hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    baseTime,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, baseTime.Equal(created.CreatedAt))

	byName, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, byName.Role)

	_, err = repo.Create(ctx, &domain.User{Username: "admin", PasswordHash: "x", Role: domain.RoleUser, CreatedAt: baseTime})
	assert.ErrorIs(t, err, errors.ErrUserExists)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
