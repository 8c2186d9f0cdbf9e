package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chambadev/chamba/internal/domain/repository"
	"github.com/chambadev/chamba/internal/notify"
	"github.com/chambadev/chamba/internal/store/memory"
)

// fakeClock entrega el tiempo bajo control del test y dispara los After
// pendientes a demanda.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []chan time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, ch)
	return ch
}

// fire avanza el reloj y despierta a todos los After pendientes.
func (c *fakeClock) fire(to time.Time) {
	c.mu.Lock()
	c.now = to
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- to
	}
}

func (c *fakeClock) pendingWaiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func seedLapsedFixture(t *testing.T, st *memory.Store, now time.Time, lapsed, active int) {
	t.Helper()
	mk := func(id string, end time.Time, available bool) {
		st.SeedPrincipal(repository.Principal{ID: id, Email: id + "@example.test", Role: repository.RoleProvider})
		st.SeedSubscription(repository.Subscription{OwnerID: id, StartAt: end.AddDate(0, -1, 0), EndAt: end})
		st.SeedProvider(repository.ProviderProfile{OwnerID: id, Kind: repository.KindWorker, IsAvailable: available})
	}
	for i := 0; i < lapsed; i++ {
		mk("lapsed-"+string(rune('a'+i)), now.Add(-time.Hour), true)
	}
	for i := 0; i < active; i++ {
		mk("active-"+string(rune('a'+i)), now.Add(30*24*time.Hour), true)
	}
}

func TestSweepOnceDemotesExactlyLapsed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st := memory.New()
	seedLapsedFixture(t, st, now, 3, 5)

	sw := New(Deps{
		Providers: st.Providers(),
		Clock:     newFakeClock(now),
	})

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Los activos no se tocan; los vencidos quedan todos en false.
	for _, id := range []string{"active-a", "active-b", "active-c", "active-d", "active-e"} {
		p, err := st.Providers().Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, p.IsAvailable, id)
	}
	for _, id := range []string{"lapsed-a", "lapsed-b", "lapsed-c"} {
		p, err := st.Providers().Get(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, p.IsAvailable, id)
	}

	// Segunda pasada inmediata: nada nuevo que demover.
	n, err = sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepOnceNotifiesDemoted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st := memory.New()
	seedLapsedFixture(t, st, now, 2, 1)

	rec := &recordingNotifier{}
	sw := New(Deps{
		Providers:  st.Providers(),
		Principals: st.Principals(),
		Notifier:   rec,
		Clock:      newFakeClock(now),
	})

	_, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lapsed-a", "lapsed-b"}, rec.notified())
}

func TestSweepOnceNotifierFailureDoesNotFailSweep(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st := memory.New()
	seedLapsedFixture(t, st, now, 1, 0)

	sw := New(Deps{
		Providers:  st.Providers(),
		Principals: st.Principals(),
		Notifier:   &recordingNotifier{err: errors.New("smtp down")},
		Clock:      newFakeClock(now),
	})

	n, err := sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunSweepsAtBoundaryAndContinuesOnError(t *testing.T) {
	start := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)

	providers := &scriptedProviders{}
	providers.errs = []error{errors.New("db down"), nil}

	sw := New(Deps{
		Providers:    providers,
		Clock:        clock,
		BoundaryHour: 0,
		Location:     time.UTC,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sw.Run(ctx)
	}()

	waitForWaiter(t, clock)
	// Primer boundary: el sweep falla, el loop sobrevive y se reprograma.
	clock.fire(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	waitForWaiter(t, clock)
	assert.Equal(t, 1, providers.callCount())
	// Segundo boundary: sweep exitoso.
	clock.fire(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

	waitForWaiter(t, clock)
	assert.Equal(t, 2, providers.callCount())

	// Cancelación: el loop sale pronto, sin esperar al próximo boundary.
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not exit after cancel")
	}
}

func TestNextBoundary(t *testing.T) {
	loc := time.UTC
	sw := New(Deps{BoundaryHour: 3, Location: loc})

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before today's boundary",
			time.Date(2026, 3, 10, 1, 30, 0, 0, loc),
			time.Date(2026, 3, 10, 3, 0, 0, 0, loc),
		},
		{
			"after today's boundary",
			time.Date(2026, 3, 10, 4, 0, 0, 0, loc),
			time.Date(2026, 3, 11, 3, 0, 0, 0, loc),
		},
		{
			"exactly at boundary rolls to tomorrow",
			time.Date(2026, 3, 10, 3, 0, 0, 0, loc),
			time.Date(2026, 3, 11, 3, 0, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sw.nextBoundary(tc.now))
		})
	}
}

func waitForWaiter(t *testing.T, c *fakeClock) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.pendingWaiters() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("sweeper never armed its timer")
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *recordingNotifier) SubscriptionLapsed(ctx context.Context, p *repository.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, p.ID)
	return r.err
}

func (r *recordingNotifier) notified() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type scriptedProviders struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (s *scriptedProviders) DemoteLapsed(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	return nil, err
}

func (s *scriptedProviders) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedProviders) Get(ctx context.Context, ownerID string) (*repository.ProviderProfile, error) {
	return nil, repository.ErrNotFound
}

func (s *scriptedProviders) SetAvailability(ctx context.Context, ownerID string, available bool) error {
	return nil
}

var _ notify.Notifier = (*recordingNotifier)(nil)
