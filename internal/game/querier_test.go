package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/models"
)

type memRecorder struct {
	mu        sync.Mutex
	queries   []models.QueryRecord
	snapshots []models.Snapshot
}

func (m *memRecorder) SaveQuery(q models.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return nil
}

func (m *memRecorder) SaveSnapshot(s models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return nil
}

func (m *memRecorder) LastSnapshot() (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return nil, nil
	}
	s := m.snapshots[len(m.snapshots)-1]
	return &s, nil
}

func (m *memRecorder) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries), len(m.snapshots)
}

var testMTA = config.MTA{Host: "127.0.0.1", Port: 22003, Timeout: time.Second, Variant: "tagged"}

// scripted returns a QueryFunc answering with the given rosters in turn.
func scripted(rosters ...[]ase.Player) QueryFunc {
	var mu sync.Mutex
	i := 0
	return func(context.Context, string, int, ...ase.Option) (*ase.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		players := rosters[i%len(rosters)]
		i++
		return ase.Assemble(ase.ServerInfo{Name: "test"}, players, ase.AssembleInfo{}), nil
	}
}

func TestQuerierRecordsOutcomes(t *testing.T) {
	rec := &memRecorder{}
	bob := []ase.Player{{Name: "Bob", Score: 1, Ping: 40}}
	bobLagging := []ase.Player{{Name: "Bob", Score: 9, Ping: 300}}
	both := []ase.Player{{Name: "Bob"}, {Name: "Alice"}}

	q := NewQuerier(testMTA, rec).WithQueryFunc(scripted(bob, bobLagging, both))

	for i := 0; i < 3; i++ {
		res, err := q.Query(context.Background(), SourceAPI)
		require.NoError(t, err)
		require.NotNil(t, res)
	}

	queries, snapshots := rec.counts()
	assert.Equal(t, 3, queries)
	assert.Equal(t, 2, snapshots, "score and ping changes must not produce a snapshot")

	assert.Equal(t, models.OutcomeOK, rec.queries[0].Outcome)
	assert.Equal(t, SourceAPI, rec.queries[0].Source)
	assert.Equal(t, 2, rec.queries[2].Players)
	assert.NotEqual(t, rec.queries[0].QueryID, rec.queries[1].QueryID)
}

func TestQuerierRecordsFailureKind(t *testing.T) {
	rec := &memRecorder{}
	q := NewQuerier(testMTA, rec).WithQueryFunc(
		func(context.Context, string, int, ...ase.Option) (*ase.Result, error) {
			return nil, &ase.Error{Kind: ase.KindTimeout, Stage: ase.StageTransport}
		})

	res, err := q.Query(context.Background(), SourceBot)
	assert.Nil(t, res)
	assert.True(t, IsTimeout(err))

	queries, snapshots := rec.counts()
	require.Equal(t, 1, queries)
	assert.Zero(t, snapshots)
	assert.Equal(t, "timeout", rec.queries[0].Outcome)
}

func TestQuerierResumesFingerprint(t *testing.T) {
	bob := []ase.Player{{Name: "Bob"}}
	rec := &memRecorder{snapshots: []models.Snapshot{{Fingerprint: Fingerprint(bob)}}}

	q := NewQuerier(testMTA, rec).WithQueryFunc(scripted(bob))
	_, err := q.Query(context.Background(), SourceWatcher)
	require.NoError(t, err)

	_, snapshots := rec.counts()
	assert.Equal(t, 1, snapshots)
}

func TestQuerierWithoutRecorder(t *testing.T) {
	q := NewQuerier(testMTA, nil).WithQueryFunc(scripted(nil))

	res, err := q.Query(context.Background(), SourceAPI)
	require.NoError(t, err)
	assert.Zero(t, res.Roster.Len())
}

type countingGeo struct {
	calls int
	code  string
}

func (g *countingGeo) HostCountry(context.Context, string) string {
	g.calls++
	return g.code
}

func TestQuerierCountry(t *testing.T) {
	assert.Empty(t, NewQuerier(testMTA, nil).Country(context.Background()))

	geo := &countingGeo{code: "CA"}
	q := NewQuerier(testMTA, nil).WithGeo(geo)

	assert.Equal(t, "CA", q.Country(context.Background()))
	assert.Equal(t, "CA", q.Country(context.Background()))
	assert.Equal(t, 1, geo.calls)

	unknown := &countingGeo{}
	q = NewQuerier(testMTA, nil).WithGeo(unknown)
	q.Country(context.Background())
	q.Country(context.Background())
	assert.Equal(t, 2, unknown.calls, "failed lookups are retried")
}

type blockingGeo struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGeo) HostCountry(context.Context, string) string {
	close(g.started)
	<-g.release
	return "BR"
}

func TestQuerierRecordsWhileCountryResolves(t *testing.T) {
	geo := &blockingGeo{started: make(chan struct{}), release: make(chan struct{})}
	rec := &memRecorder{}
	q := NewQuerier(testMTA, rec).
		WithQueryFunc(scripted([]ase.Player{{Name: "Bob"}})).
		WithGeo(geo)

	country := make(chan string, 1)
	go func() { country <- q.Country(context.Background()) }()
	<-geo.started

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := q.Query(context.Background(), SourceWatcher)
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("query blocked behind the country lookup")
	}
	queries, snapshots := rec.counts()
	assert.Equal(t, 1, queries)
	assert.Equal(t, 1, snapshots)

	close(geo.release)
	assert.Equal(t, "BR", <-country)
	assert.Equal(t, "BR", q.Country(context.Background()))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]ase.Player{{Name: "Bob"}, {Name: "Alice"}})
	b := Fingerprint([]ase.Player{{Name: "Alice", Ping: 99}, {Name: "Bob"}})
	c := Fingerprint([]ase.Player{{Name: "AliceBob"}})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
	assert.NotEqual(t, Fingerprint(nil), a)
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(&ase.Error{Kind: ase.KindNetwork}))
}

func TestWatcherPollsOnInterval(t *testing.T) {
	rec := &memRecorder{}
	q := NewQuerier(testMTA, rec).WithQueryFunc(scripted([]ase.Player{{Name: "Bob"}}))
	mock := clock.NewMock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewWatcher(q, time.Minute, mock).Run(ctx)
		close(done)
	}()

	polled := func(n int) func() bool {
		return func() bool {
			got, _ := rec.counts()
			return got == n
		}
	}

	require.Eventually(t, polled(1), time.Second, 5*time.Millisecond)
	mock.Add(time.Minute)
	require.Eventually(t, polled(2), time.Second, 5*time.Millisecond)
	mock.Add(time.Minute)
	require.Eventually(t, polled(3), time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherDisabled(t *testing.T) {
	q := NewQuerier(testMTA, nil)
	// Returns immediately without querying.
	NewWatcher(q, 0, clock.NewMock()).Run(context.Background())
}
