package syncer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/swearjar/jar"
	"github.com/warp/swearjar/store/memory"
	"github.com/warp/swearjar/syncer"
)

// =============================================================================
// FAKE REMOTE
// =============================================================================

// fakeRemote is an in-memory RemoteStore with injectable failures.
type fakeRemote struct {
	mu       sync.Mutex
	scores   []byte
	awards   []byte
	fetchErr error
	pushErr  error
	fetches  int
	pushes   int
}

func (f *fakeRemote) Fetch(context.Context) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, nil, f.fetchErr
	}
	return f.scores, f.awards, nil
}

func (f *fakeRemote) Update(_ context.Context, scores, achievements []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	if f.pushErr != nil {
		return f.pushErr
	}
	f.scores = scores
	f.awards = achievements
	return nil
}

func (f *fakeRemote) dataset(t *testing.T) *jar.Dataset {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.scores)
	var d jar.Dataset
	require.NoError(t, json.Unmarshal(f.scores, &d))
	return &d
}

func (f *fakeRemote) setDataset(t *testing.T, d *jar.Dataset) {
	t.Helper()
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	f.mu.Lock()
	f.scores = raw
	f.mu.Unlock()
}

func newSyncFixture(t *testing.T) (*jar.Service, *fakeRemote, *syncer.Engine) {
	t.Helper()
	svc := jar.NewService(memory.New(), []string{"Ana", "Bo"}, nil,
		jar.WithClock(func() time.Time { return day(3) }))
	remote := &fakeRemote{}
	eng := syncer.NewEngine(svc, remote, nil, time.Second)
	return svc, remote, eng
}

// =============================================================================
// SYNC CYCLE
// =============================================================================

func TestSync_PushesLocalStateToEmptyRemote(t *testing.T) {
	// GIVEN: local state and an empty remote
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	_, _, err := svc.AddInfraction(ctx, "Ana")
	require.NoError(t, err)

	// WHEN: syncing
	require.NoError(t, eng.Sync(ctx))

	// THEN: the remote now carries the local dataset and awards
	d := remote.dataset(t)
	assert.Equal(t, 1, d.Players["Ana"].SwearCount)
	assert.NotEmpty(t, remote.awards)
}

func TestSync_MergesRemoteIntoLocal(t *testing.T) {
	// GIVEN: a remote where Bo has been busy
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	_, _, err := svc.AddInfraction(ctx, "Ana")
	require.NoError(t, err)

	rd := jar.NewDataset([]string{"Ana", "Bo"}, day(2))
	rd.Players["Bo"].SwearCount = 3
	rd.Players["Bo"].Monthly["2025-06"] = 3
	remote.setDataset(t, rd)

	// WHEN: syncing
	require.NoError(t, eng.Sync(ctx))

	// THEN: both directions converged
	local, _, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, local.Players["Bo"].SwearCount)
	assert.Equal(t, 1, remote.dataset(t).Players["Ana"].SwearCount)
}

func TestSync_RepeatedCyclesConverge(t *testing.T) {
	// GIVEN: an already-synced pair
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	_, _, err := svc.AddInfraction(ctx, "Ana")
	require.NoError(t, err)
	require.NoError(t, eng.Sync(ctx))
	first := remote.dataset(t)

	// WHEN: syncing again with no changes
	require.NoError(t, eng.Sync(ctx))

	// THEN: the documents are stable
	assert.Equal(t, first, remote.dataset(t))
}

// =============================================================================
// FAILURE CLASSIFICATION
// =============================================================================

func TestSync_FetchFailureClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syncer.Kind
	}{
		{"auth", fmt.Errorf("get: %w", syncer.ErrRemoteUnauthorized), syncer.KindAuth},
		{"not found", fmt.Errorf("get: %w", syncer.ErrRemoteNotFound), syncer.KindNotFound},
		{"network", errors.New("dial tcp: timeout"), syncer.KindNetwork},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, remote, eng := newSyncFixture(t)
			remote.fetchErr = tc.err

			err := eng.Sync(context.Background())

			require.Error(t, err)
			var se *syncer.SyncError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.want, se.Kind)
			assert.Equal(t, "fetch", se.Op)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSync_PushFailureKeepsMergedStateLocally(t *testing.T) {
	// GIVEN: a remote that accepts reads but rejects writes
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	rd := jar.NewDataset([]string{"Ana", "Bo"}, day(2))
	rd.Players["Bo"].SwearCount = 5
	remote.setDataset(t, rd)
	remote.pushErr = syncer.ErrRemoteUnauthorized

	// WHEN: syncing
	err := eng.Sync(ctx)

	// THEN: the push error surfaces with its stage
	var se *syncer.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "push", se.Op)
	assert.Equal(t, syncer.KindAuth, se.Kind)

	// AND: the merged state already landed locally, the retry only pushes
	local, _, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, local.Players["Bo"].SwearCount)
}

// failingStore wraps a DocumentStore and rejects writes.
type failingStore struct {
	jar.DocumentStore
	putErr error
}

func (f *failingStore) Put(context.Context, string, []byte) error { return f.putErr }

func TestSync_PersistFailureClassifiedAsStorage(t *testing.T) {
	// GIVEN: a local database that rejects writes
	st := &failingStore{DocumentStore: memory.New(), putErr: errors.New("disk full")}
	svc := jar.NewService(st, []string{"Ana"}, nil,
		jar.WithClock(func() time.Time { return day(3) }))
	remote := &fakeRemote{}
	eng := syncer.NewEngine(svc, remote, nil, time.Second)

	// WHEN: syncing
	err := eng.Sync(context.Background())

	// THEN: the failure carries the persist stage and the storage kind,
	// not a hint to go fix the configuration
	var se *syncer.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "persist", se.Op)
	assert.Equal(t, syncer.KindStorage, se.Kind)
	assert.Equal(t, 0, remote.pushes)
}

func TestSync_MalformedRemoteDocument(t *testing.T) {
	_, remote, eng := newSyncFixture(t)
	remote.scores = []byte("{broken")

	err := eng.Sync(context.Background())

	assert.Equal(t, syncer.KindConfig, syncer.KindOf(err))
}

func TestSync_NoRemoteConfigured(t *testing.T) {
	svc := jar.NewService(memory.New(), []string{"Ana"}, nil)
	eng := syncer.NewEngine(svc, nil, nil, 0)

	err := eng.Sync(context.Background())

	assert.ErrorIs(t, err, syncer.ErrNotConfigured)
	assert.Equal(t, syncer.KindConfig, syncer.KindOf(err))
}

// =============================================================================
// FORCE RESET PROPAGATION
// =============================================================================

func TestSync_ForceResetAdoptsRemote(t *testing.T) {
	// GIVEN: a remote carrying a reset with clean counters
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	_, _, err := svc.AddInfraction(ctx, "Ana")
	require.NoError(t, err)

	rd := jar.NewDataset([]string{"Ana", "Bo"}, day(2))
	rd.ForceResetTimestamp = day(9).UnixMilli()
	remote.setDataset(t, rd)

	// WHEN: syncing
	require.NoError(t, eng.Sync(ctx))

	// THEN: the local counters were wiped by the reset
	local, _, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, local.Players["Ana"].SwearCount)
	assert.Equal(t, rd.ForceResetTimestamp, local.ForceResetTimestamp)

	// AND: nothing was pushed back, the initiating device owns the remote
	assert.Equal(t, 0, remote.pushes)
}

func TestSync_CyclesAfterResetPushNormally(t *testing.T) {
	// GIVEN: a reset already adopted from the remote
	svc, remote, eng := newSyncFixture(t)
	ctx := context.Background()
	rd := jar.NewDataset([]string{"Ana", "Bo"}, day(2))
	rd.ForceResetTimestamp = day(9).UnixMilli()
	remote.setDataset(t, rd)
	require.NoError(t, eng.Sync(ctx))
	require.Equal(t, 0, remote.pushes)

	// WHEN: a local change arrives and the next cycle runs
	_, _, err := svc.AddInfraction(ctx, "Ana")
	require.NoError(t, err)
	require.NoError(t, eng.Sync(ctx))

	// THEN: equal reset markers merge field by field and push again
	assert.Equal(t, 1, remote.pushes)
	d := remote.dataset(t)
	assert.Equal(t, 1, d.Players["Ana"].SwearCount)
	assert.Equal(t, rd.ForceResetTimestamp, d.ForceResetTimestamp)
}

// =============================================================================
// DEBOUNCED TRIGGER
// =============================================================================

func TestRun_DebouncesBurstsIntoOneSync(t *testing.T) {
	// GIVEN: a running engine with a short debounce
	svc := jar.NewService(memory.New(), []string{"Ana"}, nil)
	remote := &fakeRemote{}
	eng := syncer.NewEngine(svc, remote, nil, 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	// WHEN: a burst of change notifications
	for i := 0; i < 5; i++ {
		eng.NotifyChange()
		time.Sleep(5 * time.Millisecond)
	}

	// THEN: exactly one cycle fires once the window closes
	assert.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.fetches == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
