/*
engine.go - Pull-merge-push cycle against the shared remote

PURPOSE:
  Drives reconciliation: fetch both remote documents, merge them with the
  local copies under the service lock, persist the merged result locally,
  then push it back to the remote. Local mutations queue a debounced
  trigger so a burst of clicks becomes one sync. An unseen remote force
  reset skips the merge entirely: the remote state is adopted wholesale
  and nothing is pushed back.

FAILURE MODEL:
  A failed push leaves the merged documents saved locally. The next
  trigger retries the whole cycle, and because every merge strategy is
  idempotent, re-merging already-merged state is harmless.
*/
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/warp/swearjar/jar"
)

// RemoteStore is the shared document host. The production implementation
// lives in the gist package.
type RemoteStore interface {
	// Fetch returns the raw remote documents. A missing file comes back
	// nil rather than as an error.
	Fetch(ctx context.Context) (scores, achievements []byte, err error)

	// Update replaces the remote documents.
	Update(ctx context.Context, scores, achievements []byte) error
}

// Sentinel errors a RemoteStore may return for classification.
var (
	ErrRemoteUnauthorized = errors.New("remote rejected credentials")
	ErrRemoteNotFound     = errors.New("remote document not found")
)

// Engine owns the sync lifecycle for one service/remote pair.
type Engine struct {
	svc      *jar.Service
	remote   RemoteStore
	log      *zap.Logger
	debounce time.Duration

	trigger chan struct{}
	syncing atomic.Bool

	// Unix millis of the last successful cycle. A remote force-reset
	// marker must beat this too, so a reset this device already saw
	// (and possibly initiated) is not adopted twice.
	lastSync atomic.Int64
}

// NewEngine builds an engine. A zero debounce falls back to two seconds,
// the interval short enough to feel immediate and long enough to coalesce
// a burst of infractions into one push.
func NewEngine(svc *jar.Service, remote RemoteStore, log *zap.Logger, debounce time.Duration) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Engine{
		svc:      svc,
		remote:   remote,
		log:      log,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
	}
}

// NotifyChange queues a debounced sync. Safe to call from any goroutine,
// never blocks.
func (e *Engine) NotifyChange() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run consumes triggers until ctx is canceled. Each trigger restarts the
// debounce window, the sync fires once the window closes quietly.
func (e *Engine) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-e.trigger:
			if timer == nil {
				timer = time.NewTimer(e.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(e.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := e.Sync(ctx); err != nil {
				e.log.Warn("sync failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
			}
		}
	}
}

// Sync runs one pull-merge-push cycle. If a cycle is already in flight the
// call is a no-op, the in-flight cycle will pick up any local changes on
// the next trigger.
func (e *Engine) Sync(ctx context.Context) error {
	if e.remote == nil {
		return ErrNotConfigured
	}
	if !e.syncing.CompareAndSwap(false, true) {
		e.NotifyChange()
		return nil
	}
	defer e.syncing.Store(false)

	started := time.Now()

	rawScores, rawAwards, err := e.remote.Fetch(ctx)
	if err != nil {
		return &SyncError{Kind: classify(err), Op: "fetch", Err: err}
	}

	remoteD, remoteAw, err := decodeRemote(rawScores, rawAwards)
	if err != nil {
		return &SyncError{Kind: KindConfig, Op: "fetch", Err: err}
	}

	// A remote reset marker newer than both the local marker and the last
	// successful cycle means another device repaired the shared state.
	// Adopt it wholesale and exit without uploading, otherwise this cycle
	// would race the device that initiated the reset.
	var adopted bool
	var mergedScores, mergedAwards []byte
	err = e.svc.Exchange(ctx, func(d *jar.Dataset, aw *jar.AwardStore) (*jar.Dataset, *jar.AwardStore, error) {
		if remoteD != nil && remoteD.ForceResetTimestamp > d.ForceResetTimestamp &&
			remoteD.ForceResetTimestamp > e.lastSync.Load() {
			adopted = true
			remoteD.Migrate(e.svc.Roster())
			adoptedAw := remoteAw
			if adoptedAw == nil {
				adoptedAw = aw
			}
			return remoteD, adoptedAw, nil
		}

		mergedD := MergeDatasets(d, remoteD)
		mergedD.Migrate(e.svc.Roster())
		mergedAw := MergeAwards(aw, remoteAw)

		var mErr error
		if mergedScores, mErr = json.Marshal(mergedD); mErr != nil {
			return nil, nil, mErr
		}
		if mergedAwards, mErr = json.Marshal(mergedAw); mErr != nil {
			return nil, nil, mErr
		}
		return mergedD, mergedAw, nil
	})
	if err != nil {
		return &SyncError{Kind: KindStorage, Op: "persist", Err: err}
	}

	if adopted {
		e.lastSync.Store(time.Now().UnixMilli())
		e.log.Info("adopted remote state after reset", zap.Duration("took", time.Since(started)))
		return nil
	}

	if err := e.remote.Update(ctx, mergedScores, mergedAwards); err != nil {
		return &SyncError{Kind: classify(err), Op: "push", Err: err}
	}

	e.lastSync.Store(time.Now().UnixMilli())
	e.log.Info("sync complete", zap.Duration("took", time.Since(started)))
	return nil
}

func decodeRemote(rawScores, rawAwards []byte) (*jar.Dataset, *jar.AwardStore, error) {
	var d *jar.Dataset
	if len(rawScores) > 0 {
		d = &jar.Dataset{}
		if err := json.Unmarshal(rawScores, d); err != nil {
			return nil, nil, fmt.Errorf("remote scores: %w", err)
		}
	}
	var aw *jar.AwardStore
	if len(rawAwards) > 0 {
		aw = &jar.AwardStore{}
		if err := json.Unmarshal(rawAwards, aw); err != nil {
			return nil, nil, fmt.Errorf("remote achievements: %w", err)
		}
		if aw.Individual == nil {
			aw.Individual = map[string][]jar.Award{}
		}
	}
	return d, aw, nil
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrRemoteUnauthorized):
		return KindAuth
	case errors.Is(err, ErrRemoteNotFound):
		return KindNotFound
	default:
		return KindNetwork
	}
}
