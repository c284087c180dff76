/*
service.go - Orchestration layer over the jar domain

PURPOSE:
  Serializes all dataset mutations behind one mutex and wires the pieces
  together: every operation loads the persisted documents, migrates them,
  applies the domain mutation, re-runs bonus recalculation and achievement
  checks where the operation calls for it, and saves.

CONCURRENCY:
  One mutex over load-mutate-save. The documents are small JSON blobs, so
  whole-document round trips are cheaper than they look and remove every
  read-modify-write race between the HTTP handlers, the sweep ticker and
  the sync engine.

CHANGE NOTIFICATION:
  After any successful mutation the service fires the OnChange hook. The
  sync engine registers its debounced trigger there.
*/
package jar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service owns the persisted documents and serializes mutations.
type Service struct {
	mu       sync.Mutex
	store    DocumentStore
	roster   []string
	log      *zap.Logger
	now      func() time.Time
	onChange func()

	// Tracking epoch for a dataset created by this service. Pinned at
	// construction, so the start date does not drift to whenever the
	// first request happens to arrive.
	epoch time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithOnChange registers a hook fired after every successful mutation.
func WithOnChange(fn func()) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService builds a service over the given store and roster.
func NewService(store DocumentStore, roster []string, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:  store,
		roster: append([]string(nil), roster...),
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.epoch = s.now()
	return s
}

// Roster returns the configured player names.
func (s *Service) Roster() []string {
	return append([]string(nil), s.roster...)
}

// =============================================================================
// DOCUMENT LOAD / SAVE
// =============================================================================

func (s *Service) loadDataset(ctx context.Context) (*Dataset, error) {
	raw, err := s.store.Get(ctx, DocScores)
	if errors.Is(err, ErrDocumentNotFound) {
		d := NewDataset(s.roster, s.epoch)
		s.log.Info("initialized fresh dataset", zap.Int("players", len(s.roster)))
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: scores: %v", ErrMalformedDocument, err)
	}
	if d.Migrate(s.roster) {
		s.log.Info("migrated dataset to current schema", zap.Int("schemaVersion", d.SchemaVersion))
	}
	return &d, nil
}

func (s *Service) loadAwards(ctx context.Context) (*AwardStore, error) {
	raw, err := s.store.Get(ctx, DocAchievements)
	if errors.Is(err, ErrDocumentNotFound) {
		return NewAwardStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	var aw AwardStore
	if err := json.Unmarshal(raw, &aw); err != nil {
		return nil, fmt.Errorf("%w: achievements: %v", ErrMalformedDocument, err)
	}
	if aw.Individual == nil {
		aw.Individual = map[string][]Award{}
	}
	return &aw, nil
}

func (s *Service) save(ctx context.Context, d *Dataset, aw *AwardStore) error {
	if d != nil {
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal scores: %w", err)
		}
		if err := s.store.Put(ctx, DocScores, raw); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
	}
	if aw != nil {
		raw, err := json.Marshal(aw)
		if err != nil {
			return fmt.Errorf("marshal achievements: %w", err)
		}
		if err := s.store.Put(ctx, DocAchievements, raw); err != nil {
			return fmt.Errorf("save achievements: %w", err)
		}
	}
	return nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// =============================================================================
// READS
// =============================================================================

// Snapshot returns fresh copies of both documents. The copies are private to
// the caller, mutating them has no effect on persisted state.
func (s *Service) Snapshot(ctx context.Context) (*Dataset, *AwardStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.loadDataset(ctx)
	if err != nil {
		return nil, nil, err
	}
	aw, err := s.loadAwards(ctx)
	if err != nil {
		return nil, nil, err
	}
	return d, aw, nil
}

// Leaderboard returns the ranked board for the period.
func (s *Service) Leaderboard(ctx context.Context, period Period) ([]LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.loadDataset(ctx)
	if err != nil {
		return nil, err
	}
	return d.Leaderboard(period, s.now()), nil
}

// Report returns the team-wide aggregate.
func (s *Service) Report(ctx context.Context) (TeamReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.loadDataset(ctx)
	if err != nil {
		return TeamReport{}, err
	}
	return d.Report(s.now()), nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddInfraction records one infraction and returns the result together with
// any achievements it unlocked. A blocked infraction mutates nothing.
func (s *Service) AddInfraction(ctx context.Context, player string) (InfractionResult, []Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return InfractionResult{}, nil, err
	}
	now := s.now()
	res, err := d.AddInfraction(player, now)
	if err != nil {
		return InfractionResult{}, nil, err
	}
	if res.Blocked {
		s.log.Info("infraction blocked",
			zap.String("player", player),
			zap.String("reason", string(res.Reason)))
		return res, nil, nil
	}

	aw, err := s.loadAwards(ctx)
	if err != nil {
		return InfractionResult{}, nil, err
	}
	minted := d.CheckPlayerAchievements(aw, player, now)
	minted = append(minted, d.CheckTeamAchievements(aw, now)...)

	if err := s.save(ctx, d, aw); err != nil {
		return InfractionResult{}, nil, err
	}
	s.log.Info("infraction recorded",
		zap.String("player", player),
		zap.Int("swearCount", res.SwearCount),
		zap.Int("balance", res.Balance),
		zap.Int("newAchievements", len(minted)))
	s.changed()
	return res, minted, nil
}

// Sweep runs the daily bonus pass and re-evaluates the catalogue.
func (s *Service) Sweep(ctx context.Context) (SweepResult, []Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return SweepResult{}, nil, err
	}
	aw, err := s.loadAwards(ctx)
	if err != nil {
		return SweepResult{}, nil, err
	}
	now := s.now()
	res := d.Sweep(aw, now)
	minted := d.CheckAllAchievements(aw, now)
	res.Awards = append(res.Awards, minted...)

	if !res.Changed && len(minted) == 0 {
		return res, minted, nil
	}
	if err := s.save(ctx, d, aw); err != nil {
		return SweepResult{}, nil, err
	}
	if len(res.MonthWinners) > 0 || len(res.YearWinners) > 0 {
		s.log.Info("champions elected",
			zap.Strings("month", res.MonthWinners),
			zap.Strings("year", res.YearWinners))
	}
	s.changed()
	return res, minted, nil
}

// AddVacation records a vacation interval and retroactively recalculates the
// player's streak bonuses.
func (s *Service) AddVacation(ctx context.Context, player, start, end string) (*Vacation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	v, err := d.AddVacation(player, start, end, now)
	if err != nil {
		return nil, err
	}
	if delta := d.RecalculateBonuses(player, now); delta != 0 {
		s.log.Info("bonus adjusted after vacation change",
			zap.String("player", player), zap.Int("delta", delta))
	}
	if err := s.save(ctx, d, nil); err != nil {
		return nil, err
	}
	s.changed()
	return v, nil
}

// RemoveVacation soft-deletes a vacation and recalculates the player's
// bonuses, which may claw back points the interval had granted.
func (s *Service) RemoveVacation(ctx context.Context, player, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	if !d.RemoveVacation(player, id, now) {
		return ErrVacationNotFound
	}
	if delta := d.RecalculateBonuses(player, now); delta != 0 {
		s.log.Info("bonus adjusted after vacation change",
			zap.String("player", player), zap.Int("delta", delta))
	}
	if err := s.save(ctx, d, nil); err != nil {
		return err
	}
	s.changed()
	return nil
}

// AddHoliday records a public holiday for the whole roster and recalculates
// everyone's bonuses.
func (s *Service) AddHoliday(ctx context.Context, start, end string) (*Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	h, err := d.AddHoliday(start, end, now)
	if err != nil {
		return nil, err
	}
	d.RecalculateAllBonuses(now)
	if err := s.save(ctx, d, nil); err != nil {
		return nil, err
	}
	s.changed()
	return h, nil
}

// RemoveHoliday soft-deletes a holiday and its mirrored vacations.
func (s *Service) RemoveHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	if !d.RemoveHoliday(id, now) {
		return ErrVacationNotFound
	}
	d.RecalculateAllBonuses(now)
	if err := s.save(ctx, d, nil); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Purchase claims a shop item and re-checks purchase-driven achievements.
func (s *Service) Purchase(ctx context.Context, player, itemID string) (*Purchase, []Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	pu, err := d.Purchase(player, itemID, now)
	if err != nil {
		return nil, nil, err
	}
	aw, err := s.loadAwards(ctx)
	if err != nil {
		return nil, nil, err
	}
	minted := d.CheckPlayerAchievements(aw, player, now)

	if err := s.save(ctx, d, aw); err != nil {
		return nil, nil, err
	}
	s.log.Info("shop purchase",
		zap.String("player", player),
		zap.String("item", itemID),
		zap.Int("cost", pu.Cost))
	s.changed()
	return pu, minted, nil
}

// =============================================================================
// BACKUP / RESTORE
// =============================================================================

// ExportDocument bundles both documents for a file backup.
type ExportDocument struct {
	ExportedAt   time.Time   `json:"exportedAt"`
	Scores       *Dataset    `json:"scores"`
	Achievements *AwardStore `json:"achievements"`
}

// Export returns a backup of the current state.
func (s *Service) Export(ctx context.Context) (*ExportDocument, error) {
	d, aw, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportDocument{ExportedAt: s.now(), Scores: d, Achievements: aw}, nil
}

// Import replaces local state with the backup. When forceReset is set, the
// dataset's reset marker is bumped so every other device adopts this state
// wholesale on its next pull instead of merging.
func (s *Service) Import(ctx context.Context, doc *ExportDocument, forceReset bool) error {
	if doc == nil || doc.Scores == nil {
		return fmt.Errorf("%w: missing scores", ErrMalformedDocument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := doc.Scores
	d.Migrate(s.roster)
	if forceReset {
		d.ForceResetTimestamp = s.now().UnixMilli()
	}
	aw := doc.Achievements
	if aw == nil {
		aw = NewAwardStore()
	}
	if aw.Individual == nil {
		aw.Individual = map[string][]Award{}
	}
	if err := s.save(ctx, d, aw); err != nil {
		return err
	}
	s.log.Info("imported backup",
		zap.Bool("forceReset", forceReset),
		zap.Int("players", len(d.Players)))
	s.changed()
	return nil
}

// Exchange runs fn under the service lock with the current documents and
// persists whatever fn returns. Returning nil for a document keeps the
// stored one untouched. The sync engine uses this for its merge step so no
// local mutation can slip in between pull and push.
func (s *Service) Exchange(ctx context.Context, fn func(d *Dataset, aw *AwardStore) (*Dataset, *AwardStore, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return err
	}
	aw, err := s.loadAwards(ctx)
	if err != nil {
		return err
	}
	newD, newAw, err := fn(d, aw)
	if err != nil {
		return err
	}
	if newD == nil && newAw == nil {
		return nil
	}
	return s.save(ctx, newD, newAw)
}

// ForceReset bumps the reset marker without touching the data, making the
// local state authoritative for the next sync.
func (s *Service) ForceReset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDataset(ctx)
	if err != nil {
		return err
	}
	d.ForceResetTimestamp = s.now().UnixMilli()
	if err := s.save(ctx, d, nil); err != nil {
		return err
	}
	s.log.Warn("force reset armed", zap.Int64("timestamp", d.ForceResetTimestamp))
	s.changed()
	return nil
}
