// Package collector drives the collection cycle: walk the entity registry,
// pull each entity's filings from the index, extract and resolve holdings,
// aggregate period snapshots, and hand the result to the change tracker.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tenax/internal/edgar"
	"github.com/ternarybob/tenax/internal/interfaces"
	"github.com/ternarybob/tenax/internal/models"
	"github.com/ternarybob/tenax/internal/services/tracker"
)

// FilingSource lists an entity's filings and fetches their raw documents.
type FilingSource interface {
	ListFilings(ctx context.Context, entity *models.TrackedEntity) ([]models.FilingMeta, error)
	FetchDocument(ctx context.Context, meta models.FilingMeta) (string, error)
}

// Resolver fills in ticker symbols on extracted holdings, returning the
// count left unresolved.
type Resolver interface {
	Apply(holdings []models.HoldingRecord) int
}

// Aggregator turns a filing's holdings into a stored period snapshot.
type Aggregator interface {
	Aggregate(ctx context.Context, entity *models.TrackedEntity, filing models.FilingMeta, holdings []models.HoldingRecord) (*models.PeriodSnapshot, error)
}

// Tracker updates the persisted per-entity summary tables.
type Tracker interface {
	Rebuild(ctx context.Context, cik string, snapshots []*models.PeriodSnapshot) error
	Append(ctx context.Context, cik string, latest *models.PeriodSnapshot) (bool, error)
}

// CycleStats summarizes one collection cycle.
type CycleStats struct {
	RunID      string
	Entities   int
	Skipped    int
	Failed     int
	Filings    int
	Holdings   int
	Unresolved int
	Duration   time.Duration
}

// Service runs collection cycles over the registry with a bounded worker
// pool. Entity failures are isolated: one entity's error never aborts the
// cycle for the others.
type Service struct {
	source      FilingSource
	resolver    Resolver
	aggregator  Aggregator
	tracker     Tracker
	registry    interfaces.RegistryStorage
	snapshots   interfaces.SnapshotStorage
	concurrency int
	logger      arbor.ILogger
}

// NewService creates a collection service. Concurrency below 1 is treated
// as sequential.
func NewService(
	source FilingSource,
	resolver Resolver,
	aggregator Aggregator,
	tracker Tracker,
	registry interfaces.RegistryStorage,
	snapshots interfaces.SnapshotStorage,
	concurrency int,
	logger arbor.ILogger,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		source:      source,
		resolver:    resolver,
		aggregator:  aggregator,
		tracker:     tracker,
		registry:    registry,
		snapshots:   snapshots,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes one collection cycle over every registry entity and returns
// the cycle summary. The only cycle-level errors are failures to read the
// registry itself.
func (s *Service) Run(ctx context.Context) (*CycleStats, error) {
	start := time.Now()
	stats := &CycleStats{RunID: uuid.New().String()}

	entities, err := s.registry.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registry entities: %w", err)
	}
	stats.Entities = len(entities)

	s.logger.Info().
		Str("run_id", stats.RunID).
		Int("entities", len(entities)).
		Int("concurrency", s.concurrency).
		Msg("Starting collection cycle")

	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan *models.TrackedEntity)

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range work {
				result, err := s.processEntity(ctx, entity)
				mu.Lock()
				if err != nil {
					stats.Failed++
					s.logger.Error().
						Str("run_id", stats.RunID).
						Str("cik", entity.CIK).
						Str("name", entity.Name).
						Err(err).
						Msg("Entity collection failed")
				} else if result.skipped {
					stats.Skipped++
				} else {
					stats.Filings += result.filings
					stats.Holdings += result.holdings
					stats.Unresolved += result.unresolved
				}
				mu.Unlock()
			}
		}()
	}

	for _, entity := range entities {
		work <- entity
	}
	close(work)
	wg.Wait()

	stats.Duration = time.Since(start)
	s.logger.Info().
		Str("run_id", stats.RunID).
		Int("entities", stats.Entities).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int("filings", stats.Filings).
		Int("holdings", stats.Holdings).
		Int("unresolved", stats.Unresolved).
		Str("duration", stats.Duration.Round(time.Millisecond).String()).
		Msg("Collection cycle complete")

	return stats, nil
}

type entityResult struct {
	skipped    bool
	filings    int
	holdings   int
	unresolved int
}

// processEntity collects one entity end to end: index, documents, holdings,
// snapshots, summary update, registry write-back.
func (s *Service) processEntity(ctx context.Context, entity *models.TrackedEntity) (entityResult, error) {
	var result entityResult

	if entity.Policy == models.PolicySkip {
		s.logger.Debug().Str("cik", entity.CIK).Msg("Entity policy is skip, not collecting")
		result.skipped = true
		return result, nil
	}

	filings, err := s.listFilings(ctx, entity)
	if err != nil {
		return result, fmt.Errorf("failed to list filings: %w", err)
	}
	if len(filings) == 0 {
		s.logger.Info().Str("cik", entity.CIK).Msg("No filings to collect")
		result.skipped = true
		return result, nil
	}

	// The index is newest first; process oldest first so snapshots build up
	// in reporting order.
	ordered := make([]models.FilingMeta, len(filings))
	for i, f := range filings {
		ordered[len(filings)-1-i] = f
	}

	// A transient failure on one filing skips that filing only; the rest of
	// the entity's history still collects.
	var latest *models.PeriodSnapshot
	var lastFiled time.Time
	for _, filing := range ordered {
		raw, err := s.fetchDocument(ctx, filing)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn().
				Str("cik", entity.CIK).
				Str("accession", filing.AccessionNumber).
				Err(err).
				Msg("Failed to fetch filing, skipping")
			continue
		}

		holdings := edgar.ExtractHoldings(raw)
		unresolved := s.resolver.Apply(holdings)

		snapshot, err := s.aggregator.Aggregate(ctx, entity, filing, holdings)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn().
				Str("cik", entity.CIK).
				Str("accession", filing.AccessionNumber).
				Err(err).
				Msg("Failed to aggregate filing, skipping")
			continue
		}

		result.filings++
		result.holdings += len(holdings)
		result.unresolved += unresolved
		latest = snapshot
		if filing.FilingDate.After(lastFiled) {
			lastFiled = filing.FilingDate
		}
	}

	if latest == nil {
		return result, fmt.Errorf("no filing collected successfully")
	}

	if err := s.updateSummary(ctx, entity, latest); err != nil {
		return result, err
	}

	if err := s.registry.UpdateLastFilingDate(ctx, entity.CIK, lastFiled); err != nil {
		return result, fmt.Errorf("failed to record last filing date: %w", err)
	}

	return result, nil
}

// updateSummary applies the policy-appropriate summary update: full history
// rebuilds from every stored snapshot, latest-only appends incrementally and
// falls back to a rebuild when no baseline exists yet.
func (s *Service) updateSummary(ctx context.Context, entity *models.TrackedEntity, latest *models.PeriodSnapshot) error {
	if entity.Policy == models.PolicyFullHistory {
		history, err := s.snapshots.ListSnapshots(ctx, entity.CIK)
		if err != nil {
			return fmt.Errorf("failed to load snapshot history: %w", err)
		}
		if err := s.tracker.Rebuild(ctx, entity.CIK, history); err != nil {
			return err
		}
		return nil
	}

	_, err := s.tracker.Append(ctx, entity.CIK, latest)
	if errors.Is(err, interfaces.ErrNoBaseline) || errors.Is(err, tracker.ErrRebuildRequired) {
		s.logger.Info().Str("cik", entity.CIK).Msg("Incremental append not possible, rebuilding from stored snapshots")
		history, err := s.snapshots.ListSnapshots(ctx, entity.CIK)
		if err != nil {
			return fmt.Errorf("failed to load snapshot history: %w", err)
		}
		return s.tracker.Rebuild(ctx, entity.CIK, history)
	}
	return err
}

// listFilings wraps the index call with rate-limit backoff: on a 429 the
// worker sleeps for the advertised retry window and tries again.
func (s *Service) listFilings(ctx context.Context, entity *models.TrackedEntity) ([]models.FilingMeta, error) {
	for {
		filings, err := s.source.ListFilings(ctx, entity)
		if wait, limited := rateLimited(err); limited {
			if err := s.backoff(ctx, entity.CIK, wait); err != nil {
				return nil, err
			}
			continue
		}
		return filings, err
	}
}

func (s *Service) fetchDocument(ctx context.Context, meta models.FilingMeta) (string, error) {
	for {
		raw, err := s.source.FetchDocument(ctx, meta)
		if wait, limited := rateLimited(err); limited {
			if err := s.backoff(ctx, meta.CIK, wait); err != nil {
				return "", err
			}
			continue
		}
		return raw, err
	}
}

func rateLimited(err error) (time.Duration, bool) {
	var rl *edgar.RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

func (s *Service) backoff(ctx context.Context, cik string, wait time.Duration) error {
	s.logger.Warn().
		Str("cik", cik).
		Str("retry_after", wait.String()).
		Msg("Rate limited, backing off")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
