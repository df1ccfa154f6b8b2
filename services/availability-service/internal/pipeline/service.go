// Package pipeline implements the multi-account aggregation run: per
// integration it ensures a valid access token, lists the account's active
// users, fetches every user's upcoming meetings under a rate limit, and
// groups the normalized results by owning integration into a cached
// snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/availability"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/batch"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/store"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/zoom"
)

// Config tunes one Service. Zero values fall back to the defaults below.
type Config struct {
	// Concurrency and Interval pace the per-user meeting fetches; see the
	// batch package. Defaults: 1 task per batch, 500ms between batches.
	Concurrency int
	Interval    time.Duration

	// PartialResults keeps the run alive past individual integration or
	// user failures, collecting them as snapshot warnings. Off by default:
	// the run fails fast and surfaces a single error.
	PartialResults bool

	// FallbackDuration, when positive, is assumed for meetings the provider
	// reports with no duration. When zero such meetings are dropped.
	FallbackDuration time.Duration

	// RefreshInterval drives the periodic background refresh in Run. Zero
	// disables the loop.
	RefreshInterval time.Duration
}

const (
	defaultConcurrency = 1
	defaultInterval    = 500 * time.Millisecond
)

// ErrNoSnapshot is returned by Available before the first successful run.
var ErrNoSnapshot = errors.New("no snapshot available yet")

// Service is the pipeline orchestrator. It owns the cached snapshot; the
// credential store and Zoom API are collaborators.
type Service struct {
	store  store.Store
	api    zoom.API
	cfg    Config
	logger zerolog.Logger

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewService(st store.Store, api zoom.API, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &Service{
		store:  st,
		api:    api,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// authedIntegration pairs an integration with the access token minted or
// reused for this run.
type authedIntegration struct {
	integ store.Integration
	token string
}

// fetchTarget is one (integration, user) pair awaiting a meeting fetch.
type fetchTarget struct {
	auth authedIntegration
	user models.ZoomUser
}

// Refresh runs the full pipeline once and caches the resulting snapshot.
// In fail-fast mode any stage failure aborts the run with a single tagged
// error; with PartialResults set, failed integrations and users are skipped
// and reported in Snapshot.Warnings.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	integrations, err := s.store.ListIntegrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load integrations: %w", err)
	}

	var warnings []string

	authed, tokenWarnings, err := s.tokenStage(ctx, integrations)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, tokenWarnings...)

	targets, dirWarnings, err := s.directoryStage(ctx, authed)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, dirWarnings...)

	users, meetingWarnings, err := s.meetingStage(ctx, targets)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, meetingWarnings...)

	snapshot := &Snapshot{
		TakenAt:  s.now(),
		Groups:   groupByIntegration(users),
		Warnings: warnings,
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.Info().
		Int("integrations", len(snapshot.Groups)).
		Int("users", len(users)).
		Int("warnings", len(warnings)).
		Msg("aggregation run complete")

	return snapshot, nil
}

// tokenStage ensures a valid token per integration, concurrently. Each
// integration is handled by exactly one goroutine, which serializes its
// refresh-and-persist; a failed persist is reported as a warning while the
// in-memory token stays usable for the rest of the run.
func (s *Service) tokenStage(ctx context.Context, integrations []store.Integration) ([]authedIntegration, []string, error) {
	type outcome struct {
		auth     authedIntegration
		warnings []string
		err      error
	}

	outcomes := make([]outcome, len(integrations))

	var wg sync.WaitGroup
	wg.Add(len(integrations))
	for i, integ := range integrations {
		go func(i int, integ store.Integration) {
			defer wg.Done()

			token, update, err := EnsureValidToken(ctx, s.api, integ, s.now())
			if err != nil {
				outcomes[i] = outcome{err: err}
				return
			}

			out := outcome{auth: authedIntegration{integ: integ, token: token}}
			if update != nil {
				if err := s.store.UpdateToken(ctx, integ.ID, *update); err != nil {
					s.logger.Warn().Err(err).
						Str("admin_email", integ.AdminEmail).
						Msg("failed to persist refreshed credentials, keeping token in memory")
					out.warnings = append(out.warnings, err.Error())
				}
			}
			outcomes[i] = out
		}(i, integ)
	}
	wg.Wait()

	var (
		authed   []authedIntegration
		warnings []string
	)
	for _, out := range outcomes {
		if out.err != nil {
			if !s.cfg.PartialResults {
				return nil, nil, fmt.Errorf("token stage: %w", out.err)
			}
			warnings = append(warnings, out.err.Error())
			continue
		}
		authed = append(authed, out.auth)
		warnings = append(warnings, out.warnings...)
	}

	return authed, warnings, nil
}

// directoryStage lists the active users of every authenticated integration,
// concurrently, and flattens the result into (integration, user) targets.
func (s *Service) directoryStage(ctx context.Context, authed []authedIntegration) ([]fetchTarget, []string, error) {
	type outcome struct {
		users []models.ZoomUser
		err   error
	}

	outcomes := make([]outcome, len(authed))

	var wg sync.WaitGroup
	wg.Add(len(authed))
	for i, auth := range authed {
		go func(i int, auth authedIntegration) {
			defer wg.Done()

			users, err := s.api.ListActiveUsers(ctx, auth.token)
			if err != nil {
				outcomes[i] = outcome{err: fmt.Errorf("integration %s: %w", auth.integ.AdminEmail, err)}
				return
			}
			outcomes[i] = outcome{users: users}
		}(i, auth)
	}
	wg.Wait()

	var (
		targets  []fetchTarget
		warnings []string
	)
	for i, out := range outcomes {
		if out.err != nil {
			if !s.cfg.PartialResults {
				return nil, nil, fmt.Errorf("directory stage: %w", out.err)
			}
			warnings = append(warnings, out.err.Error())
			continue
		}
		for _, user := range out.users {
			targets = append(targets, fetchTarget{auth: authed[i], user: user})
		}
	}

	return targets, warnings, nil
}

// meetingStage fetches and normalizes upcoming meetings for every target
// through the rate-limited batch scheduler.
func (s *Service) meetingStage(ctx context.Context, targets []fetchTarget) ([]availability.UserMeetings, []string, error) {
	tasks := make([]func(ctx context.Context) (availability.UserMeetings, error), len(targets))
	for i, target := range targets {
		target := target
		tasks[i] = func(ctx context.Context) (availability.UserMeetings, error) {
			return s.fetchUserMeetings(ctx, target)
		}
	}

	results, taskErrs, err := batch.Run(ctx, tasks, batch.Options{
		Concurrency:     s.cfg.Concurrency,
		Interval:        s.cfg.Interval,
		ContinueOnError: s.cfg.PartialResults,
		Sleep:           s.sleep,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("meeting stage: %w", err)
	}

	warnings := make([]string, 0, len(taskErrs))
	for _, taskErr := range taskErrs {
		warnings = append(warnings, taskErr.Error())
	}

	return results, warnings, nil
}

func (s *Service) fetchUserMeetings(ctx context.Context, target fetchTarget) (availability.UserMeetings, error) {
	raw, err := s.api.ListUpcomingMeetings(ctx, target.auth.token, target.user.ID)
	if err != nil {
		var me *zoom.MeetingsError
		if errors.As(err, &me) && me.UserEmail == "" {
			me.UserEmail = target.user.Email
		}
		return availability.UserMeetings{}, err
	}

	meetings, dropped := normalizeMeetings(raw, s.cfg.FallbackDuration)
	if dropped > 0 {
		s.logger.Warn().
			Str("user_email", target.user.Email).
			Int("dropped", dropped).
			Msg("dropped malformed meeting entries")
	}

	return availability.UserMeetings{
		IntegrationID: target.auth.integ.ID,
		AdminEmail:    target.auth.integ.AdminEmail,
		UserEmail:     target.user.Email,
		Meetings:      meetings,
	}, nil
}

// Snapshot returns the most recent snapshot, or nil before the first run.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Available answers a window query against the cached snapshot.
func (s *Service) Available(windowStart, windowEnd time.Time) ([]string, error) {
	snapshot := s.Snapshot()
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	return availability.FindAvailable(snapshot.FlatUsers(), windowStart, windowEnd), nil
}

// Run performs an initial refresh and then keeps the snapshot warm on
// Config.RefreshInterval until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial aggregation run failed")
	}

	if s.cfg.RefreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Error().Err(err).Msg("aggregation run failed")
			}
		}
	}
}
