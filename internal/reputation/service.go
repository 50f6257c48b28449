package reputation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fides/internal/identity"
	"fides/internal/rbac"
	"fides/internal/region"
	"fides/internal/reputation/metrics"
	"fides/internal/vouch"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	"fides/pkg/requestcontext"
)

var tracer trace.Tracer = otel.Tracer("reputation")

const cacheKeyPrefix = "rep:"

// ProfileStore is the slice of the identity store scoring needs.
type ProfileStore interface {
	FindByID(ctx context.Context, userID id.UserID) (identity.Profile, error)
	Save(ctx context.Context, profile identity.Profile) error
}

// VouchReader lists a user's received vouches in receipt order.
type VouchReader interface {
	ListByReceiver(ctx context.Context, receiver id.UserID) ([]vouch.Vouch, error)
}

type RoleChecker interface {
	Require(role rbac.Role, caller id.UserID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Cache is the score cache surface. Satisfied by *redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service owns reputation scoring: recomputes after ledger changes,
// cached reads, and the country trust table.
type Service struct {
	profiles       ProfileStore
	vouches        VouchReader
	trust          *region.Table
	roles          RoleChecker
	cache          Cache
	cacheTTL       time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache enables the Redis score cache. A zero ttl disables caching.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// New constructs a Service.
func New(profiles ProfileStore, vouches VouchReader, trust *region.Table, roles RoleChecker, opts ...Option) *Service {
	s := &Service{profiles: profiles, vouches: vouches, trust: trust, roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute derives the user's score from the ledger, persists it on the
// profile, and refreshes the cache. Called synchronously whenever a vouch
// is issued or invalidated.
func (s *Service) Recompute(ctx context.Context, userID id.UserID) (int, error) {
	ctx, span := tracer.Start(ctx, "Reputation.Service.Recompute")
	defer span.End()
	start := time.Now()

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, identity.ErrNotRegistered
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	score, err := s.compute(ctx, profile)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	previous := profile.Reputation
	profile.Reputation = score
	if err := s.profiles.Save(ctx, profile); err != nil {
		span.RecordError(err)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score")
	}
	s.cacheSet(ctx, userID, score)

	if previous != score {
		s.logAudit(ctx, userID, previous, score)
	}
	if s.metrics != nil {
		s.metrics.IncrementRecomputes()
		s.metrics.ObserveRecompute(start)
	}
	return score, nil
}

// Score returns the user's current score. Served from cache when fresh;
// computed from the ledger otherwise. Does not persist.
func (s *Service) Score(ctx context.Context, userID id.UserID) (int, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKeyPrefix+userID.String()).Result(); err == nil {
			if score, convErr := strconv.Atoi(cached); convErr == nil {
				if s.metrics != nil {
					s.metrics.IncrementCacheHits()
				}
				return score, nil
			}
		}
		if s.metrics != nil {
			s.metrics.IncrementCacheMisses()
		}
	}

	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, identity.ErrNotRegistered
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	score, err := s.compute(ctx, profile)
	if err != nil {
		return 0, err
	}
	s.cacheSet(ctx, userID, score)
	return score, nil
}

// SetCountryMultiplier adjusts a country's trust multiplier. Admin only.
// Takes effect on the next recompute of any affected user.
func (s *Service) SetCountryMultiplier(ctx context.Context, caller id.UserID, country string, pct int) error {
	if err := s.roles.Require(rbac.RoleAdmin, caller); err != nil {
		return err
	}
	cc, err := id.ParseCountryCode(country)
	if err != nil {
		return err
	}
	if err := s.trust.SetTrustMultiplier(cc, pct); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.ActionCountryMultiplierSet),
			"country", cc.String(),
			"multiplier", pct,
			"log_type", "audit")
	}
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, audit.Event{
			Action:  audit.ActionCountryMultiplierSet,
			Actor:   caller,
			Subject: cc.String(),
			Reason:  strconv.Itoa(pct),
		})
	}
	return nil
}

func (s *Service) compute(ctx context.Context, profile identity.Profile) (int, error) {
	vouches, err := s.vouches.ListByReceiver(ctx, profile.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vouches")
	}

	countries := make(map[id.UserID]id.CountryCode)
	for _, v := range vouches {
		if !v.Valid {
			continue
		}
		if _, seen := countries[v.Giver]; seen {
			continue
		}
		giver, err := s.profiles.FindByID(ctx, v.Giver)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load giver")
		}
		countries[v.Giver] = giver.Country
	}

	resolver := func(userID id.UserID) (id.CountryCode, bool) {
		c, ok := countries[userID]
		return c, ok
	}
	return Compute(profile, vouches, resolver, s.trust, requestcontext.Now(ctx)), nil
}

func (s *Service) cacheSet(ctx context.Context, userID id.UserID, score int) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+userID.String(), score, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "score cache write failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) logAudit(ctx context.Context, userID id.UserID, previous, score int) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.ActionReputationUpdated),
			"user_id", userID.String(),
			"previous", previous,
			"score", score,
			"log_type", "audit")
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  audit.ActionReputationUpdated,
		Actor:   userID,
		Subject: userID.String(),
		Reason:  strconv.Itoa(previous) + " -> " + strconv.Itoa(score),
	})
}
