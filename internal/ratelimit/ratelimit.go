// Package ratelimit enforces per-(action, identity) quotas inside the same
// transaction as the operation they guard. Each admission leaves a ledger
// row behind; the check reads the newest rows for the pair, so a rejected
// call aborts the whole transaction and leaves no trace.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fauna-labs/fwitter/internal/models"
	"github.com/fauna-labs/fwitter/internal/txn"
	"github.com/fauna-labs/fwitter/pkg/config"
)

// Action names with a default quota.
const (
	ActionRegister          = "register"
	ActionLogin             = "login"
	ActionCreateFweet       = "create_fweet"
	ActionLikeFweet         = "like_fweet"
	ActionRefweet           = "refweet"
	ActionComment           = "comment"
	ActionGetFweets         = "get_fweets"
	ActionGetFweetsByTag    = "get_fweets_by_tag"
	ActionGetFweetsByAuthor = "get_fweets_by_author"
	ActionSearch            = "search"
)

// GlobalIdentity is the shared ledger identity for quotas that apply to all
// callers together, such as registration throttling.
const GlobalIdentity = "global"

var (
	// ErrRateLimitExceeded aborts the enclosing transaction; callers
	// surface it and never retry automatically.
	ErrRateLimitExceeded = errors.New("rate limiting exceeded for this user/action")
)

// Quota is the admission budget for one action: Calls admissions per
// Window. Window 0 disables time decay: capacity never refills by waiting
// and only a ledger reset (the login-success path) restores it.
type Quota struct {
	Calls  int
	Window time.Duration
}

func defaultQuotas() map[string]Quota {
	return map[string]Quota{
		ActionGetFweets:         {Calls: 5, Window: 60 * time.Second},
		ActionGetFweetsByTag:    {Calls: 5, Window: 60 * time.Second},
		ActionGetFweetsByAuthor: {Calls: 5, Window: 60 * time.Second},
		// one fweet a minute please (5 per 5 minutes)
		ActionCreateFweet: {Calls: 5, Window: 300 * time.Second},
		// login is reset by a successful login
		ActionLogin: {Calls: 3, Window: 0},
		// a global register limit to protect against bots creating many users
		ActionRegister:  {Calls: 10, Window: 10 * time.Second},
		ActionLikeFweet: {Calls: 60, Window: 60 * time.Second},
		ActionRefweet:   {Calls: 30, Window: 60 * time.Second},
		ActionComment:   {Calls: 30, Window: 60 * time.Second},
		ActionSearch:    {Calls: 30, Window: 60 * time.Second},
	}
}

// Limiter evaluates quotas against the rate_limiting ledger.
type Limiter struct {
	quotas map[string]Quota
	logger *zap.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter with the default quotas, applying any
// per-action overrides from configuration.
func NewLimiter(overrides map[string]config.QuotaConfig, logger *zap.Logger) *Limiter {
	quotas := defaultQuotas()
	for action, q := range overrides {
		quotas[action] = Quota{
			Calls:  q.Calls,
			Window: time.Duration(q.WindowMs) * time.Millisecond,
		}
	}
	return &Limiter{
		quotas: quotas,
		logger: logger,
		now:    time.Now,
	}
}

// QuotaFor returns the configured quota for an action.
func (l *Limiter) QuotaFor(action string) (Quota, error) {
	q, ok := l.quotas[action]
	if !ok {
		return Quota{}, fmt.Errorf("no rate limiting configuration defined for %s", action)
	}
	return q, nil
}

// allow is the pure admission decision. events holds the timestamps of the
// newest quota.Calls ledger rows, newest first. The call is admitted when
// there is still headroom in the ledger, or when the window has decayed the
// oldest of those rows.
func allow(events []time.Time, q Quota, now time.Time) bool {
	if len(events) < q.Calls {
		return true
	}
	// A non-positive call budget admits nothing; there is no oldest event
	// to decay.
	if len(events) == 0 {
		return false
	}
	if q.Window > 0 {
		oldest := events[len(events)-1]
		if now.Sub(oldest) >= q.Window {
			return true
		}
	}
	return false
}

// Admit checks the quota for (action, identity) and records the admission
// in the ledger. It must run inside the same transaction as the guarded
// operation; on ErrRateLimitExceeded the caller's transaction aborts and
// the recorded row is discarded with it.
func (l *Limiter) Admit(ctx context.Context, tx *gorm.DB, action, identity string, q Quota) error {
	var rows []models.RateLimitEvent
	err := tx.WithContext(ctx).
		Where("action = ? AND identity = ?", action, identity).
		Order("created_at DESC").
		Limit(q.Calls).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to read rate limit ledger: %w", err)
	}

	events := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.CreatedAt)
	}

	if !allow(events, q, l.now()) {
		l.logger.Debug("Rate limit exceeded",
			zap.String("action", action),
			zap.String("identity", identity),
			zap.Int("calls", q.Calls))
		return ErrRateLimitExceeded
	}

	event := &models.RateLimitEvent{
		Ref:       uuid.New(),
		Action:    action,
		Identity:  identity,
		CreatedAt: l.now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record rate limit event: %w", err)
	}
	return nil
}

// Wrap decorates inner with the admission check for action using its
// configured quota. The inner op only runs when the call is admitted.
func (l *Limiter) Wrap(ctx context.Context, action, identity string, inner txn.Op) txn.Op {
	return func(tx *gorm.DB) error {
		q, err := l.QuotaFor(action)
		if err != nil {
			return err
		}
		if err := l.Admit(ctx, tx, action, identity, q); err != nil {
			return err
		}
		return inner(tx)
	}
}

// WrapWithQuota is Wrap with an explicit quota instead of the configured
// default.
func (l *Limiter) WrapWithQuota(ctx context.Context, action, identity string, q Quota, inner txn.Op) txn.Op {
	return func(tx *gorm.DB) error {
		if err := l.Admit(ctx, tx, action, identity, q); err != nil {
			return err
		}
		return inner(tx)
	}
}

// Reset deletes the ledger for (action, identity). A successful login uses
// this so only failed attempts count toward the login quota.
func (l *Limiter) Reset(ctx context.Context, tx *gorm.DB, action, identity string) error {
	err := tx.WithContext(ctx).
		Where("action = ? AND identity = ?", action, identity).
		Delete(&models.RateLimitEvent{}).Error
	if err != nil {
		return fmt.Errorf("failed to reset rate limit ledger: %w", err)
	}
	return nil
}
