// Package service composes the domain operations. Every operation builds
// its work as a transactional op, lets the rate limiter wrap it and runs
// the result in a single serializable transaction, so admission checks,
// counter updates and reads all commit or abort together.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fauna-labs/fwitter/internal/auth"
	"github.com/fauna-labs/fwitter/internal/cache"
	"github.com/fauna-labs/fwitter/internal/db"
	"github.com/fauna-labs/fwitter/internal/feed"
	"github.com/fauna-labs/fwitter/internal/models"
	"github.com/fauna-labs/fwitter/internal/ratelimit"
	"github.com/fauna-labs/fwitter/internal/search"
	"github.com/fauna-labs/fwitter/internal/stats"
	"github.com/fauna-labs/fwitter/internal/txn"
	"github.com/fauna-labs/fwitter/pkg/config"
)

var (
	// ErrEmailTaken reports a registration against an existing email.
	ErrEmailTaken = errors.New("an account with this e-mail already exists")

	// ErrAliasTaken reports a registration against an existing alias.
	ErrAliasTaken = errors.New("a user with this alias already exists")

	// ErrEmptyMessage rejects fweets and comments without content.
	ErrEmptyMessage = errors.New("message must not be empty")
)

// hashtagPattern extracts tags from a message body. Tags are at least two
// word characters and the leading '#' is stripped before storage.
var hashtagPattern = regexp.MustCompile(`\B#\w\w+\b`)

// ExtractHashtags returns the deduplicated tag names in a message, without
// their '#' prefix.
func ExtractHashtags(message string) []string {
	matches := hashtagPattern.FindAllString(message, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimPrefix(m, "#")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}

// Service exposes the application operations.
type Service struct {
	db        *db.DB
	limiter   *ratelimit.Limiter
	engine    *stats.Engine
	assembler *feed.Assembler
	searcher  *search.Searcher
	sessions  *auth.Sessions
	logger    *zap.Logger
}

// New creates the service and its collaborators from configuration.
func New(database *db.DB, c *cache.Cache, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		db:      database,
		limiter: ratelimit.NewLimiter(cfg.RateLimits, logger),
		engine:  stats.NewEngine(logger),
		assembler: feed.NewAssembler(
			cfg.Feed.PageSize,
			cfg.Feed.AuthorsPerHome,
			cfg.Feed.FweetsPerAuthor,
			cfg.Feed.MaxRefweetDepth,
			logger,
		),
		searcher: search.NewSearcher(c, logger),
		sessions: auth.NewSessions(c, cfg.Session.TTL),
		logger:   logger,
	}
}

// Sessions exposes the session store, mainly for the HTTP middleware.
func (s *Service) Sessions() *auth.Sessions {
	return s.sessions
}

// Register creates an account with its profile, makes the user follow
// themselves so their own fweets show up in their home feed, indexes the
// display name for search and issues a session. Registration is throttled
// globally, not per caller.
func (s *Service) Register(ctx context.Context, email, password, name, alias, icon string) (string, *models.User, error) {
	if err := auth.ValidateEmail(email); err != nil {
		return "", nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return "", nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", nil, err
	}

	user := &models.User{
		Ref:       uuid.New(),
		Name:      name,
		Alias:     alias,
		Icon:      icon,
		CreatedAt: time.Now().UTC(),
	}

	account := &models.Account{
		Ref:          uuid.New(),
		Email:        email,
		PasswordHash: hash,
		UserRef:      user.Ref,
		CreatedAt:    time.Now().UTC(),
	}

	op := func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		users := db.NewUserRepository(repo)
		accounts := db.NewAccountRepository(repo)
		followerStats := db.NewFollowerStatsRepository(repo)
		terms := db.NewSearchTermRepository(repo)

		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAliasTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := accounts.Create(ctx, account); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		// Self-follow so the user's own posts rank in their home feed
		err := followerStats.Create(ctx, &models.FollowerStats{
			Ref:         uuid.New(),
			AuthorRef:   user.Ref,
			FollowerRef: user.Ref,
			Created:     time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to create self-follow: %w", err)
		}

		if err := terms.ReplaceForEntity(ctx, user.Ref, search.TermsForUser(user)); err != nil {
			return fmt.Errorf("failed to index user name: %w", err)
		}
		return nil
	}

	err = s.db.RunInTransaction(ctx, s.limiter.Wrap(ctx, ratelimit.ActionRegister, ratelimit.GlobalIdentity, op))
	if err != nil {
		return "", nil, err
	}

	secret, err := s.sessions.Issue(account.Ref, user.Ref)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("Registered user", zap.String("alias", alias))
	return secret, user, nil
}

// Login verifies credentials under the login quota. A failed attempt
// still commits its admission event, so repeated failures exhaust the
// budget; a successful login clears the ledger, so only failures count.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var (
		account  *models.Account
		user     *models.User
		loginErr error
	)

	op := func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		accounts := db.NewAccountRepository(repo)
		users := db.NewUserRepository(repo)

		var err error
		account, err = accounts.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if account == nil {
			// Commit anyway: the admission event must survive the failure.
			loginErr = auth.ErrInvalidCredentials
			return nil
		}
		if err := auth.CheckPassword(account.PasswordHash, password); err != nil {
			loginErr = err
			return nil
		}

		user, err = users.GetByRef(ctx, account.UserRef)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("account %s has no user", account.Ref)
		}
		return s.limiter.Reset(ctx, tx, ratelimit.ActionLogin, email)
	}

	err := s.db.RunInTransaction(ctx, s.limiter.Wrap(ctx, ratelimit.ActionLogin, email, op))
	if err != nil {
		return "", nil, err
	}
	if loginErr != nil {
		return "", nil, loginErr
	}

	secret, err := s.sessions.Issue(account.Ref, user.Ref)
	if err != nil {
		return "", nil, err
	}
	return secret, user, nil
}

// Logout revokes the session.
func (s *Service) Logout(_ context.Context, secret string) error {
	return s.sessions.Revoke(secret)
}

// CreateFweet posts a new fweet, creating any hashtags it mentions and
// indexing new tags for search.
func (s *Service) CreateFweet(ctx context.Context, session *auth.Session, message, assetID, assetType string) (*feed.FweetView, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var view *feed.FweetView
	op := func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		fweets := db.NewFweetRepository(repo)

		tagRefs, err := s.ensureHashtags(ctx, tx, ExtractHashtags(message))
		if err != nil {
			return err
		}

		fweet := &models.Fweet{
			Ref:       uuid.New(),
			Message:   message,
			AuthorRef: session.UserRef,
			AssetID:   assetID,
			AssetType: assetType,
			Created:   time.Now().UTC(),
		}
		if err := fweets.Create(ctx, fweet); err != nil {
			return fmt.Errorf("failed to create fweet: %w", err)
		}
		if err := fweets.LinkHashtags(ctx, fweet.Ref, tagRefs); err != nil {
			return fmt.Errorf("failed to link hashtags: %w", err)
		}

		view, err = s.enrichOne(ctx, tx, fweet.Ref, session.UserRef)
		return err
	}

	err := s.db.RunInTransaction(ctx,
		s.limiter.Wrap(ctx, ratelimit.ActionCreateFweet, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Like toggles the caller's like on a fweet and returns the updated view.
func (s *Service) Like(ctx context.Context, session *auth.Session, fweetRef uuid.UUID) (*feed.FweetView, error) {
	var view *feed.FweetView
	op := func(tx *gorm.DB) error {
		if err := s.engine.Like(ctx, tx, session.UserRef, fweetRef); err != nil {
			return err
		}
		var err error
		view, err = s.enrichOne(ctx, tx, fweetRef, session.UserRef)
		return err
	}

	err := s.db.RunInTransaction(ctx,
		s.limiter.Wrap(ctx, ratelimit.ActionLikeFweet, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RefweetResult carries both sides of a completed refweet: the new fweet
// and the original it re-shares, each enriched at full depth.
type RefweetResult struct {
	Refweet  *feed.FweetView `json:"refweet"`
	Original *feed.FweetView `json:"original"`
}

// Refweet re-shares a fweet with an accompanying message. Both the new
// refweet and the updated original come back as top-level views, so the
// original's own chain is never cut short by the refweet's nesting.
func (s *Service) Refweet(ctx context.Context, session *auth.Session, fweetRef uuid.UUID, message string) (*RefweetResult, error) {
	var result RefweetResult
	op := func(tx *gorm.DB) error {
		tagRefs, err := s.ensureHashtags(ctx, tx, ExtractHashtags(message))
		if err != nil {
			return err
		}

		newRef, err := s.engine.Refweet(ctx, tx, session.UserRef, fweetRef, message, tagRefs)
		if err != nil {
			return err
		}
		if result.Refweet, err = s.enrichOne(ctx, tx, newRef, session.UserRef); err != nil {
			return err
		}
		result.Original, err = s.enrichOne(ctx, tx, fweetRef, session.UserRef)
		return err
	}

	err := s.db.RunInTransaction(ctx,
		s.limiter.Wrap(ctx, ratelimit.ActionRefweet, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CommentFweet attaches a comment and returns the updated fweet view.
func (s *Service) CommentFweet(ctx context.Context, session *auth.Session, fweetRef uuid.UUID, message string) (*feed.FweetView, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var view *feed.FweetView
	op := func(tx *gorm.DB) error {
		if _, err := s.engine.Comment(ctx, tx, session.UserRef, fweetRef, message); err != nil {
			return err
		}
		var err error
		view, err = s.enrichOne(ctx, tx, fweetRef, session.UserRef)
		return err
	}

	err := s.db.RunInTransaction(ctx,
		s.limiter.Wrap(ctx, ratelimit.ActionComment, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Follow toggles the follow relationship with an author. Following starts
// a fresh popularity ledger; unfollowing discards it.
func (s *Service) Follow(ctx context.Context, session *auth.Session, authorRef uuid.UUID) (following bool, err error) {
	err = s.db.RunInTransaction(ctx, func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		users := db.NewUserRepository(repo)
		followerStats := db.NewFollowerStatsRepository(repo)

		author, err := users.GetByRef(ctx, authorRef)
		if err != nil {
			return err
		}
		if author == nil {
			return fmt.Errorf("author %s: %w", authorRef, feed.ErrUserNotFound)
		}

		row, err := followerStats.GetByAuthorAndFollower(ctx, authorRef, session.UserRef)
		if err != nil {
			return err
		}
		if row != nil {
			following = false
			return followerStats.Delete(ctx, row.Ref)
		}
		following = true
		return followerStats.Create(ctx, &models.FollowerStats{
			Ref:         uuid.New(),
			AuthorRef:   authorRef,
			FollowerRef: session.UserRef,
			Created:     time.Now().UTC(),
		})
	})
	return following, err
}

// UpdateProfile changes the caller's display name and icon and reindexes
// the name for search. The alias is immutable.
func (s *Service) UpdateProfile(ctx context.Context, session *auth.Session, name, icon string) (*models.User, error) {
	var user *models.User
	err := s.db.RunInTransaction(ctx, func(tx *gorm.DB) error {
		repo := db.NewRepository(tx)
		users := db.NewUserRepository(repo)
		terms := db.NewSearchTermRepository(repo)

		var err error
		user, err = users.GetByRef(ctx, session.UserRef)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %s: %w", session.UserRef, feed.ErrUserNotFound)
		}

		renamed := name != "" && name != user.Name
		if renamed {
			user.Name = name
		}
		if icon != "" {
			user.Icon = icon
		}
		if err := users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if renamed {
			return terms.ReplaceForEntity(ctx, user.Ref, search.TermsForUser(user))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Feed kinds accepted by GetFeed.
const (
	FeedHome   = "home"
	FeedTag    = "tag"
	FeedAuthor = "author"
)

// ErrUnknownFeed reports an unrecognized feed kind.
var ErrUnknownFeed = errors.New("unknown feed kind")

// GetFeed assembles a feed page. Kind selects the producer: the caller's
// home feed, a hashtag feed (param is the tag name) or an author feed
// (param is the alias). Each kind has its own read quota.
func (s *Service) GetFeed(ctx context.Context, session *auth.Session, kind, param string) ([]*feed.FweetView, error) {
	var (
		action string
		views  []*feed.FweetView
	)

	var op txn.Op
	switch kind {
	case FeedHome:
		action = ratelimit.ActionGetFweets
		op = func(tx *gorm.DB) error {
			var err error
			views, err = s.assembler.Home(ctx, tx, session.UserRef)
			return err
		}
	case FeedTag:
		action = ratelimit.ActionGetFweetsByTag
		op = func(tx *gorm.DB) error {
			var err error
			views, err = s.assembler.Tag(ctx, tx, session.UserRef, param)
			return err
		}
	case FeedAuthor:
		action = ratelimit.ActionGetFweetsByAuthor
		op = func(tx *gorm.DB) error {
			var err error
			views, err = s.assembler.Author(ctx, tx, session.UserRef, param)
			return err
		}
	default:
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownFeed)
	}

	err := s.db.RunInTransaction(ctx, s.limiter.Wrap(ctx, action, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return views, nil
}

// Search runs a keyword search under the caller's search quota.
func (s *Service) Search(ctx context.Context, session *auth.Session, keyword string) ([]search.Result, error) {
	var results []search.Result
	op := func(tx *gorm.DB) error {
		var err error
		results, err = s.searcher.Search(ctx, tx, keyword)
		return err
	}

	err := s.db.RunInTransaction(ctx,
		s.limiter.Wrap(ctx, ratelimit.ActionSearch, session.UserRef.String(), op))
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ensureHashtags resolves tag names to refs, creating missing tags and
// their search index rows. A concurrent create of the same tag loses the
// unique-index race and falls back to reading the winner's row.
func (s *Service) ensureHashtags(ctx context.Context, tx *gorm.DB, names []string) ([]uuid.UUID, error) {
	repo := db.NewRepository(tx)
	hashtags := db.NewHashtagRepository(repo)
	terms := db.NewSearchTermRepository(repo)

	refs := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		tag := &models.Hashtag{
			Ref:       uuid.New(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		inserted, err := hashtags.CreateIfAbsent(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("failed to create hashtag: %w", err)
		}
		if inserted {
			if err := terms.ReplaceForEntity(ctx, tag.Ref, search.TermsForTag(tag)); err != nil {
				return nil, fmt.Errorf("failed to index hashtag: %w", err)
			}
		} else {
			tag, err = hashtags.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if tag == nil {
				return nil, fmt.Errorf("hashtag %q not readable after conflicting insert", name)
			}
		}
		refs = append(refs, tag.Ref)
	}
	return refs, nil
}

// enrichOne returns the enriched view of a single fweet.
func (s *Service) enrichOne(ctx context.Context, tx *gorm.DB, ref, viewerRef uuid.UUID) (*feed.FweetView, error) {
	view, err := s.assembler.One(ctx, tx, ref, viewerRef)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("fweet %s: %w", ref, stats.ErrFweetNotFound)
	}
	return view, nil
}
