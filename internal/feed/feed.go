// Package feed assembles pages of enriched fweets. An enrichment pass
// batch-loads authors, the viewer's own interaction flags and comments for
// a page of refs, then recursively enriches re-shared originals down to a
// configured depth.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fauna-labs/fwitter/internal/db"
	"github.com/fauna-labs/fwitter/internal/models"
)

var (
	// ErrTagNotFound reports a tag feed request for an unknown hashtag.
	ErrTagNotFound = errors.New("hashtag not found")

	// ErrUserNotFound reports an author feed request for an unknown alias.
	ErrUserNotFound = errors.New("user not found")
)

// CommentView is a comment together with its author's profile.
type CommentView struct {
	Comment *models.Comment `json:"comment"`
	User    *models.User    `json:"user"`
}

// FweetView is a fully enriched fweet. Stats carries the viewer's own
// flags and is the zero value when the viewer never interacted with the
// fweet. Original is set when the fweet re-shares another one and the
// recursion depth allowed loading it; OriginalTruncated marks the case
// where an original exists but the depth limit cut it off.
type FweetView struct {
	Fweet             *models.Fweet     `json:"fweet"`
	User              *models.User      `json:"user"`
	Original          *FweetView        `json:"original,omitempty"`
	OriginalTruncated bool              `json:"original_truncated,omitempty"`
	Stats             models.FweetStats `json:"fweet_stats"`
	Comments          []CommentView     `json:"comments"`
}

// Assembler produces enriched feed pages.
type Assembler struct {
	pageSize        int
	authorsPerHome  int
	fweetsPerAuthor int
	maxDepth        int
	logger          *zap.Logger
}

// NewAssembler creates a new feed assembler
func NewAssembler(pageSize, authorsPerHome, fweetsPerAuthor, maxDepth int, logger *zap.Logger) *Assembler {
	return &Assembler{
		pageSize:        pageSize,
		authorsPerHome:  authorsPerHome,
		fweetsPerAuthor: fweetsPerAuthor,
		maxDepth:        maxDepth,
		logger:          logger,
	}
}

// Home assembles the viewer's home feed: fweets from the most popular
// authors the viewer follows, authors ordered by popularity score and each
// author's fweets newest first.
func (a *Assembler) Home(ctx context.Context, tx *gorm.DB, viewerRef uuid.UUID) ([]*FweetView, error) {
	repo := db.NewRepository(tx)
	followerStats := db.NewFollowerStatsRepository(repo)
	fweets := db.NewFweetRepository(repo)

	authors, err := followerStats.AuthorsByPopularity(ctx, viewerRef, a.authorsPerHome)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed authors: %w", err)
	}

	refs := make([]uuid.UUID, 0, len(authors)*a.fweetsPerAuthor)
	for _, authorRef := range authors {
		page, err := fweets.RefsByAuthor(ctx, authorRef, a.fweetsPerAuthor)
		if err != nil {
			return nil, fmt.Errorf("failed to load author fweets: %w", err)
		}
		refs = append(refs, page...)
	}

	return a.Enrich(ctx, tx, refs, viewerRef, a.maxDepth)
}

// Tag assembles the feed for a hashtag, ordered by tag popularity score.
func (a *Assembler) Tag(ctx context.Context, tx *gorm.DB, viewerRef uuid.UUID, tagName string) ([]*FweetView, error) {
	repo := db.NewRepository(tx)
	hashtags := db.NewHashtagRepository(repo)
	fweets := db.NewFweetRepository(repo)

	tag, err := hashtags.GetByName(ctx, tagName)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, fmt.Errorf("tag %q: %w", tagName, ErrTagNotFound)
	}

	refs, err := fweets.RefsByTag(ctx, tag.Ref, a.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag fweets: %w", err)
	}
	return a.Enrich(ctx, tx, refs, viewerRef, a.maxDepth)
}

// Author assembles one author's feed by alias, newest first.
func (a *Assembler) Author(ctx context.Context, tx *gorm.DB, viewerRef uuid.UUID, alias string) ([]*FweetView, error) {
	repo := db.NewRepository(tx)
	users := db.NewUserRepository(repo)
	fweets := db.NewFweetRepository(repo)

	author, err := users.GetByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("alias %q: %w", alias, ErrUserNotFound)
	}

	refs, err := fweets.RefsByAuthor(ctx, author.Ref, a.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load author fweets: %w", err)
	}
	return a.Enrich(ctx, tx, refs, viewerRef, a.maxDepth)
}

// One enriches a single fweet at the configured depth. It returns nil when
// the ref resolves to nothing.
func (a *Assembler) One(ctx context.Context, tx *gorm.DB, ref uuid.UUID, viewerRef uuid.UUID) (*FweetView, error) {
	views, err := a.Enrich(ctx, tx, []uuid.UUID{ref}, viewerRef, a.maxDepth)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return views[0], nil
}

// Enrich loads a page of fweets by ref, preserving the input order, and
// decorates each with its author, the viewer's stats flags, comments with
// their authors and, up to depth levels, the enriched original of a
// refweet. Refs that resolve to no fweet are skipped.
func (a *Assembler) Enrich(ctx context.Context, tx *gorm.DB, refs []uuid.UUID, viewerRef uuid.UUID, depth int) ([]*FweetView, error) {
	if len(refs) == 0 {
		return []*FweetView{}, nil
	}

	repo := db.NewRepository(tx)
	fweetRepo := db.NewFweetRepository(repo)
	userRepo := db.NewUserRepository(repo)
	statsRepo := db.NewFweetStatsRepository(repo)
	commentRepo := db.NewCommentRepository(repo)

	fweets, err := fweetRepo.GetByRefs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fweets: %w", err)
	}

	present := make([]uuid.UUID, 0, len(refs))
	authorRefs := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		f, ok := fweets[ref]
		if !ok {
			continue
		}
		present = append(present, ref)
		authorRefs = append(authorRefs, f.AuthorRef)
	}
	if len(present) == 0 {
		return []*FweetView{}, nil
	}

	stats, err := statsRepo.GetByUserAndFweets(ctx, viewerRef, present)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer stats: %w", err)
	}
	comments, err := commentRepo.ListByFweets(ctx, present)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	for _, group := range comments {
		for _, c := range group {
			authorRefs = append(authorRefs, c.AuthorRef)
		}
	}
	users, err := userRepo.GetByRefs(ctx, dedupe(authorRefs))
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	load := func(origRef uuid.UUID, remaining int) (*FweetView, error) {
		originals, err := a.Enrich(ctx, tx, []uuid.UUID{origRef}, viewerRef, remaining)
		if err != nil {
			return nil, err
		}
		if len(originals) == 0 {
			return nil, nil
		}
		return originals[0], nil
	}

	views := make([]*FweetView, 0, len(present))
	for _, ref := range present {
		view := buildView(fweets[ref], users, stats[ref], comments[ref])
		if err := attachOriginal(view, depth, load); err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// buildView composes one enriched view from preloaded rows. A nil stats
// row leaves the zero value, meaning the viewer never interacted with the
// fweet; comments keep the order they were loaded in.
func buildView(f *models.Fweet, users map[uuid.UUID]*models.User, stat *models.FweetStats, comments []*models.Comment) *FweetView {
	view := &FweetView{
		Fweet:    f,
		User:     users[f.AuthorRef],
		Comments: make([]CommentView, 0, len(comments)),
	}
	if stat != nil {
		view.Stats = *stat
	}
	for _, c := range comments {
		view.Comments = append(view.Comments, CommentView{Comment: c, User: users[c.AuthorRef]})
	}
	return view
}

// originalLoader resolves a re-shared original at the given remaining
// depth, returning nil when the ref resolves to nothing.
type originalLoader func(ref uuid.UUID, remaining int) (*FweetView, error)

// attachOriginal resolves the refweet chain for one view. With no depth
// left the chain is marked truncated instead of being loaded; a vanished
// original is reported the same way.
func attachOriginal(view *FweetView, depth int, load originalLoader) error {
	f := view.Fweet
	if !f.IsRefweet() {
		return nil
	}
	if depth <= 0 {
		view.OriginalTruncated = true
		return nil
	}
	original, err := load(*f.OriginalRef, depth-1)
	if err != nil {
		return err
	}
	if original == nil {
		// original was deleted out from under the refweet
		view.OriginalTruncated = true
		return nil
	}
	view.Original = original
	return nil
}

func dedupe(refs []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(refs))
	out := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
