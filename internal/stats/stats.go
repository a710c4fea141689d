// Package stats keeps the denormalized interaction counters consistent.
// Every method mutates Fweet counters, the per-(user, fweet) FweetStats row
// and the per-(author, follower) FollowerStats row together, and must
// therefore run inside the caller's transaction.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fauna-labs/fwitter/internal/db"
	"github.com/fauna-labs/fwitter/internal/models"
)

var (
	// ErrAlreadyRefweeted rejects a second refweet of the same fweet by
	// the same user. Refweets cannot be undone, so there is no toggle.
	ErrAlreadyRefweeted = errors.New("already refweeted")

	// ErrFweetNotFound reports an interaction against a missing fweet.
	ErrFweetNotFound = errors.New("fweet not found")
)

// Engine applies interaction updates.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new stats engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// nextLikeStatus decides the toggle: no row yet means the first
// interaction is a like. The delta is applied to both the fweet counter
// and, when the liker follows the author, the follower popularity counter.
func nextLikeStatus(row *models.FweetStats) (liked bool, delta int) {
	liked = true
	if row != nil {
		liked = !row.Like
	}
	if liked {
		return liked, 1
	}
	return liked, -1
}

// refweetable reports whether a user with this stats row may still
// refweet the fweet. Unlike likes there is no toggle back: one refweet
// per (user, fweet), ever.
func refweetable(row *models.FweetStats) bool {
	return row == nil || !row.Refweet
}

// Like toggles the acting user's like on a fweet.
func (e *Engine) Like(ctx context.Context, tx *gorm.DB, userRef, fweetRef uuid.UUID) error {
	repo := db.NewRepository(tx)
	fweets := db.NewFweetRepository(repo)
	fweetStats := db.NewFweetStatsRepository(repo)
	followerStats := db.NewFollowerStatsRepository(repo)

	fweet, err := fweets.GetByRef(ctx, fweetRef)
	if err != nil {
		return err
	}
	if fweet == nil {
		return fmt.Errorf("like %s: %w", fweetRef, ErrFweetNotFound)
	}

	row, err := fweetStats.GetByUserAndFweet(ctx, userRef, fweetRef)
	if err != nil {
		return err
	}
	liked, delta := nextLikeStatus(row)

	// Counter update as an expression so concurrent transactions serialize
	// on the row instead of clobbering each other's values.
	err = tx.WithContext(ctx).Model(&models.Fweet{}).
		Where("ref = ?", fweetRef).
		UpdateColumn("likes", gorm.Expr("likes + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to update like counter: %w", err)
	}

	if row == nil {
		row = &models.FweetStats{
			Ref:      uuid.New(),
			UserRef:  userRef,
			FweetRef: fweetRef,
			Like:     liked,
		}
		if err := fweetStats.Create(ctx, row); err != nil {
			return fmt.Errorf("failed to create fweetstats: %w", err)
		}
	} else {
		row.Like = liked
		if err := fweetStats.Update(ctx, row); err != nil {
			return fmt.Errorf("failed to update fweetstats: %w", err)
		}
	}

	// Popularity is only tracked for authors the user actually follows;
	// no row is created for likers outside the follow graph.
	follower, err := followerStats.GetByAuthorAndFollower(ctx, fweet.AuthorRef, userRef)
	if err != nil {
		return err
	}
	if follower != nil {
		err = tx.WithContext(ctx).Model(&models.FollowerStats{}).
			Where("ref = ?", follower.Ref).
			UpdateColumn("post_likes", gorm.Expr("post_likes + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("failed to update follower popularity: %w", err)
		}
	}

	e.logger.Debug("Processed like",
		zap.String("user", userRef.String()),
		zap.String("fweet", fweetRef.String()),
		zap.Bool("liked", liked))

	return nil
}

// Refweet re-shares a fweet: a one-shot operation, never a toggle. It
// creates the new fweet carrying the original's ref and bumps the
// original's counter. The returned ref identifies the new refweet.
func (e *Engine) Refweet(ctx context.Context, tx *gorm.DB, userRef, fweetRef uuid.UUID, message string, hashtagRefs []uuid.UUID) (uuid.UUID, error) {
	repo := db.NewRepository(tx)
	fweets := db.NewFweetRepository(repo)
	fweetStats := db.NewFweetStatsRepository(repo)
	followerStats := db.NewFollowerStatsRepository(repo)

	original, err := fweets.GetByRef(ctx, fweetRef)
	if err != nil {
		return uuid.Nil, err
	}
	if original == nil {
		return uuid.Nil, fmt.Errorf("refweet %s: %w", fweetRef, ErrFweetNotFound)
	}

	row, err := fweetStats.GetByUserAndFweet(ctx, userRef, fweetRef)
	if err != nil {
		return uuid.Nil, err
	}
	if !refweetable(row) {
		return uuid.Nil, ErrAlreadyRefweeted
	}

	if row == nil {
		row = &models.FweetStats{
			Ref:      uuid.New(),
			UserRef:  userRef,
			FweetRef: fweetRef,
			Refweet:  true,
		}
		if err := fweetStats.Create(ctx, row); err != nil {
			return uuid.Nil, fmt.Errorf("failed to create fweetstats: %w", err)
		}
	} else {
		row.Refweet = true
		if err := fweetStats.Update(ctx, row); err != nil {
			return uuid.Nil, fmt.Errorf("failed to update fweetstats: %w", err)
		}
	}

	refweet := &models.Fweet{
		Ref:         uuid.New(),
		Message:     message,
		AuthorRef:   userRef, // author of the refweet, not of the original
		OriginalRef: &fweetRef,
		Created:     time.Now().UTC(),
	}
	if err := fweets.Create(ctx, refweet); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create refweet: %w", err)
	}
	if err := fweets.LinkHashtags(ctx, refweet.Ref, hashtagRefs); err != nil {
		return uuid.Nil, fmt.Errorf("failed to link refweet hashtags: %w", err)
	}

	err = tx.WithContext(ctx).Model(&models.Fweet{}).
		Where("ref = ?", fweetRef).
		UpdateColumn("refweets", gorm.Expr("refweets + 1")).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to update refweet counter: %w", err)
	}

	// Refweets cannot be undone, so the popularity counter only grows.
	follower, err := followerStats.GetByAuthorAndFollower(ctx, original.AuthorRef, userRef)
	if err != nil {
		return uuid.Nil, err
	}
	if follower != nil {
		err = tx.WithContext(ctx).Model(&models.FollowerStats{}).
			Where("ref = ?", follower.Ref).
			UpdateColumn("post_refweets", gorm.Expr("post_refweets + 1")).Error
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to update follower popularity: %w", err)
		}
	}

	e.logger.Debug("Processed refweet",
		zap.String("user", userRef.String()),
		zap.String("original", fweetRef.String()),
		zap.String("refweet", refweet.Ref.String()))

	return refweet.Ref, nil
}

// Comment attaches a comment to a fweet. Comments are per-event: the
// fweet's counter tracks total comments, while the FweetStats flag only
// records that this user commented at least once.
func (e *Engine) Comment(ctx context.Context, tx *gorm.DB, userRef, fweetRef uuid.UUID, message string) (uuid.UUID, error) {
	repo := db.NewRepository(tx)
	fweets := db.NewFweetRepository(repo)
	fweetStats := db.NewFweetStatsRepository(repo)
	comments := db.NewCommentRepository(repo)

	fweet, err := fweets.GetByRef(ctx, fweetRef)
	if err != nil {
		return uuid.Nil, err
	}
	if fweet == nil {
		return uuid.Nil, fmt.Errorf("comment %s: %w", fweetRef, ErrFweetNotFound)
	}

	row, err := fweetStats.GetByUserAndFweet(ctx, userRef, fweetRef)
	if err != nil {
		return uuid.Nil, err
	}
	if row == nil {
		row = &models.FweetStats{
			Ref:      uuid.New(),
			UserRef:  userRef,
			FweetRef: fweetRef,
			Comment:  true,
		}
		if err := fweetStats.Create(ctx, row); err != nil {
			return uuid.Nil, fmt.Errorf("failed to create fweetstats: %w", err)
		}
	} else if !row.Comment {
		row.Comment = true
		if err := fweetStats.Update(ctx, row); err != nil {
			return uuid.Nil, fmt.Errorf("failed to update fweetstats: %w", err)
		}
	}

	comment := &models.Comment{
		Ref:       uuid.New(),
		Message:   message,
		AuthorRef: userRef,
		FweetRef:  fweetRef,
		Created:   time.Now().UTC(),
	}
	if err := comments.Create(ctx, comment); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create comment: %w", err)
	}

	err = tx.WithContext(ctx).Model(&models.Fweet{}).
		Where("ref = ?", fweetRef).
		UpdateColumn("comments", gorm.Expr("comments + 1")).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to update comment counter: %w", err)
	}

	return comment.Ref, nil
}
