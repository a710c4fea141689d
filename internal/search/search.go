// Package search implements fuzzy prefix search over user and hashtag
// names. Names are exploded into wordparts at write time, so a query is a
// single exact-match lookup; shorter full names sort first, which makes an
// exact hit outrank the names that merely contain the keyword.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fauna-labs/fwitter/internal/cache"
	"github.com/fauna-labs/fwitter/internal/db"
	"github.com/fauna-labs/fwitter/internal/models"
)

// MaxResults caps one search query.
const MaxResults = 10

// minPartLength keeps the index from exploding on long names: only
// substrings within 9 characters of the full length are indexed, so a
// query still matches as long as it covers most of the name.
const minPartOffset = 9

const cacheTTL = 60 * time.Second

// Result is one search hit, either a user or a hashtag.
type Result struct {
	Type string          `json:"type"`
	User *models.User    `json:"user,omitempty"`
	Tag  *models.Hashtag `json:"tag,omitempty"`
}

// WordParts returns every contiguous substring of the lowercased name with
// a length in [max(1, len-9), len], deduplicated. The full name is always
// among them.
func WordParts(name string) []string {
	lowered := strings.ToLower(name)
	runes := []rune(lowered)
	n := len(runes)
	if n == 0 {
		return nil
	}

	min := n - minPartOffset
	if min < 1 {
		min = 1
	}

	seen := make(map[string]struct{})
	parts := make([]string, 0, n*minPartOffset)
	for length := min; length <= n; length++ {
		for start := 0; start+length <= n; start++ {
			part := string(runes[start : start+length])
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			parts = append(parts, part)
		}
	}
	return parts
}

// TermsForUser builds the index rows for a user's display name.
func TermsForUser(user *models.User) []models.SearchTerm {
	return terms(user.Name, user.Ref, models.SearchEntityUser)
}

// TermsForTag builds the index rows for a hashtag.
func TermsForTag(tag *models.Hashtag) []models.SearchTerm {
	return terms(tag.Name, tag.Ref, models.SearchEntityTag)
}

func terms(name string, ref uuid.UUID, entityType string) []models.SearchTerm {
	parts := WordParts(name)
	rows := make([]models.SearchTerm, 0, len(parts))
	length := len([]rune(strings.ToLower(name)))
	for _, part := range parts {
		rows = append(rows, models.SearchTerm{
			Term:       part,
			EntityRef:  ref,
			EntityType: entityType,
			Length:     length,
		})
	}
	return rows
}

// Searcher executes search queries, with an optional redis read-through.
type Searcher struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewSearcher creates a new searcher
func NewSearcher(c *cache.Cache, logger *zap.Logger) *Searcher {
	return &Searcher{cache: c, logger: logger}
}

// Search looks up the keyword in the wordpart index and resolves the hits
// to their users and hashtags, best match first.
func (s *Searcher) Search(ctx context.Context, tx *gorm.DB, keyword string) ([]Result, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []Result{}, nil
	}

	cacheKey := "search:" + cache.HashKey(keyword)
	var cached []Result
	if err := s.cache.GetJSON(cacheKey, &cached); err == nil {
		return cached, nil
	} else if !cache.IsMiss(err) && err != cache.ErrCacheDisabled {
		s.logger.Warn("Search cache read failed", zap.Error(err))
	}

	repo := db.NewRepository(tx)
	termRepo := db.NewSearchTermRepository(repo)
	userRepo := db.NewUserRepository(repo)
	tagRepo := db.NewHashtagRepository(repo)

	rows, err := termRepo.Query(ctx, keyword, MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query search index: %w", err)
	}

	var userRefs, tagRefs []uuid.UUID
	for _, row := range rows {
		switch row.EntityType {
		case models.SearchEntityUser:
			userRefs = append(userRefs, row.EntityRef)
		case models.SearchEntityTag:
			tagRefs = append(tagRefs, row.EntityRef)
		}
	}

	users, err := userRepo.GetByRefs(ctx, userRefs)
	if err != nil {
		return nil, err
	}
	tags, err := tagRepo.GetByRefs(ctx, tagRefs)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		switch row.EntityType {
		case models.SearchEntityUser:
			if u := users[row.EntityRef]; u != nil {
				results = append(results, Result{Type: models.SearchEntityUser, User: u})
			}
		case models.SearchEntityTag:
			if t := tags[row.EntityRef]; t != nil {
				results = append(results, Result{Type: models.SearchEntityTag, Tag: t})
			}
		}
	}

	if err := s.cache.SetJSON(cacheKey, results, cacheTTL); err != nil && err != cache.ErrCacheDisabled {
		s.logger.Warn("Search cache write failed", zap.Error(err))
	}

	return results, nil
}
