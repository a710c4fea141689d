package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fauna-labs/fwitter/internal/models"
	"github.com/fauna-labs/fwitter/internal/rank"
)

// Repository provides database access methods. It is bound to a *gorm.DB
// that may be a transaction handle, so all methods of repositories derived
// from it run inside that transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByRef retrieves an account by ref
func (r *AccountRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByRef retrieves a user by ref
func (r *UserRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByRefs retrieves multiple users keyed by ref
func (r *UserRepository) GetByRefs(ctx context.Context, refs []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).Where("ref IN ?", refs).Find(&users).Error; err != nil {
		return nil, err
	}
	byRef := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byRef[u.Ref] = u
	}
	return byRef, nil
}

// GetByAlias retrieves a user by alias
func (r *UserRepository) GetByAlias(ctx context.Context, alias string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("alias = ?", alias).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FweetRepository provides fweet-related database operations
type FweetRepository struct {
	*Repository
}

// NewFweetRepository creates a new fweet repository
func NewFweetRepository(repo *Repository) *FweetRepository {
	return &FweetRepository{Repository: repo}
}

// GetByRef retrieves a fweet by ref
func (r *FweetRepository) GetByRef(ctx context.Context, ref uuid.UUID) (*models.Fweet, error) {
	var fweet models.Fweet
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).First(&fweet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fweet, nil
}

// GetByRefs retrieves multiple fweets keyed by ref
func (r *FweetRepository) GetByRefs(ctx context.Context, refs []uuid.UUID) (map[uuid.UUID]*models.Fweet, error) {
	var fweets []*models.Fweet
	if err := r.db.WithContext(ctx).Where("ref IN ?", refs).Find(&fweets).Error; err != nil {
		return nil, err
	}
	byRef := make(map[uuid.UUID]*models.Fweet, len(fweets))
	for _, f := range fweets {
		byRef[f.Ref] = f
	}
	return byRef, nil
}

// Create creates a new fweet
func (r *FweetRepository) Create(ctx context.Context, fweet *models.Fweet) error {
	return r.db.WithContext(ctx).Create(fweet).Error
}

// LinkHashtags associates a fweet with its hashtags
func (r *FweetRepository) LinkHashtags(ctx context.Context, fweetRef uuid.UUID, hashtagRefs []uuid.UUID) error {
	if len(hashtagRefs) == 0 {
		return nil
	}
	links := make([]models.FweetHashtag, 0, len(hashtagRefs))
	for _, tagRef := range hashtagRefs {
		links = append(links, models.FweetHashtag{FweetRef: fweetRef, HashtagRef: tagRef})
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

// RefsByAuthor returns a page of an author's fweet refs, newest first
func (r *FweetRepository) RefsByAuthor(ctx context.Context, authorRef uuid.UUID, limit int) ([]uuid.UUID, error) {
	var refs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Fweet{}).
		Where("author_ref = ?", authorRef).
		Order("created DESC, ref").
		Limit(limit).
		Pluck("ref", &refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// RefsByTag returns a page of fweet refs carrying the hashtag, ordered by
// the decaying tag popularity score, highest first
func (r *FweetRepository) RefsByTag(ctx context.Context, hashtagRef uuid.UUID, limit int) ([]uuid.UUID, error) {
	var refs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Fweet{}).
		Joins("JOIN fweet_hashtags ON fweet_hashtags.fweet_ref = fweets.ref").
		Where("fweet_hashtags.hashtag_ref = ?", hashtagRef).
		Order(rank.TagScoreSQL + " DESC, fweets.ref").
		Limit(limit).
		Pluck("fweets.ref", &refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// FweetStatsRepository provides fweetstats-related database operations
type FweetStatsRepository struct {
	*Repository
}

// NewFweetStatsRepository creates a new fweetstats repository
func NewFweetStatsRepository(repo *Repository) *FweetStatsRepository {
	return &FweetStatsRepository{Repository: repo}
}

// GetByUserAndFweet retrieves the stats row for a (user, fweet) pair
func (r *FweetStatsRepository) GetByUserAndFweet(ctx context.Context, userRef, fweetRef uuid.UUID) (*models.FweetStats, error) {
	var stats models.FweetStats
	err := r.db.WithContext(ctx).
		Where("user_ref = ? AND fweet_ref = ?", userRef, fweetRef).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

// GetByUserAndFweets retrieves one user's stats rows for a set of fweets,
// keyed by fweet ref. Fweets the user never interacted with have no entry.
func (r *FweetStatsRepository) GetByUserAndFweets(ctx context.Context, userRef uuid.UUID, fweetRefs []uuid.UUID) (map[uuid.UUID]*models.FweetStats, error) {
	var rows []*models.FweetStats
	err := r.db.WithContext(ctx).
		Where("user_ref = ? AND fweet_ref IN ?", userRef, fweetRefs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byFweet := make(map[uuid.UUID]*models.FweetStats, len(rows))
	for _, row := range rows {
		byFweet[row.FweetRef] = row
	}
	return byFweet, nil
}

// Create creates a new stats row
func (r *FweetStatsRepository) Create(ctx context.Context, stats *models.FweetStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

// Update updates a stats row
func (r *FweetStatsRepository) Update(ctx context.Context, stats *models.FweetStats) error {
	return r.db.WithContext(ctx).Save(stats).Error
}

// FollowerStatsRepository provides followerstats-related database operations
type FollowerStatsRepository struct {
	*Repository
}

// NewFollowerStatsRepository creates a new followerstats repository
func NewFollowerStatsRepository(repo *Repository) *FollowerStatsRepository {
	return &FollowerStatsRepository{Repository: repo}
}

// GetByAuthorAndFollower retrieves the relationship row for an
// (author, follower) pair
func (r *FollowerStatsRepository) GetByAuthorAndFollower(ctx context.Context, authorRef, followerRef uuid.UUID) (*models.FollowerStats, error) {
	var stats models.FollowerStats
	err := r.db.WithContext(ctx).
		Where("author_ref = ? AND follower_ref = ?", authorRef, followerRef).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

// Create creates a new relationship row
func (r *FollowerStatsRepository) Create(ctx context.Context, stats *models.FollowerStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

// Delete removes a relationship row
func (r *FollowerStatsRepository) Delete(ctx context.Context, ref uuid.UUID) error {
	return r.db.WithContext(ctx).Where("ref = ?", ref).Delete(&models.FollowerStats{}).Error
}

// AuthorsByPopularity returns the refs of the authors a follower follows,
// ordered by the decaying follower popularity score, highest first
func (r *FollowerStatsRepository) AuthorsByPopularity(ctx context.Context, followerRef uuid.UUID, limit int) ([]uuid.UUID, error) {
	var refs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.FollowerStats{}).
		Where("follower_ref = ?", followerRef).
		Order(rank.FollowerScoreSQL + " DESC, followerstats.ref").
		Limit(limit).
		Pluck("author_ref", &refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByFweet returns a fweet's comments in chronological order
func (r *CommentRepository) ListByFweet(ctx context.Context, fweetRef uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("fweet_ref = ?", fweetRef).
		Order("created ASC, ref").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// ListByFweets returns the comments of a set of fweets grouped by fweet
// ref, each group in chronological order
func (r *CommentRepository) ListByFweets(ctx context.Context, fweetRefs []uuid.UUID) (map[uuid.UUID][]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("fweet_ref IN ?", fweetRefs).
		Order("created ASC, ref").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	byFweet := make(map[uuid.UUID][]*models.Comment)
	for _, c := range comments {
		byFweet[c.FweetRef] = append(byFweet[c.FweetRef], c)
	}
	return byFweet, nil
}

// HashtagRepository provides hashtag-related database operations
type HashtagRepository struct {
	*Repository
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(repo *Repository) *HashtagRepository {
	return &HashtagRepository{Repository: repo}
}

// GetByName retrieves a hashtag by name
func (r *HashtagRepository) GetByName(ctx context.Context, name string) (*models.Hashtag, error) {
	var tag models.Hashtag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetByRefs retrieves multiple hashtags keyed by ref
func (r *HashtagRepository) GetByRefs(ctx context.Context, refs []uuid.UUID) (map[uuid.UUID]*models.Hashtag, error) {
	var tags []*models.Hashtag
	if err := r.db.WithContext(ctx).Where("ref IN ?", refs).Find(&tags).Error; err != nil {
		return nil, err
	}
	byRef := make(map[uuid.UUID]*models.Hashtag, len(tags))
	for _, tag := range tags {
		byRef[tag.Ref] = tag
	}
	return byRef, nil
}

// Create creates a new hashtag
func (r *HashtagRepository) Create(ctx context.Context, tag *models.Hashtag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// CreateIfAbsent inserts the hashtag unless its name already exists and
// reports whether the row was inserted. The ON CONFLICT clause matters
// inside a transaction: a plain insert losing the unique-name race would
// poison the whole transaction, while DO NOTHING leaves it usable for the
// follow-up read of the winner's row.
func (r *HashtagRepository) CreateIfAbsent(ctx context.Context, tag *models.Hashtag) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(tag)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SearchTermRepository provides search index database operations
type SearchTermRepository struct {
	*Repository
}

// NewSearchTermRepository creates a new search term repository
func NewSearchTermRepository(repo *Repository) *SearchTermRepository {
	return &SearchTermRepository{Repository: repo}
}

// ReplaceForEntity atomically swaps an entity's index rows. Profile
// renames re-run this; tags are immutable so theirs is written once.
func (r *SearchTermRepository) ReplaceForEntity(ctx context.Context, entityRef uuid.UUID, terms []models.SearchTerm) error {
	err := r.db.WithContext(ctx).
		Where("entity_ref = ?", entityRef).
		Delete(&models.SearchTerm{}).Error
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&terms).Error
}

// Query returns the index rows exactly matching a term, shortest full
// names first with the entity ref as tiebreaker
func (r *SearchTermRepository) Query(ctx context.Context, term string, limit int) ([]models.SearchTerm, error) {
	var rows []models.SearchTerm
	err := r.db.WithContext(ctx).
		Where("term = ?", term).
		Order("length ASC, entity_ref").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
