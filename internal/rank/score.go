// Package rank computes the decaying popularity scores used to order
// feeds. A score is a weighted sum of interaction counters plus the age of
// the document in minutes since the unix epoch, so newer documents beat
// older ones with the same engagement and one like is traded off against
// one minute of age (at factor 1).
package rank

import (
	"time"
)

// Weight factors. For the follower score a like or refweet is worth one
// minute of age; tag feeds weigh engagement five times heavier because the
// reader has no follow relationship with the author.
const (
	FollowerLikesFactor    = 1
	FollowerRefweetsFactor = 1
	TagLikesFactor         = 5
	TagRefweetsFactor      = 5
	TagCommentsFactor      = 5
)

var epoch = time.Unix(0, 0).UTC()

// MinutesSinceEpoch is the age component shared by both scores.
func MinutesSinceEpoch(t time.Time) float64 {
	return t.Sub(epoch).Minutes()
}

// FollowerScore ranks an author for one particular follower, based on how
// often that follower liked or refweeted the author's posts and on how
// recently the follow relationship was created.
func FollowerScore(postLikes, postRefweets int, followed time.Time) float64 {
	return float64(FollowerLikesFactor*postLikes) +
		float64(FollowerRefweetsFactor*postRefweets) +
		MinutesSinceEpoch(followed)
}

// TagScore ranks a fweet within a hashtag feed. The age component comes
// from the fweet's stored creation timestamp so the sort key is stable
// between evaluations of the same query.
func TagScore(likes, refweets, comments int, created time.Time) float64 {
	return float64(TagLikesFactor*likes) +
		float64(TagRefweetsFactor*refweets) +
		float64(TagCommentsFactor*comments) +
		MinutesSinceEpoch(created)
}

// SQL expressions mirroring the score functions, used as computed ORDER BY
// keys. They must stay in sync with FollowerScore and TagScore; the tests
// pin the weights.
const (
	FollowerScoreSQL = "(1 * followerstats.post_likes + 1 * followerstats.post_refweets + extract(epoch from followerstats.created) / 60)"
	TagScoreSQL      = "(5 * fweets.likes + 5 * fweets.refweets + 5 * fweets.comments + extract(epoch from fweets.created) / 60)"
)
