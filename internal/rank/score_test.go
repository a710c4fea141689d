package rank

import (
	"math"
	"testing"
	"time"
)

func TestFollowerScore(t *testing.T) {
	followed := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	age := followed.Sub(time.Unix(0, 0).UTC()).Minutes()

	tests := []struct {
		name         string
		postLikes    int
		postRefweets int
		expected     float64
	}{
		{"no interactions", 0, 0, age},
		{"likes only", 3, 0, age + 3},
		{"refweets only", 0, 2, age + 2},
		{"mixed", 3, 2, age + 5},
		{"negative likes after unlikes", -4, 0, age - 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FollowerScore(tt.postLikes, tt.postRefweets, followed)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("FollowerScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTagScore(t *testing.T) {
	created := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	age := created.Sub(time.Unix(0, 0).UTC()).Minutes()

	tests := []struct {
		name     string
		likes    int
		refweets int
		comments int
		expected float64
	}{
		{"no interactions", 0, 0, 0, age},
		{"one of each weighs five each", 1, 1, 1, age + 15},
		{"likes dominate age slowly", 12, 0, 0, age + 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagScore(tt.likes, tt.refweets, tt.comments, created)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("TagScore() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScoreIsStableForFixedInputs(t *testing.T) {
	created := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)

	first := TagScore(2, 1, 0, created)
	time.Sleep(5 * time.Millisecond)
	second := TagScore(2, 1, 0, created)

	// The sort key depends only on stored state, never on evaluation time.
	if first != second {
		t.Errorf("TagScore() changed between evaluations: %v then %v", first, second)
	}
}

func TestNewerBeatsOlderOnEqualEngagement(t *testing.T) {
	older := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(30 * time.Minute)

	if TagScore(1, 0, 0, newer) <= TagScore(1, 0, 0, older) {
		t.Error("newer fweet should outrank older one with equal engagement")
	}

	// 7 likes outweigh a 30 minute age gap at factor 5
	if TagScore(7, 0, 0, older) <= TagScore(0, 0, 0, newer) {
		t.Error("enough engagement should outrank a newer fweet")
	}
}
