package stats

import (
	"testing"

	"github.com/fauna-labs/fwitter/internal/models"
)

func TestNextLikeStatus(t *testing.T) {
	tests := []struct {
		name      string
		row       *models.FweetStats
		wantLiked bool
		wantDelta int
	}{
		{"first interaction likes", nil, true, 1},
		{"toggle off", &models.FweetStats{Like: true}, false, -1},
		{"toggle back on", &models.FweetStats{Like: false}, true, 1},
		{"row from refweet without like", &models.FweetStats{Refweet: true}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			liked, delta := nextLikeStatus(tt.row)
			if liked != tt.wantLiked || delta != tt.wantDelta {
				t.Errorf("nextLikeStatus() = (%v, %d), want (%v, %d)", liked, delta, tt.wantLiked, tt.wantDelta)
			}
		})
	}
}

func TestRefweetable(t *testing.T) {
	tests := []struct {
		name string
		row  *models.FweetStats
		want bool
	}{
		{"no prior interaction", nil, true},
		{"liked but never refweeted", &models.FweetStats{Like: true}, true},
		{"commented but never refweeted", &models.FweetStats{Comment: true}, true},
		{"already refweeted", &models.FweetStats{Refweet: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refweetable(tt.row); got != tt.want {
				t.Errorf("refweetable(%+v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestRefweetIsOneShot(t *testing.T) {
	// The first refweet flips the flag; from then on the guard rejects,
	// no matter how much time passes or what else the user does.
	row := &models.FweetStats{}
	if !refweetable(row) {
		t.Fatal("fresh row should allow the first refweet")
	}
	row.Refweet = true
	if refweetable(row) {
		t.Fatal("second refweet of the same fweet should be rejected")
	}
	row.Like = true
	row.Comment = true
	if refweetable(row) {
		t.Fatal("other interactions must not re-enable refweeting")
	}
}

func TestLikeToggleRoundTrip(t *testing.T) {
	// Two applications of the toggle return to the initial state and the
	// deltas cancel out.
	row := &models.FweetStats{}
	liked, d1 := nextLikeStatus(row)
	row.Like = liked
	liked, d2 := nextLikeStatus(row)
	row.Like = liked

	if row.Like {
		t.Error("like should be off after toggling twice")
	}
	if d1+d2 != 0 {
		t.Errorf("deltas should cancel, got %d and %d", d1, d2)
	}
}
