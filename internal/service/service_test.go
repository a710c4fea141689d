package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/fauna-labs/fwitter/internal/feed"
	"github.com/fauna-labs/fwitter/internal/models"
)

func TestRefweetResultCarriesBothViews(t *testing.T) {
	// A refweet's response holds two top-level enriched views: the new
	// refweet and the original it re-shares. The original is not nested
	// inside the refweet's chain, so its own chain keeps full depth.
	origRef := uuid.New()
	result := RefweetResult{
		Refweet:  &feed.FweetView{Fweet: &models.Fweet{Ref: uuid.New(), OriginalRef: &origRef}},
		Original: &feed.FweetView{Fweet: &models.Fweet{Ref: origRef, Refweets: 1}},
	}

	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"refweet", "original"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("response is missing the %q view", key)
		}
	}
}

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"no tags", "just a plain message", nil},
		{"single tag", "hello #world", []string{"world"}},
		{"multiple tags", "#go and #postgres rock", []string{"go", "postgres"}},
		{"single-char tag skipped", "too short #a", nil},
		{"two-char tag accepted", "just enough #ab", []string{"ab"}},
		{"duplicates collapse", "#dup and #dup again", []string{"dup"}},
		{"mid-word hash ignored", "not#atag here", nil},
		{"underscores and digits", "#tag_2 works", []string{"tag_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHashtags(tt.message)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractHashtags(%q) = %v, want %v", tt.message, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractHashtags(%q)[%d] = %q, want %q", tt.message, i, got[i], tt.want[i])
				}
			}
		})
	}
}
