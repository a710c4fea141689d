package search

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fauna-labs/fwitter/internal/models"
)

func containsAll(t *testing.T, parts []string, want ...string) {
	t.Helper()
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		set[p] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			t.Errorf("wordparts missing %q", w)
		}
	}
}

func TestWordParts(t *testing.T) {
	t.Run("short name yields every substring", func(t *testing.T) {
		parts := WordParts("Bob")
		containsAll(t, parts, "b", "o", "bo", "ob", "bob")
		if len(parts) != 5 {
			t.Errorf("WordParts(Bob) returned %d parts, want 5 after dedup", len(parts))
		}
	})

	t.Run("lowercases", func(t *testing.T) {
		for _, p := range WordParts("PepPer") {
			if p != strings.ToLower(p) {
				t.Errorf("part %q is not lowercased", p)
			}
		}
	})

	t.Run("long name only indexes near-full substrings", func(t *testing.T) {
		name := "extraordinarily-long-alias" // 26 runes
		parts := WordParts(name)
		for _, p := range parts {
			if len([]rune(p)) < 26-9 {
				t.Errorf("part %q shorter than the minimum length %d", p, 26-9)
			}
		}
		containsAll(t, parts, name)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		parts := WordParts("aaaa")
		sort.Strings(parts)
		want := []string{"a", "aa", "aaa", "aaaa"}
		if len(parts) != len(want) {
			t.Fatalf("WordParts(aaaa) = %v, want %v", parts, want)
		}
		for i := range want {
			if parts[i] != want[i] {
				t.Fatalf("WordParts(aaaa) = %v, want %v", parts, want)
			}
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if parts := WordParts(""); len(parts) != 0 {
			t.Errorf("WordParts(\"\") = %v, want none", parts)
		}
	})
}

func TestTermsForUser(t *testing.T) {
	user := &models.User{Ref: uuid.New(), Name: "Pepper"}
	rows := TermsForUser(user)

	if len(rows) == 0 {
		t.Fatal("no terms generated")
	}
	for _, row := range rows {
		if row.EntityRef != user.Ref {
			t.Errorf("term %q points at %s, want %s", row.Term, row.EntityRef, user.Ref)
		}
		if row.EntityType != models.SearchEntityUser {
			t.Errorf("term %q has entity type %q", row.Term, row.EntityType)
		}
		if row.Length != 6 {
			t.Errorf("term %q carries length %d, want full-name length 6", row.Term, row.Length)
		}
	}
}

func TestTermsForTag(t *testing.T) {
	tag := &models.Hashtag{Ref: uuid.New(), Name: "Pepper"}
	for _, row := range TermsForTag(tag) {
		if row.EntityType != models.SearchEntityTag {
			t.Fatalf("tag term %q has entity type %q", row.Term, row.EntityType)
		}
	}
}

// Shorter full names rank first: a keyword matching both the tag "Pepper"
// and the user "SirPepper" must surface the tag before the user, because
// results order on the stored full-name length.
func TestShorterNamesRankFirst(t *testing.T) {
	tag := &models.Hashtag{Ref: uuid.New(), Name: "Pepper"}
	user := &models.User{Ref: uuid.New(), Name: "SirPepper"}

	rows := append(TermsForTag(tag), TermsForUser(user)...)

	var hits []models.SearchTerm
	for _, row := range rows {
		if row.Term == "pe" {
			hits = append(hits, row)
		}
	}
	if len(hits) != 2 {
		t.Fatalf("expected the keyword to hit both entities, got %d hits", len(hits))
	}

	// Same ordering the index query applies
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Length != hits[j].Length {
			return hits[i].Length < hits[j].Length
		}
		return hits[i].EntityRef.String() < hits[j].EntityRef.String()
	})

	if hits[0].EntityType != models.SearchEntityTag || hits[1].EntityType != models.SearchEntityUser {
		t.Errorf("want tag before user, got %q then %q", hits[0].EntityType, hits[1].EntityType)
	}
}
