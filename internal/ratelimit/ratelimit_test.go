package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fauna-labs/fwitter/pkg/config"
)

// ledger builds event timestamps newest first, offsets in seconds before now.
func ledger(now time.Time, secondsAgo ...int) []time.Time {
	events := make([]time.Time, 0, len(secondsAgo))
	for _, s := range secondsAgo {
		events = append(events, now.Add(-time.Duration(s)*time.Second))
	}
	return events
}

func TestAllow(t *testing.T) {
	now := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	quota := Quota{Calls: 2, Window: 60 * time.Second}

	tests := []struct {
		name     string
		events   []time.Time
		quota    Quota
		expected bool
	}{
		{"empty ledger always passes", nil, quota, true},
		{"below call budget", ledger(now, 10), quota, true},
		{"budget full, window not elapsed", ledger(now, 10, 30), quota, false},
		{"budget full, oldest aged out", ledger(now, 10, 61), quota, true},
		{"oldest exactly at window boundary", ledger(now, 10, 60), quota, true},
		{"zero window never decays", ledger(now, 10, 1_000_000), Quota{Calls: 2, Window: 0}, false},
		{"zero window still passes below budget", ledger(now, 10), Quota{Calls: 2, Window: 0}, true},
		{"zero call budget rejects an empty ledger", nil, Quota{Calls: 0, Window: 60 * time.Second}, false},
		{"zero call budget rejects recorded events", ledger(now, 10), Quota{Calls: 0, Window: 60 * time.Second}, false},
		{"negative call budget rejects", nil, Quota{Calls: -1, Window: 60 * time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := allow(tt.events, tt.quota, now)
			if got != tt.expected {
				t.Errorf("allow(%d events, %+v) = %v, want %v", len(tt.events), tt.quota, got, tt.expected)
			}
		})
	}
}

func TestAllowQuotaBoundary(t *testing.T) {
	// With quota (2 calls / 60s): 1st and 2nd calls pass, the 3rd within
	// the window is rejected, and a later call passes once the window has
	// elapsed for the oldest event.
	now := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	quota := Quota{Calls: 2, Window: 60 * time.Second}

	if !allow(nil, quota, now) {
		t.Fatal("1st call should pass")
	}
	if !allow(ledger(now, 1), quota, now) {
		t.Fatal("2nd call should pass")
	}
	if allow(ledger(now, 1, 2), quota, now) {
		t.Fatal("3rd call inside the window should be rejected")
	}

	later := now.Add(61 * time.Second)
	if !allow(ledger(later, 62, 63), quota, later) {
		t.Fatal("call after the window elapsed should pass")
	}
}

func TestAllowZeroWindowNeverRefills(t *testing.T) {
	now := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)
	quota := Quota{Calls: 2, Window: 0}
	full := ledger(now, 1, 2)

	if allow(full, quota, now) {
		t.Fatal("full zero-window ledger should reject")
	}

	// Arbitrarily long wait changes nothing
	muchLater := now.Add(365 * 24 * time.Hour)
	if allow(full, quota, muchLater) {
		t.Fatal("zero-window ledger must not refill by waiting")
	}

	// Only clearing the ledger restores capacity
	if !allow(nil, quota, muchLater) {
		t.Fatal("cleared ledger should admit again")
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(nil, zap.NewNop())

	q, err := l.QuotaFor(ActionLogin)
	if err != nil {
		t.Fatalf("QuotaFor(login) error = %v", err)
	}
	if q.Calls != 3 || q.Window != 0 {
		t.Errorf("login quota = %+v, want 3 calls with no decay", q)
	}

	if _, err := l.QuotaFor("no_such_action"); err == nil {
		t.Error("QuotaFor() should fail for unconfigured actions")
	}
}

func TestNewLimiterOverrides(t *testing.T) {
	l := NewLimiter(map[string]config.QuotaConfig{
		ActionCreateFweet: {Calls: 1, WindowMs: 1000},
	}, zap.NewNop())

	q, err := l.QuotaFor(ActionCreateFweet)
	if err != nil {
		t.Fatalf("QuotaFor(create_fweet) error = %v", err)
	}
	if q.Calls != 1 || q.Window != time.Second {
		t.Errorf("overridden quota = %+v, want 1 call per second", q)
	}

	// Untouched actions keep their defaults
	q, err = l.QuotaFor(ActionGetFweets)
	if err != nil {
		t.Fatalf("QuotaFor(get_fweets) error = %v", err)
	}
	if q.Calls != 5 || q.Window != 60*time.Second {
		t.Errorf("get_fweets quota = %+v, want default 5 per minute", q)
	}
}
