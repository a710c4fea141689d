package db

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/fauna-labs/fwitter/internal/models"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open dry-run db: %v", err)
	}
	return gdb
}

func TestHashtagCreateIfAbsentSkipsDuplicates(t *testing.T) {
	// Losing the unique-name race with a plain insert would abort the
	// enclosing transaction; the insert must carry ON CONFLICT DO NOTHING
	// so the winner's row stays readable afterwards.
	gdb := dryRunDB(t)

	var captured string
	if err := gdb.Callback().Create().Register("capture_sql", func(d *gorm.DB) {
		captured = d.Statement.SQL.String()
	}); err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	repo := NewHashtagRepository(NewRepository(gdb))
	tag := &models.Hashtag{Ref: uuid.New(), Name: "pepper"}
	if _, err := repo.CreateIfAbsent(context.Background(), tag); err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}

	if !strings.Contains(captured, "ON CONFLICT") || !strings.Contains(captured, "DO NOTHING") {
		t.Errorf("insert should tolerate an existing name, got %q", captured)
	}
}
