package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique name per test: a plain ":memory:" DSN gives every pooled
	// connection its own database, and a shared name would leak state
	// between tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Chunk{}, &types.Question{}, &types.Quiz{}, &types.Progress{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testLog() *logger.Logger {
	return logger.NewNop()
}

// fakeAIClient lets each test script the gateway. Unset functions fail the
// call with ErrServiceUnavailable so tests notice unexpected provider use.
type fakeAIClient struct {
	embedFn func(inputs []string, variant EmbedVariant) ([][]float32, error)
	textFn  func(prompt string) (string, error)
	jsonFn  func(system, user string) (map[string]any, error)
}

func (f *fakeAIClient) Embed(_ context.Context, inputs []string, variant EmbedVariant) ([][]float32, error) {
	if f.embedFn == nil {
		return nil, fmt.Errorf("%w: embed not scripted", apperr.ErrServiceUnavailable)
	}
	return f.embedFn(inputs, variant)
}

func (f *fakeAIClient) GenerateText(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	if f.textFn == nil {
		return "", fmt.Errorf("%w: generate not scripted", apperr.ErrServiceUnavailable)
	}
	return f.textFn(prompt)
}

func (f *fakeAIClient) GenerateJSON(_ context.Context, system, user, _ string, _ map[string]any) (map[string]any, error) {
	if f.jsonFn == nil {
		return nil, fmt.Errorf("%w: generate json not scripted", apperr.ErrServiceUnavailable)
	}
	return f.jsonFn(system, user)
}

func (f *fakeAIClient) EmbedModelVersion() string { return "fake-embed-001" }

func strptr(s string) *string { return &s }
