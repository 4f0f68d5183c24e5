package services

import (
	"context"
	"testing"

	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
)

func newMasteryFixture(t *testing.T) (MasteryService, repos.ProgressRepo) {
	t.Helper()
	db := newTestDB(t)
	progressRepo := repos.NewProgressRepo(db, testLog())
	return NewMasteryService(testLog(), progressRepo), progressRepo
}

func TestRecordQuizResult_RunningAccuracy(t *testing.T) {
	svc, progressRepo := newMasteryFixture(t)
	ctx := context.Background()

	// First quiz scores 80: pass.
	if err := svc.RecordQuizResult(ctx, "owner-1", "Fractions", strptr("Math"), nil, 80); err != nil {
		t.Fatalf("first update: %v", err)
	}
	row, err := progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-1", "Fractions")
	if err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if row.MasteryScore != 100 || row.QuestionsAttempted != 1 || row.QuestionsCorrect != 1 {
		t.Fatalf("after first quiz: %+v", row)
	}

	// Second quiz scores 50: fail. 1 of 2 -> 50.
	if err := svc.RecordQuizResult(ctx, "owner-1", "Fractions", strptr("Math"), nil, 50); err != nil {
		t.Fatalf("second update: %v", err)
	}
	row, err = progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-1", "Fractions")
	if err != nil {
		t.Fatalf("reload progress: %v", err)
	}
	if row.MasteryScore != 50 || row.QuestionsAttempted != 2 || row.QuestionsCorrect != 1 {
		t.Fatalf("after second quiz: %+v", row)
	}
}

func TestRecordQuizResult_ThresholdIsInclusive(t *testing.T) {
	svc, progressRepo := newMasteryFixture(t)
	ctx := context.Background()

	if err := svc.RecordQuizResult(ctx, "owner-1", "Decimals", nil, nil, masteryPassThreshold); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, err := progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-1", "Decimals")
	if err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if row.QuestionsCorrect != 1 {
		t.Fatalf("score == threshold must count as correct: %+v", row)
	}

	if err := svc.RecordQuizResult(ctx, "owner-1", "Decimals", nil, nil, masteryPassThreshold-1); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, err = progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-1", "Decimals")
	if err != nil {
		t.Fatalf("reload progress: %v", err)
	}
	if row.QuestionsCorrect != 1 || row.QuestionsAttempted != 2 {
		t.Fatalf("score below threshold must not count: %+v", row)
	}
}

func TestRecordQuizResult_EmptyTopicIsANoOp(t *testing.T) {
	svc, progressRepo := newMasteryFixture(t)
	ctx := context.Background()

	if err := svc.RecordQuizResult(ctx, "owner-1", "  ", nil, nil, 90); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, err := progressRepo.GetByOwner(ctx, nil, "owner-1")
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("no-op update created rows: %#v", rows)
	}
}

func TestRecordQuizResult_TopicsAreScopedPerOwner(t *testing.T) {
	svc, progressRepo := newMasteryFixture(t)
	ctx := context.Background()

	if err := svc.RecordQuizResult(ctx, "owner-1", "Fractions", nil, nil, 90); err != nil {
		t.Fatalf("update owner-1: %v", err)
	}
	if err := svc.RecordQuizResult(ctx, "owner-2", "Fractions", nil, nil, 10); err != nil {
		t.Fatalf("update owner-2: %v", err)
	}

	one, err := progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-1", "Fractions")
	if err != nil {
		t.Fatalf("load owner-1: %v", err)
	}
	two, err := progressRepo.GetByOwnerAndTopic(ctx, nil, "owner-2", "Fractions")
	if err != nil {
		t.Fatalf("load owner-2: %v", err)
	}
	if one.MasteryScore != 100 || two.MasteryScore != 0 {
		t.Fatalf("owners must not share rows: %d / %d", one.MasteryScore, two.MasteryScore)
	}
}

func TestOverview_DerivesAggregates(t *testing.T) {
	svc, _ := newMasteryFixture(t)
	ctx := context.Background()

	if err := svc.RecordQuizResult(ctx, "owner-1", "Fractions", nil, nil, 90); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.RecordQuizResult(ctx, "owner-1", "Decimals", nil, nil, 10); err != nil {
		t.Fatalf("update: %v", err)
	}

	overview, err := svc.Overview(ctx, "owner-1")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalTopics != 2 || overview.TotalAttempts != 2 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
	if overview.AverageMastery != 50 || overview.MasteredTopics != 1 {
		t.Fatalf("unexpected aggregates: %+v", overview)
	}
	// Weakest first.
	if overview.Topics[0].Topic != "Decimals" {
		t.Fatalf("expected weakest topic first, got %q", overview.Topics[0].Topic)
	}
}
