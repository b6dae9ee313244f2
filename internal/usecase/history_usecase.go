package usecase

import (
	"context"
	"math"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/internal/session"
)

type HistoryUseCase struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryUseCase(historyRepo repository.HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		historyRepo: historyRepo,
	}
}

// CollectorSummary lists the session user's completed collections with
// their count and average rating rounded to two decimals.
func (uc *HistoryUseCase) CollectorSummary(ctx context.Context) (*entity.HistorySummary, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	records, err := uc.historyRepo.ListByCollector(ctx, uid)
	if err != nil {
		return nil, err
	}
	return summarize(records), nil
}

// RequesterHistory lists collections the session user has accepted.
func (uc *HistoryUseCase) RequesterHistory(ctx context.Context) (*entity.HistorySummary, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	records, err := uc.historyRepo.ListByRequester(ctx, uid)
	if err != nil {
		return nil, err
	}
	return summarize(records), nil
}

func summarize(records []*entity.History) *entity.HistorySummary {
	summary := &entity.HistorySummary{
		Records:          records,
		TotalCollections: len(records),
	}
	if len(records) == 0 {
		return summary
	}
	total := 0
	for _, r := range records {
		total += r.Rating
	}
	avg := float64(total) / float64(len(records))
	summary.AverageRating = math.Round(avg*100) / 100
	return summary
}
