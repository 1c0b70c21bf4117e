package pipeline

import (
	"time"

	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"go.uber.org/multierr"
)

// Report 배치 한 번의 실행 결과입니다.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Today      string
	DryRun     bool

	Sources      []SourceResult
	SourceStatus map[string]pricing.SourceStatus

	// Preserved 집계에 참여한 마켓플레이스가 없어 이전 집계 스냅샷을 유지했는지 여부
	Preserved       bool
	SnapshotWritten bool
	Items           []pricing.FinalizedItem
	PriceChanges    []PriceChange

	History    []history.CompactResult
	HistoryErr error
}

// PriceChange 이전 실행 대비 최저 실질 구매가가 바뀐 상품입니다.
type PriceChange struct {
	SkuID    string
	Previous int64
	Current  int64
	Shop     string
}

// Drop 가격이 내려갔는지 여부를 반환합니다.
func (c PriceChange) Drop() bool {
	return c.Current < c.Previous
}

// HistoryFailures 가격 이력 갱신에 실패한 상품별 에러 목록을 반환합니다.
func (r *Report) HistoryFailures() []error {
	return multierr.Errors(r.HistoryErr)
}

// Failed 알림이 필요한 실패(마켓플레이스 실패, 이전 스냅샷 유지, 가격 이력 갱신 실패)가 있었는지 여부를 반환합니다.
func (r *Report) Failed() bool {
	if r.Preserved || r.HistoryErr != nil {
		return true
	}
	for _, s := range r.Sources {
		if s.Status == pricing.StatusFail {
			return true
		}
	}
	return false
}

// Elapsed 실행에 걸린 시간을 반환합니다.
func (r *Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// priceChanges 이전 스냅샷과 비교하여 최저 실질 구매가가 바뀐 상품을 입력 순서대로 반환합니다.
func priceChanges(prior *priorSnapshot, items []pricing.FinalizedItem) []PriceChange {
	var changes []PriceChange
	for _, item := range items {
		before := prior.item(item.SkuID)
		if before == nil || before.BestPriceEffective == nil || item.BestPriceEffective == nil {
			continue
		}
		if *before.BestPriceEffective == *item.BestPriceEffective {
			continue
		}

		change := PriceChange{
			SkuID:    item.SkuID,
			Previous: *before.BestPriceEffective,
			Current:  *item.BestPriceEffective,
		}
		if item.BestShop != nil {
			change.Shop = *item.BestShop
		}
		changes = append(changes, change)
	}
	return changes
}
