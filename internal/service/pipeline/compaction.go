package pipeline

import (
	"context"

	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const componentCompaction = "pipeline.compaction"

// compactHistory 상품별 가격 이력을 갱신합니다.
//
// 상품 하나의 실패는 로그로 남기고 건너뛰며, 나머지 상품은 계속 처리합니다.
// 동시 처리 개수는 run.workers이며, 결과는 입력 순서를 유지합니다.
func (r *Runner) compactHistory(ctx context.Context, items []pricing.FinalizedItem, today string, dryRun bool) ([]history.CompactResult, error) {
	hc := r.appConfig.History
	compactor := history.NewCompactor(r.prior, r.writer, history.Config{
		Retention:     hc.Retention,
		CleanOutliers: hc.CleanOutliers,
		Backfill:      hc.Backfill,
		ValueType:     pricing.ValueTypeEffectivePrice,
		TZ:            r.appConfig.TimeZone,
		DryRun:        dryRun,
		Outlier: history.OutlierConfig{
			IQRMultiplier: hc.IQRMultiplier,
			MedianRatio:   hc.MedianRatio,
			PriceCeiling:  hc.PriceCeiling,
		},
	})

	results := make([]history.CompactResult, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.appConfig.Run.Workers, 1))

	for i := range items {
		g.Go(func() error {
			res, err := compactor.Compact(gctx, items[i], today)
			results[i] = res
			if err != nil {
				log.WithComponentAndFields(componentCompaction, log.Fields{
					"sku_id": items[i].SkuID,
					"error":  err,
				}).Warn("가격 이력 갱신에 실패하여 해당 상품을 건너뜁니다")

				errs[i] = err
			}

			// 상품 하나의 실패가 다른 상품의 처리를 취소하지 않도록 항상 nil을 반환한다.
			return nil
		})
	}
	_ = g.Wait()

	return results, multierr.Combine(errs...)
}
