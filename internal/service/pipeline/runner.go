// Package pipeline 마켓플레이스 스냅샷을 이전 실행 결과와 병합하여 집계 스냅샷과 상품별 가격 이력을 갱신하는 배치를 제공합니다.
package pipeline

import (
	"context"
	"time"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/pkg/version"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/pkg/log"
)

const component = "pipeline.runner"

// Options 실행 단위로 지정하는 옵션입니다.
type Options struct {
	// Today 가격 이력에 기록할 날짜("YYYY-MM-DD")입니다. 비어 있으면 설정된 시간대의 오늘 날짜를 사용합니다.
	Today string

	// DryRun 설정 파일의 run.dry_run과 OR로 결합됩니다.
	DryRun bool
}

// Runner 배치 실행기입니다. 동시에 두 번 이상 실행하면 안 되며, 호출자가 직렬화해야 합니다.
type Runner struct {
	appConfig *config.AppConfig

	inbox  store.Source // 마켓플레이스 스냅샷
	prior  store.Source // 이전 실행 결과 (공개 미러 → 로컬)
	writer store.Writer // 기본 저장소와 공개 디렉토리에 동시 기록

	clock func() time.Time
}

// NewRunner 새로운 Runner를 생성합니다.
func NewRunner(appConfig *config.AppConfig, inbox, prior store.Source, writer store.Writer) *Runner {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}

	return &Runner{
		appConfig: appConfig,
		inbox:     inbox,
		prior:     prior,
		writer:    writer,
		clock:     time.Now,
	}
}

// Run 배치를 한 번 실행합니다.
//
// 집계에 참여하는 마켓플레이스(ok, partial)가 하나도 없으면 이전 집계 스냅샷을 sourceStatus만 바꿔 유지하고
// 가격 이력은 갱신하지 않습니다. 상품별 가격 이력 갱신 실패는 Report.HistoryErr에 모으며 에러로 반환하지 않습니다.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	startedAt := r.clock()

	report := &Report{
		StartedAt: startedAt,
		Today:     opts.Today,
		DryRun:    opts.DryRun || r.appConfig.Run.DryRun,
	}
	if report.Today == "" {
		report.Today = startedAt.In(r.appConfig.Location()).Format(time.DateOnly)
	}

	logger := log.WithComponentAndFields(component, log.Fields{
		"today":   report.Today,
		"dry_run": report.DryRun,
	})
	logger.Info("배치 실행을 시작합니다")

	defer func() {
		report.FinishedAt = r.clock()
	}()

	sources := r.loadSources(ctx)
	report.SourceStatus = statusMap(sources)
	for _, s := range sources {
		report.Sources = append(report.Sources, s.result())
	}

	meta := &pricing.SnapshotMeta{
		ValueType: pricing.ValueTypeEffectivePrice,
		TZ:        r.appConfig.TimeZone,
		Version:   version.Version(),
	}

	prior, priorErr := r.loadPriorSnapshot(ctx)

	if !anyContributes(sources) {
		if err := r.preserve(ctx, report, prior, priorErr, meta); err != nil {
			return report, err
		}

		logger.WithField("source_status", report.SourceStatus).Warn("수집에 성공한 마켓플레이스가 없어 가격 이력 갱신을 건너뜁니다")
		return report, nil
	}

	if priorErr != nil {
		logger.WithError(priorErr).Warn("이전 집계 스냅샷을 읽을 수 없어 이번 수집 결과만으로 집계합니다")
	}

	snapshot := &pricing.Snapshot{
		UpdatedAt:    startedAt.UTC().Format(timestampLayout),
		Items:        r.reconcile(sources, prior),
		SourceStatus: report.SourceStatus,
		Meta:         meta,
	}
	report.Items = snapshot.Items
	report.PriceChanges = priceChanges(prior, snapshot.Items)

	if err := r.publish(ctx, report, snapshot, prior); err != nil {
		return report, err
	}

	report.History, report.HistoryErr = r.compactHistory(ctx, snapshot.Items, report.Today, report.DryRun)

	logger.WithFields(log.Fields{
		"source_status":    report.SourceStatus,
		"items":            len(report.Items),
		"price_changes":    len(report.PriceChanges),
		"history_failures": len(report.HistoryFailures()),
	}).Info("배치 실행을 완료했습니다")

	return report, nil
}

// reconcile 설정된 상품 순서대로 이전 결과와 이번 수집 결과를 병합합니다.
func (r *Runner) reconcile(sources []*source, prior *priorSnapshot) []pricing.FinalizedItem {
	items := make([]pricing.FinalizedItem, 0, len(r.appConfig.Products))

	for _, p := range r.appConfig.Products {
		state := pricing.NewItemState(p.ID, prior.item(p.ID))
		filter := pricing.NewOfferFilter(pricing.FilterRule{
			Filters:            p.Filters,
			BrandHints:         p.BrandHints,
			ExcludeAccessories: p.ExcludeAccessories,
		})

		var added, rejected int
		for _, s := range sources {
			if !s.status.Contributes() {
				continue
			}

			for _, o := range s.offersFor(p.ID) {
				if !filter.Accept(o) {
					rejected++
					continue
				}
				if state.Add(&o, true) {
					added++
				}
			}
		}

		item := state.Finalize()
		items = append(items, item)

		log.WithComponentAndFields(component, log.Fields{
			"sku_id":   p.ID,
			"added":    added,
			"rejected": rejected,
			"entries":  len(item.List),
		}).Debug("상품 판매 정보 병합 완료")
	}

	return items
}
