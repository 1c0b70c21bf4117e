package history

import (
	"context"
	"slices"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/google/go-cmp/cmp"
)

const componentCompactor = "history.compactor"

// DefaultRetention 상품별로 보관하는 최대 이력 일수입니다.
const DefaultRetention = 30

// Config Compactor 설정입니다.
type Config struct {
	Retention     int    // 보관할 최근 이력 개수
	CleanOutliers bool   // 매 실행마다 이상치 제거
	Backfill      bool   // 오늘 이후 날짜의 행 제거
	ValueType     string // 저장하는 가격의 의미 (예: effectivePrice)
	TZ            string // 날짜 기준 시간대
	DryRun        bool   // 변경 내용만 로그로 남기고 기록하지 않음
	Outlier       OutlierConfig
}

// CompactResult 상품 하나의 이력 압축 결과입니다.
type CompactResult struct {
	SkuID   string
	Before  int     // 병합 전 이력 개수
	After   int     // 최종 이력 개수
	Removed []Entry // 이상치로 제거된 행
	Changed bool    // 이전 문서와 내용이 달라졌는지 여부
	Written bool    // 실제로 기록되었는지 여부
}

// Compactor 오늘의 최저 실질 구매가를 상품별 가격 이력에 병합합니다.
type Compactor struct {
	source store.Source
	writer store.Writer
	config Config
}

// NewCompactor 이전 이력을 source에서 읽고 writer에 기록하는 Compactor를 생성합니다.
func NewCompactor(source store.Source, writer store.Writer, config Config) *Compactor {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.ValueType == "" {
		config.ValueType = pricing.ValueTypeEffectivePrice
	}
	if config.Outlier == (OutlierConfig{}) {
		config.Outlier = DefaultOutlierConfig()
	}

	return &Compactor{source: source, writer: writer, config: config}
}

// Compact 상품의 가격 이력을 갱신합니다. today는 "YYYY-MM-DD" 형식입니다.
//
// 이전 이력이 없거나 해석할 수 없으면 빈 이력에서 시작합니다.
// 이전 이력 조회 자체가 실패하거나 기록이 실패하면 에러를 반환하며, 호출자는 해당 상품만 건너뜁니다.
func (c *Compactor) Compact(ctx context.Context, item pricing.FinalizedItem, today string) (CompactResult, error) {
	name := store.HistoryName(item.SkuID)
	logger := log.WithComponentAndFields(componentCompactor, log.Fields{
		"sku_id": item.SkuID,
		"today":  today,
	})

	prior, err := c.load(ctx, name)
	if err != nil {
		return CompactResult{SkuID: item.SkuID}, err
	}

	next, removed := c.merge(prior, item, today)

	result := CompactResult{
		SkuID:   item.SkuID,
		Before:  len(prior.History),
		After:   len(next.History),
		Removed: removed,
		Changed: !cmp.Equal(prior, next),
	}

	if len(removed) > 0 {
		logger.WithField("removed", removed).Info("가격 이력에서 이상치를 제거했습니다")
	}

	if c.config.DryRun {
		if result.Changed {
			logger.WithField("diff", cmp.Diff(prior, next)).Info("[dry-run] 가격 이력 변경 예정")
		}
		return result, nil
	}

	data, err := next.Marshal()
	if err != nil {
		return result, err
	}
	if err := c.writer.Write(ctx, name, data); err != nil {
		return result, apperrors.Wrapf(err, apperrors.System, "가격 이력 기록 실패 (%s)", item.SkuID)
	}
	result.Written = true

	logger.WithFields(log.Fields{
		"before":  result.Before,
		"after":   result.After,
		"changed": result.Changed,
	}).Debug("가격 이력을 갱신했습니다")

	return result, nil
}

func (c *Compactor) load(ctx context.Context, name string) (Document, error) {
	data, err := c.source.Fetch(ctx, name)
	if err != nil {
		if store.IsNotFound(err) {
			return Document{History: []Entry{}}, nil
		}
		return Document{}, apperrors.Wrapf(err, apperrors.Unavailable, "이전 가격 이력 조회 실패 (%s)", name)
	}

	doc, err := Parse(data)
	if err != nil {
		log.WithComponentAndFields(componentCompactor, log.Fields{
			"name":  name,
			"error": err,
		}).Warn("이전 가격 이력을 해석할 수 없어 빈 이력에서 시작합니다")

		return Document{History: []Entry{}}, nil
	}

	return doc, nil
}

// merge 이전 문서에 오늘의 가격을 반영한 새 문서와 이상치로 제거된 행을 반환합니다. prior는 변경하지 않습니다.
func (c *Compactor) merge(prior Document, item pricing.FinalizedItem, today string) (Document, []Entry) {
	rows := slices.Clone(prior.History)

	if c.config.Backfill {
		rows = slices.DeleteFunc(rows, func(e Entry) bool { return e.Date > today })
	}

	if item.BestPriceEffective != nil {
		price := float64(*item.BestPriceEffective)
		if i := slices.IndexFunc(rows, func(e Entry) bool { return e.Date == today }); i >= 0 {
			rows[i].Price = price
		} else {
			rows = append(rows, Entry{Date: today, Price: price})
		}
	}

	rows = dedupeByDate(wellFormed(rows))
	slices.SortStableFunc(rows, func(a, b Entry) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		}
		return 0
	})

	meta := Meta{
		ValueType: c.config.ValueType,
		TZ:        c.config.TZ,
		Cleaned:   prior.Meta.Cleaned,
	}

	removed := []Entry{}
	if c.config.CleanOutliers || prior.Meta.ValueType != c.config.ValueType {
		r := FilterOutliers(rows, c.config.Outlier)
		rows, removed = r.History, r.Removed
		meta.Cleaned = true
	}

	if len(rows) > c.config.Retention {
		rows = rows[:c.config.Retention]
	}

	return Document{Meta: meta, History: rows}, removed
}

func wellFormed(rows []Entry) []Entry {
	return slices.DeleteFunc(rows, func(e Entry) bool {
		return e.Date == "" || !isFinite(e.Price)
	})
}

// dedupeByDate 날짜가 중복되면 먼저 나온 행만 남깁니다.
func dedupeByDate(rows []Entry) []Entry {
	seen := make(map[string]struct{}, len(rows))
	return slices.DeleteFunc(rows, func(e Entry) bool {
		if _, ok := seen[e.Date]; ok {
			return true
		}
		seen[e.Date] = struct{}{}
		return false
	})
}
