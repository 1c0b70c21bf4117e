package pipeline

import (
	"context"
	"encoding/json"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/darkkaiser/pricewatch/pkg/strutil"
)

const componentSources = "pipeline.sources"

// source 마켓플레이스 하나의 이번 실행 상태와 수집 결과입니다.
type source struct {
	config   config.MarketplaceConfig
	key      string
	status   pricing.SourceStatus
	settings *config.MarketplaceSettings
	snapshot *pricing.MarketplaceSnapshot
}

// SourceResult 마켓플레이스 하나의 실행 결과 요약입니다.
type SourceResult struct {
	ID     string
	Title  string
	Key    string
	Status pricing.SourceStatus
	Offers int // 수집기가 남긴 판매 정보 개수 (집계에 참여하는 경우만)
}

// loadSources 설정 순서대로 마켓플레이스 상태를 평가하고 수신 디렉토리의 스냅샷을 읽습니다.
//
// 인증 정보가 비어 있으면 disabled, 스냅샷을 읽거나 해석할 수 없으면 fail이며,
// 그 외에는 수집기가 sourceStatus에 기록한 상태(없으면 ok)를 따릅니다.
func (r *Runner) loadSources(ctx context.Context) []*source {
	sources := make([]*source, 0, len(r.appConfig.Marketplaces))
	for _, m := range r.appConfig.Marketplaces {
		sources = append(sources, r.loadSource(ctx, m))
	}
	return sources
}

func (r *Runner) loadSource(ctx context.Context, m config.MarketplaceConfig) *source {
	src := &source{config: m, key: m.StatusKey(), status: pricing.StatusFail}
	logger := log.WithComponentAndFields(componentSources, log.Fields{
		"marketplace": src.key,
		"file":        m.SnapshotFile,
	})

	settings, err := m.Settings()
	if err != nil {
		logger.WithError(err).Warn("마켓플레이스 부가 설정을 해석할 수 없습니다")
		return src
	}
	src.settings = settings

	if !m.Enabled() {
		logger.WithField("credential_env", m.CredentialEnv).Info("인증 정보가 설정되지 않아 마켓플레이스를 사용하지 않습니다")
		src.status = pricing.StatusDisabled
		return src
	}

	data, err := r.inbox.Fetch(ctx, m.SnapshotFile)
	if err != nil {
		if store.IsNotFound(err) {
			logger.Warn("마켓플레이스 스냅샷이 없습니다")
		} else {
			logger.WithError(err).Warn("마켓플레이스 스냅샷을 읽을 수 없습니다")
		}
		return src
	}

	var snapshot pricing.MarketplaceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logger.WithError(err).Warn("마켓플레이스 스냅샷을 해석할 수 없습니다")
		return src
	}
	src.snapshot = &snapshot

	src.status = recordedStatus(&snapshot, src.key, m.ID)
	if !src.status.Valid() {
		logger.WithField("status", src.status).Warn("알 수 없는 마켓플레이스 상태입니다")
		src.status = pricing.StatusFail
	}

	logger.WithFields(log.Fields{
		"status": src.status,
		"items":  len(snapshot.Items),
	}).Debug("마켓플레이스 스냅샷을 읽었습니다")

	return src
}

// recordedStatus 수집기가 기록한 상태를 정규화된 키, 원래 ID 순으로 찾습니다. 기록이 없으면 ok입니다.
func recordedStatus(snapshot *pricing.MarketplaceSnapshot, key, id string) pricing.SourceStatus {
	for _, k := range []string{key, id} {
		if status, ok := snapshot.SourceStatus[k]; ok && status != "" {
			return status
		}
	}
	return pricing.StatusOK
}

// offersFor 상품에 해당하는 판매 정보를 마켓플레이스 설정에 맞게 정리하여 반환합니다.
func (s *source) offersFor(skuID string) []pricing.Offer {
	if s.snapshot == nil {
		return nil
	}

	var offers []pricing.Offer
	for _, item := range s.snapshot.Items {
		if item.SkuID != skuID {
			continue
		}
		for _, o := range item.List {
			offers = append(offers, s.prepare(o))
		}
	}
	return offers
}

// prepare 제목의 HTML 마크업을 제거하고, 포인트 적립률이 없으면 마켓플레이스 기본값을 적용합니다.
func (s *source) prepare(o pricing.Offer) pricing.Offer {
	if s.settings == nil {
		return o
	}

	if s.settings.StripHTMLTitles {
		o.Title = strutil.StripHTML(o.Title)
	}
	if o.PointRate == nil && s.settings.DefaultPointRate > 0 {
		rate := s.settings.DefaultPointRate
		o.PointRate = &rate
		o.EffectivePrice = nil
	}

	return o
}

func (s *source) result() SourceResult {
	res := SourceResult{
		ID:     s.config.ID,
		Title:  s.config.Title,
		Key:    s.key,
		Status: s.status,
	}
	if s.status.Contributes() && s.snapshot != nil {
		for _, item := range s.snapshot.Items {
			res.Offers += len(item.List)
		}
	}
	return res
}

func statusMap(sources []*source) map[string]pricing.SourceStatus {
	statuses := make(map[string]pricing.SourceStatus, len(sources))
	for _, s := range sources {
		statuses[s.key] = s.status
	}
	return statuses
}

func anyContributes(sources []*source) bool {
	for _, s := range sources {
		if s.status.Contributes() {
			return true
		}
	}
	return false
}
