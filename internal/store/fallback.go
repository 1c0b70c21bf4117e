package store

import (
	"context"

	"github.com/darkkaiser/pricewatch/pkg/log"
)

const componentFallback = "store.fallback"

// FallbackSource 여러 Source를 순서대로 시도하여 처음 성공한 결과를 반환합니다.
//
// 운영 환경에서는 원격 미러를 먼저, 로컬 파일을 나중에 시도합니다.
// 모두 실패하면 마지막 Source의 결과를 따릅니다. 원격 미러에 접근할 수 없어도 로컬 저장소가 NotFound이면
// NotFound를 반환하므로, 호출자는 이전 데이터가 없는 것으로 처리할 수 있습니다.
type FallbackSource struct {
	sources []Source
}

var _ Source = (*FallbackSource)(nil)

// NewFallbackSource nil이 아닌 Source들로 FallbackSource를 생성합니다.
func NewFallbackSource(sources ...Source) *FallbackSource {
	fs := &FallbackSource{}
	for _, s := range sources {
		if s != nil {
			fs.sources = append(fs.sources, s)
		}
	}
	return fs
}

func (f *FallbackSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	var lastErr error
	for i, s := range f.sources {
		data, err := s.Fetch(ctx, name)
		if err == nil {
			return data, nil
		}

		fields := log.Fields{"name": name, "source_index": i, "error": err}
		lastErr = err
		if IsNotFound(err) {
			log.WithComponentAndFields(componentFallback, fields).Debug("데이터가 없어 다음 저장소를 조회합니다")
			continue
		}

		log.WithComponentAndFields(componentFallback, fields).Warn("저장소 조회 실패: 다음 저장소로 대체합니다")
	}

	if lastErr == nil || IsNotFound(lastErr) {
		return nil, NewErrNotFound(name)
	}

	return nil, lastErr
}
