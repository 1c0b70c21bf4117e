// Package store 이전 실행 결과(집계 스냅샷, 가격 이력)의 입출력을 추상화합니다.
//
// 모든 이름은 저장소 루트 기준의 슬래시(/) 구분 상대 경로입니다. (예: "price-history/p1.json")
package store

import "context"

// Source 이름에 해당하는 데이터를 읽어옵니다. 데이터가 없으면 NotFound 타입의 에러를 반환합니다.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Writer 이름에 해당하는 데이터를 교체 저장합니다.
type Writer interface {
	Write(ctx context.Context, name string, data []byte) error
}

// Store 읽기와 쓰기를 모두 지원하는 저장소입니다.
type Store interface {
	Source
	Writer
}

const (
	// SnapshotName 집계 스냅샷의 이름입니다.
	SnapshotName = "prices/today.json"

	historyDir = "price-history"
)

// HistoryName 상품의 가격 이력 문서 이름을 반환합니다.
func HistoryName(skuID string) string {
	return historyDir + "/" + skuID + ".json"
}
