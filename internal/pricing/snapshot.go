package pricing

// SourceStatus 마켓플레이스 수집 결과 상태입니다.
type SourceStatus string

const (
	StatusOK       SourceStatus = "ok"
	StatusPartial  SourceStatus = "partial"
	StatusFail     SourceStatus = "fail"
	StatusDisabled SourceStatus = "disabled"
)

// Contributes 이번 실행의 집계에 판매 정보를 제공하는 상태인지 여부를 반환합니다.
func (s SourceStatus) Contributes() bool {
	return s == StatusOK || s == StatusPartial
}

// Valid 알려진 상태 값인지 여부를 반환합니다.
func (s SourceStatus) Valid() bool {
	switch s {
	case StatusOK, StatusPartial, StatusFail, StatusDisabled:
		return true
	}
	return false
}

// MarketplaceItem 마켓플레이스 스냅샷 내 상품별 판매 목록입니다.
type MarketplaceItem struct {
	SkuID string    `json:"skuId"`
	List  OfferList `json:"list"`
}

// MarketplaceSnapshot 외부 수집기가 마켓플레이스 단위로 남기는 스냅샷입니다.
type MarketplaceSnapshot struct {
	UpdatedAt    string                  `json:"updatedAt,omitempty"`
	Items        []MarketplaceItem       `json:"items"`
	SourceStatus map[string]SourceStatus `json:"sourceStatus"`
}

// SnapshotMeta 집계 스냅샷의 메타데이터입니다.
type SnapshotMeta struct {
	ValueType string `json:"valueType"`
	TZ        string `json:"tz"`
	Version   string `json:"version"`
}

// Snapshot 모든 마켓플레이스를 병합한 집계 스냅샷(prices/today.json)입니다.
type Snapshot struct {
	UpdatedAt    string                  `json:"updatedAt"`
	Items        []FinalizedItem         `json:"items"`
	SourceStatus map[string]SourceStatus `json:"sourceStatus"`
	Meta         *SnapshotMeta           `json:"meta,omitempty"`
}

// ValueTypeEffectivePrice 가격 값이 실질 구매가임을 나타내는 메타데이터 값입니다.
const ValueTypeEffectivePrice = "effectivePrice"

// Item skuID에 해당하는 결과를 반환합니다.
func (s *Snapshot) Item(skuID string) *FinalizedItem {
	if s == nil {
		return nil
	}
	for i := range s.Items {
		if s.Items[i].SkuID == skuID {
			return &s.Items[i]
		}
	}
	return nil
}
