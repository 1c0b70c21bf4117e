package pricing

import (
	"math"

	"github.com/darkkaiser/pricewatch/pkg/log"
)

const componentState = "pricing.state"

// EnrichedOffer 식별 키와 금회 관측 여부가 부여된 판매 정보입니다.
// IsToday는 집계 과정에서만 사용되며 출력에는 포함되지 않습니다.
type EnrichedOffer struct {
	Offer
	Key     string
	IsToday bool
}

// ItemState 상품 하나에 대한 판매 정보 누적기입니다.
//
// 이전 실행의 결과(carried-over)와 이번 실행에서 수집한 정보(today)를 식별 키 단위로 병합합니다.
// 같은 키에 대해서는 다음 규칙으로 대표 정보를 유지합니다.
//
//   - today 정보는 가격과 무관하게 carried-over 정보를 대체합니다.
//   - carried-over 정보는 today 정보를 대체하지 않습니다.
//   - 관측 시점이 같으면 실질 구매가가 더 낮은 쪽이 남고, 같으면 먼저 들어온 쪽이 남습니다.
type ItemState struct {
	skuID   string
	entries map[string]*EnrichedOffer
	seq     int
}

// NewItemState 이전 결과(prior)의 판매 목록을 carried-over 정보로 채운 누적기를 생성합니다. prior는 nil일 수 있습니다.
func NewItemState(skuID string, prior *FinalizedItem) *ItemState {
	s := &ItemState{
		skuID:   skuID,
		entries: make(map[string]*EnrichedOffer),
	}

	if prior != nil {
		for i := range prior.List {
			o := prior.List[i]
			s.Add(&o, false)
		}
	}

	return s
}

// SkuID 상품 식별자를 반환합니다.
func (s *ItemState) SkuID() string {
	return s.skuID
}

// Add 판매 정보를 병합하고, 실제로 저장(삽입 또는 교체)되었는지 여부를 반환합니다.
// nil이거나 price 필드가 없는 정보는 버려집니다.
func (s *ItemState) Add(o *Offer, isToday bool) bool {
	if o == nil || !o.HasPrice() {
		log.WithComponentAndFields(componentState, log.Fields{
			"sku_id": s.skuID,
		}).Debug("형식이 올바르지 않은 판매 정보를 건너뜁니다")
		return false
	}

	offer := *o
	offer.EnsureEffectivePrice()

	key, ok := ResolveKey(offer)
	if !ok {
		key = legacyKey(s.seq)
		s.seq++
	}

	incoming := &EnrichedOffer{Offer: offer, Key: key, IsToday: isToday}

	existing, found := s.entries[key]
	if !found || supersedes(incoming, existing) {
		s.entries[key] = incoming
		return true
	}

	return false
}

func supersedes(incoming, existing *EnrichedOffer) bool {
	if incoming.IsToday != existing.IsToday {
		return incoming.IsToday
	}
	return comparablePrice(incoming.EffectivePrice) < comparablePrice(existing.EffectivePrice)
}

// Len 저장된 판매 정보 개수를 반환합니다.
func (s *ItemState) Len() int {
	return len(s.entries)
}

// Entry 키에 해당하는 판매 정보를 반환합니다.
func (s *ItemState) Entry(key string) (EnrichedOffer, bool) {
	e, ok := s.entries[key]
	if !ok {
		return EnrichedOffer{}, false
	}
	return *e, true
}

// Entries 저장된 판매 정보의 복사본을 반환합니다. 순서는 보장되지 않습니다.
func (s *ItemState) Entries() []EnrichedOffer {
	out := make([]EnrichedOffer, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// comparablePrice 값이 없으면 +Inf로 취급하여 가격이 있는 정보보다 항상 뒤에 오도록 합니다.
func comparablePrice(p *int64) float64 {
	if p == nil {
		return math.Inf(1)
	}
	return float64(*p)
}

func comparableRaw(p *float64) float64 {
	if p == nil || !isFinite(*p) {
		return math.Inf(1)
	}
	return *p
}
