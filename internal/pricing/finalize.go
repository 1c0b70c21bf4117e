package pricing

import (
	"cmp"
	"slices"
)

// FinalizedItem 상품 하나에 대한 이번 실행의 최종 결과입니다.
type FinalizedItem struct {
	SkuID              string    `json:"skuId"`
	BestPrice          *int64    `json:"bestPrice"`
	BestPriceEffective *int64    `json:"bestPriceEffective"`
	BestEntryEffective *Offer    `json:"bestEntryEffective"`
	BestShop           *string   `json:"bestShop"`
	List               OfferList `json:"list"`
}

// Finalize 누적된 판매 정보를 정렬하고 최저가 정보를 선정합니다.
//
// 정렬 기준은 실질 구매가, 판매가, 상점명, 식별 키 순의 오름차순이며, 값이 없는 가격은 +Inf로 취급합니다.
// 최저가는 실질 구매가가 있는 첫 번째 정보이고, 없으면 정렬상 첫 번째 정보를 대표로 사용합니다.
func (s *ItemState) Finalize() FinalizedItem {
	entries := s.Entries()
	slices.SortFunc(entries, compareEntries)

	item := FinalizedItem{
		SkuID: s.skuID,
		List:  make(OfferList, 0, len(entries)),
	}
	for _, e := range entries {
		item.List = append(item.List, e.Offer)
	}

	if len(item.List) == 0 {
		return item
	}

	best := 0
	for i := range item.List {
		if item.List[i].EffectivePrice != nil {
			best = i
			break
		}
	}

	winner := item.List[best]
	item.BestEntryEffective = &winner
	if winner.EffectivePrice != nil {
		item.BestPrice = ptr(*winner.EffectivePrice)
		item.BestPriceEffective = ptr(*winner.EffectivePrice)
	}
	if winner.ShopName != "" {
		item.BestShop = ptr(winner.ShopName)
	}

	return item
}

func compareEntries(a, b EnrichedOffer) int {
	if c := cmp.Compare(comparablePrice(a.EffectivePrice), comparablePrice(b.EffectivePrice)); c != 0 {
		return c
	}
	if c := cmp.Compare(comparableRaw(a.Price), comparableRaw(b.Price)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ShopName, b.ShopName); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}
