package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemState_Finalize(t *testing.T) {
	t.Parallel()

	t.Run("실질 구매가 오름차순 정렬과 최저가 선정", func(t *testing.T) {
		s := NewItemState("p1", nil)
		s.Add(newOffer("a", 1000, 0), true)  // 1000
		s.Add(newOffer("b", 1000, 20), true) // 800
		s.Add(newOffer("c", 950, 0), false)  // 950
		s.Add(&Offer{ShopID: "d", ShopName: "d", priceSeen: true}, true)

		item := s.Finalize()

		require.Len(t, item.List, 4)
		assert.Equal(t, []string{"b", "c", "a", "d"}, shopIDs(item.List))
		assert.Equal(t, i64(800), item.BestPrice)
		assert.Equal(t, i64(800), item.BestPriceEffective)
		require.NotNil(t, item.BestShop)
		assert.Equal(t, "shop-b", *item.BestShop)
		require.NotNil(t, item.BestEntryEffective)
		assert.Equal(t, "b", item.BestEntryEffective.ShopID)
	})

	t.Run("실질 구매가가 같으면 판매가로 정렬", func(t *testing.T) {
		s := NewItemState("p1", nil)
		s.Add(newOffer("a", 1000, 10), true) // 900
		s.Add(newOffer("b", 900, 0), true)   // 900

		assert.Equal(t, []string{"b", "a"}, shopIDs(s.Finalize().List))
	})

	t.Run("가격도 같으면 상점명, 식별 키 순으로 정렬", func(t *testing.T) {
		s := NewItemState("p1", nil)
		s.Add(&Offer{ShopID: "2", ShopName: "beta", Price: f64(500)}, true)
		s.Add(&Offer{ShopID: "1", ShopName: "alpha", Price: f64(500)}, true)
		s.Add(&Offer{ShopID: "0", ShopName: "alpha", Price: f64(500)}, true)

		assert.Equal(t, []string{"0", "1", "2"}, shopIDs(s.Finalize().List))
	})

	t.Run("가격 있는 정보가 없으면 첫 번째 정보를 대표로 사용", func(t *testing.T) {
		s := NewItemState("p1", nil)
		s.Add(&Offer{ShopID: "z", ShopName: "zeta", priceSeen: true}, true)

		item := s.Finalize()

		require.NotNil(t, item.BestEntryEffective)
		assert.Equal(t, "z", item.BestEntryEffective.ShopID)
		assert.Nil(t, item.BestPrice)
		assert.Nil(t, item.BestPriceEffective)
		require.NotNil(t, item.BestShop)
		assert.Equal(t, "zeta", *item.BestShop)
	})

	t.Run("정보가 없으면 빈 결과", func(t *testing.T) {
		item := NewItemState("p1", nil).Finalize()

		assert.Equal(t, "p1", item.SkuID)
		assert.Empty(t, item.List)
		assert.NotNil(t, item.List)
		assert.Nil(t, item.BestEntryEffective)
		assert.Nil(t, item.BestShop)
	})
}

func TestSnapshot_Item(t *testing.T) {
	t.Parallel()

	s := &Snapshot{Items: []FinalizedItem{{SkuID: "p1"}, {SkuID: "p2"}}}

	assert.Equal(t, "p2", s.Item("p2").SkuID)
	assert.Nil(t, s.Item("p3"))
	assert.Nil(t, (*Snapshot)(nil).Item("p1"))
}

func TestSourceStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusOK.Contributes())
	assert.True(t, StatusPartial.Contributes())
	assert.False(t, StatusFail.Contributes())
	assert.False(t, StatusDisabled.Contributes())
	assert.False(t, SourceStatus("unknown").Valid())
}

func shopIDs(list OfferList) []string {
	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ShopID)
	}
	return ids
}
