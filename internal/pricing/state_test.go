package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemState_Add_Precedence(t *testing.T) {
	t.Parallel()

	t.Run("today 정보는 더 비싸더라도 carried-over 정보를 대체한다", func(t *testing.T) {
		s := NewItemState("p1", nil)
		require.True(t, s.Add(newOffer("x", 800, 0), false))
		require.True(t, s.Add(newOffer("x", 1200, 0), true))

		e, ok := s.Entry("shop:x")
		require.True(t, ok)
		assert.True(t, e.IsToday)
		assert.Equal(t, i64(1200), e.EffectivePrice)
	})

	t.Run("carried-over 정보는 today 정보를 대체하지 않는다", func(t *testing.T) {
		s := NewItemState("p1", nil)
		require.True(t, s.Add(newOffer("x", 1200, 0), true))
		assert.False(t, s.Add(newOffer("x", 800, 0), false))

		e, _ := s.Entry("shop:x")
		assert.Equal(t, i64(1200), e.EffectivePrice)
	})

	t.Run("같은 관측 시점이면 실질 구매가가 낮은 쪽이 남는다", func(t *testing.T) {
		s := NewItemState("p1", nil)
		require.True(t, s.Add(newOffer("x", 1000, 0), true))
		assert.True(t, s.Add(newOffer("x", 1000, 10), true))

		e, _ := s.Entry("shop:x")
		assert.Equal(t, i64(900), e.EffectivePrice)
	})

	t.Run("완전히 같으면 먼저 들어온 정보가 남는다", func(t *testing.T) {
		s := NewItemState("p1", nil)
		first := newOffer("x", 1000, 0)
		first.Title = "first"
		second := newOffer("x", 1000, 0)
		second.Title = "second"

		require.True(t, s.Add(first, true))
		assert.False(t, s.Add(second, true))

		e, _ := s.Entry("shop:x")
		assert.Equal(t, "first", e.Title)
	})

	t.Run("가격 없는 정보는 가격 있는 정보를 이기지 못한다", func(t *testing.T) {
		s := NewItemState("p1", nil)
		require.True(t, s.Add(newOffer("x", 1000, 0), true))
		assert.False(t, s.Add(&Offer{ShopID: "x", priceSeen: true}, true))

		s2 := NewItemState("p1", nil)
		require.True(t, s2.Add(&Offer{ShopID: "x", priceSeen: true}, true))
		assert.True(t, s2.Add(newOffer("x", 1000, 0), true))
	})
}

func TestItemState_Add_DropsMalformed(t *testing.T) {
	t.Parallel()

	s := NewItemState("p1", nil)

	assert.False(t, s.Add(nil, true))
	assert.False(t, s.Add(&Offer{ShopID: "x", Title: "no price"}, true))
	assert.Equal(t, 0, s.Len())
}

func TestItemState_Add_SyntheticKeys(t *testing.T) {
	t.Parallel()

	s := NewItemState("p1", nil)
	require.True(t, s.Add(&Offer{Title: "a", Price: f64(100)}, true))
	require.True(t, s.Add(&Offer{Title: "b", Price: f64(200)}, true))

	_, ok0 := s.Entry("legacy:0")
	_, ok1 := s.Entry("legacy:1")
	assert.True(t, ok0)
	assert.True(t, ok1)
	assert.Equal(t, 2, s.Len())
}

func TestItemState_Add_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	o := newOffer("x", 1000, 10)
	NewItemState("p1", nil).Add(o, true)

	assert.Nil(t, o.EffectivePrice)
}

func TestItemState_EmptyUpdateReproducesPriorOffers(t *testing.T) {
	t.Parallel()

	s := NewItemState("p1", nil)
	s.Add(newOffer("a", 1000, 10), true)
	s.Add(newOffer("b", 950, 0), true)
	s.Add(&Offer{ItemURL: "https://example.com/c", Price: f64(2000)}, true)
	s.Add(&Offer{Title: "keyless", Price: f64(3000)}, true)
	s.Add(&Offer{URL: "https://example.com/unpriced", priceSeen: true}, true)
	prior := s.Finalize()

	again := NewItemState("p1", &prior).Finalize()

	assert.ElementsMatch(t, prior.List, again.List)
	assert.Equal(t, prior, again)
}
