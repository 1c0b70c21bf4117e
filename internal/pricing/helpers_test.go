package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

// newOffer 테스트용 판매 정보를 생성합니다.
func newOffer(shopID string, price float64, rate float64) *Offer {
	return &Offer{
		Title:     "Samsung 990 PRO 1TB",
		ShopName:  "shop-" + shopID,
		ShopID:    shopID,
		Price:     f64(price),
		PointRate: f64(rate),
	}
}

func decodeOffer(t *testing.T, raw string) Offer {
	t.Helper()

	var o Offer
	require.NoError(t, json.Unmarshal([]byte(raw), &o))
	return o
}
