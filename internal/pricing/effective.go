package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// EffectivePrice 포인트 적립률과 쿠폰 할인을 반영한 실질 구매가를 계산합니다.
//
//	base      = floor(price * (100 - pointRate) / 100)
//	effective = max(0, floor(base - couponDiscount))
//
// price가 없거나 유한한 수가 아니면 false를 반환합니다.
// pointRate와 couponDiscount는 없거나 유한하지 않으면 0으로 간주합니다.
func EffectivePrice(o Offer) (int64, bool) {
	if o.Price == nil || !isFinite(*o.Price) {
		return 0, false
	}

	price := decimal.NewFromFloat(*o.Price)
	rate := finiteOrZero(o.PointRate)
	coupon := finiteOrZero(o.CouponDiscount)

	base := price.Mul(decimal.NewFromInt(100).Sub(rate)).Shift(-2).Floor()
	effective := base.Sub(coupon).Floor()

	switch {
	case effective.IsNegative():
		return 0, true
	case effective.GreaterThan(maxInt64):
		return math.MaxInt64, true
	}

	return effective.IntPart(), true
}

// EnsureEffectivePrice 캐시된 실질 구매가가 없으면 계산하여 채우고 그 값을 반환합니다.
func (o *Offer) EnsureEffectivePrice() (int64, bool) {
	if o.EffectivePrice != nil && *o.EffectivePrice >= 0 {
		return *o.EffectivePrice, true
	}

	v, ok := EffectivePrice(*o)
	if !ok {
		o.EffectivePrice = nil
		return 0, false
	}
	o.EffectivePrice = ptr(v)

	return v, true
}

func finiteOrZero(f *float64) decimal.Decimal {
	if f == nil || !isFinite(*f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
