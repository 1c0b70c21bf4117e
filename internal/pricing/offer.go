package pricing

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/tidwall/gjson"
)

const componentOffer = "pricing.offer"

// Offer 마켓플레이스 한 곳에서 관측된 단일 판매 정보입니다.
//
// 수치 필드는 포인터이며 nil은 "값 없음"을 뜻합니다.
// EffectivePrice는 파생 값으로, 비어 있으면 EnsureEffectivePrice로 채웁니다.
type Offer struct {
	Title          string   `json:"title,omitempty"`
	ShopName       string   `json:"shopName,omitempty"`
	ShopID         string   `json:"shopId,omitempty"`
	ItemURL        string   `json:"itemUrl,omitempty"`
	URL            string   `json:"url,omitempty"`
	Price          *float64 `json:"price"`
	PointRate      *float64 `json:"pointRate,omitempty"`
	CouponDiscount *float64 `json:"couponDiscount,omitempty"`
	EffectivePrice *int64   `json:"effectivePrice"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	ItemCode       string   `json:"itemCode,omitempty"`

	// priceSeen JSON 디코딩 시 price 키가 존재했는지 여부 (값이 숫자가 아니어도 true)
	priceSeen bool
}

var (
	pointRatePaths = []string{"pointRate", "point_rate", "point.rate", "point.amount", "points.rate", "point"}
	couponPaths    = []string{"couponDiscount", "coupon_discount", "coupon.discount", "coupon.amount"}
	shopIDPaths    = []string{"shopId", "shop_id", "shopCode", "seller.id"}
	itemURLPaths   = []string{"itemUrl", "item_url"}
	imageURLPaths  = []string{"imageUrl", "image_url", "image.small", "image.medium"}
)

// UnmarshalJSON 마켓플레이스마다 다른 필드 이름(중첩 포함)을 허용하여 Offer를 디코딩합니다.
// 객체가 아닌 입력은 ParsingFailed 에러를 반환합니다.
func (o *Offer) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return apperrors.New(apperrors.ParsingFailed, "판매 정보가 올바른 JSON 형식이 아닙니다")
	}

	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return NewErrMalformedOffer(r.Type.String())
	}

	*o = Offer{
		Title:    r.Get("title").String(),
		ShopName: r.Get("shopName").String(),
		URL:      r.Get("url").String(),
		ItemCode: r.Get("itemCode").String(),
	}
	o.ShopID = firstString(r, shopIDPaths)
	o.ItemURL = firstString(r, itemURLPaths)
	o.ImageURL = firstString(r, imageURLPaths)
	if o.ShopName == "" {
		o.ShopName = r.Get("seller.name").String()
	}

	if p := r.Get("price"); p.Exists() {
		o.priceSeen = true
		if p.Type == gjson.Number && isFinite(p.Float()) {
			o.Price = ptr(p.Float())
		} else {
			log.WithComponentAndFields(componentOffer, log.Fields{
				"item_code": o.ItemCode,
				"shop_name": o.ShopName,
				"raw_price": p.Raw,
			}).Debug("숫자가 아닌 price 값은 가격 없음으로 처리합니다")
		}
	}

	o.PointRate = firstNumber(r, pointRatePaths)
	o.CouponDiscount = firstNumber(r, couponPaths)

	if e := r.Get("effectivePrice"); e.Type == gjson.Number && isFinite(e.Float()) && e.Float() >= 0 {
		o.EffectivePrice = ptr(int64(math.Floor(e.Float())))
	}

	return nil
}

// HasPrice price 필드가 존재하는지 여부를 반환합니다. 값이 숫자가 아니더라도 필드가 있으면 true입니다.
func (o *Offer) HasPrice() bool {
	return o.priceSeen || o.Price != nil
}

// OfferList JSON 배열을 디코딩할 때 객체가 아닌 원소를 건너뛰는 Offer 목록입니다.
type OfferList []Offer

func (l *OfferList) UnmarshalJSON(data []byte) error {
	*l = nil

	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		return nil
	}

	list := make(OfferList, 0, len(r.Array()))
	r.ForEach(func(_, v gjson.Result) bool {
		var o Offer
		if err := o.UnmarshalJSON([]byte(v.Raw)); err == nil {
			list = append(list, o)
		}
		return true
	})
	*l = list

	return nil
}

func firstString(r gjson.Result, paths []string) string {
	for _, p := range paths {
		v := r.Get(p)
		switch v.Type {
		case gjson.String:
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		case gjson.Number:
			return v.Raw
		}
	}
	return ""
}

// firstNumber 숫자 또는 숫자 형식의 문자열인 첫 번째 유한 값을 반환합니다.
func firstNumber(r gjson.Result, paths []string) *float64 {
	for _, p := range paths {
		v := r.Get(p)
		switch v.Type {
		case gjson.Number:
			if isFinite(v.Num) {
				return ptr(v.Num)
			}
		case gjson.String:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil && isFinite(f) {
				return ptr(f)
			}
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func ptr[T any](v T) *T {
	return &v
}
