package pricing

import "strconv"

const (
	shopKeyPrefix   = "shop:"
	urlKeyPrefix    = "url:"
	legacyKeyPrefix = "legacy:"
)

// ResolveKey 동일한 판매 정보를 식별하는 키를 반환합니다.
//
// 우선순위는 shopId(shop:) > itemUrl(url:) > url(url:) 이며, 모두 비어 있으면 false를 반환합니다.
// 제목은 실행마다 바뀔 수 있으므로 식별에 사용하지 않습니다.
func ResolveKey(o Offer) (string, bool) {
	switch {
	case o.ShopID != "":
		return shopKeyPrefix + o.ShopID, true
	case o.ItemURL != "":
		return urlKeyPrefix + o.ItemURL, true
	case o.URL != "":
		return urlKeyPrefix + o.URL, true
	}
	return "", false
}

func legacyKey(seq int) string {
	return legacyKeyPrefix + strconv.Itoa(seq)
}
