package pricing

import (
	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
)

// NewErrMalformedOffer 판매 정보가 객체가 아닐 때 반환하는 에러를 생성합니다.
func NewErrMalformedOffer(kind string) error {
	return apperrors.Newf(apperrors.ParsingFailed, "판매 정보는 객체여야 합니다 (입력 타입: %s)", kind)
}
