package notification

import (
	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
)

// newErrClientInitFailed 텔레그램 봇 API 클라이언트 초기화에 실패했을 때 반환하는 에러를 생성합니다.
func newErrClientInitFailed(cause error) error {
	return apperrors.Wrap(cause, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요")
}

// newErrSendFailed 메시지 전송이 최종 실패했을 때 반환하는 에러를 생성합니다.
func newErrSendFailed(cause error) error {
	return apperrors.Wrap(cause, apperrors.Unavailable, "텔레그램 메시지 전송에 실패했습니다")
}
