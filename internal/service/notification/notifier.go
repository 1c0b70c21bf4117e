// Package notification 배치 실행 결과를 관리자에게 알리는 Notifier와 요약 메시지 생성기를 제공합니다.
package notification

import (
	"context"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/pkg/log"
)

const component = "notification"

// Notifier 알림 메시지를 전송합니다. 메시지는 텔레그램 HTML 서식을 따릅니다.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// New 설정에 따라 Notifier를 생성합니다. 텔레그램 봇 토큰이 비어 있으면 아무것도 보내지 않는 Notifier를 반환합니다.
func New(appConfig *config.AppConfig) (Notifier, error) {
	telegram := appConfig.Notifier.Telegram
	if !telegram.Enabled() {
		log.WithComponent(component).Info("텔레그램 봇 토큰이 설정되지 않아 알림을 보내지 않습니다")
		return NewNoop(), nil
	}

	return newTelegramNotifier(telegram, appConfig.Debug)
}

type noopNotifier struct{}

// NewNoop 메시지를 로그로만 남기는 Notifier를 반환합니다.
func NewNoop() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(_ context.Context, message string) error {
	log.WithComponentAndFields(component, log.Fields{
		"message_length": len(message),
	}).Debug("알림이 비활성화되어 메시지를 전송하지 않습니다")
	return nil
}
