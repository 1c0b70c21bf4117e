package notification

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const componentTelegram = "notification.telegram"

const (
	// messageMaxLength 텔레그램 Bot API의 메시지 길이 제한(4096)에 HTML 태그 여유분을 뺀 값입니다.
	messageMaxLength = 3900

	// maxRetries 메시지 청크 하나당 최대 전송 시도 횟수입니다.
	maxRetries = 3

	defaultRetryDelay = 1 * time.Second

	// defaultRateLimit 채팅방당 초당 1회 전송 권장 정책을 따릅니다.
	defaultRateLimit = 1
	defaultRateBurst = 5

	// defaultHTTPClientTimeout http.DefaultClient는 타임아웃이 없으므로 반드시 명시합니다.
	defaultHTTPClientTimeout = 30 * time.Second
)

// client 텔레그램 봇 API 중 메시지 전송 부분만 추상화한 인터페이스입니다.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramNotifier 텔레그램 채팅방 하나로 메시지를 전송하는 Notifier입니다.
type telegramNotifier struct {
	chatID int64
	client client

	retryDelay  time.Duration
	rateLimiter *rate.Limiter
}

var _ Notifier = (*telegramNotifier)(nil)

func newTelegramNotifier(c config.TelegramConfig, debug bool) (*telegramNotifier, error) {
	log.WithComponentAndFields(componentTelegram, log.Fields{
		"bot_token": log.MaskSensitiveData(c.BotToken),
		"chat_id":   c.ChatID,
	}).Debug("텔레그램 봇 API 클라이언트를 초기화합니다")

	httpClient := &http.Client{
		Timeout: defaultHTTPClientTimeout,
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(c.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, newErrClientInitFailed(err)
	}
	botAPI.Debug = debug

	return newTelegramNotifierWithClient(c.ChatID, botAPI), nil
}

func newTelegramNotifierWithClient(chatID int64, c client) *telegramNotifier {
	return &telegramNotifier{
		chatID:      chatID,
		client:      c,
		retryDelay:  defaultRetryDelay,
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
	}
}

// Notify 메시지를 길이 제한에 맞춰 분할한 뒤 순서대로 전송합니다. 청크 하나라도 최종 실패하면 나머지는 보내지 않습니다.
func (n *telegramNotifier) Notify(ctx context.Context, message string) error {
	for _, chunk := range splitMessage(message, messageMaxLength) {
		if err := n.sendWithRetry(ctx, chunk, true); err != nil {
			return newErrSendFailed(err)
		}
	}
	return nil
}

// sendWithRetry 청크 하나를 전송합니다.
//
// 재시도 가능한 오류(5xx, 429, 네트워크 오류)는 최대 maxRetries회까지 재시도하고,
// HTML 파싱 오류(400)는 PlainText 모드로 한 번 더 시도합니다.
func (n *telegramNotifier) sendWithRetry(ctx context.Context, message string, useHTML bool) error {
	messageConfig := tgbotapi.NewMessage(n.chatID, message)
	if useHTML {
		messageConfig.ParseMode = tgbotapi.ModeHTML
	}

	if n.rateLimiter != nil {
		if err := n.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	logger := log.WithComponentAndFields(componentTelegram, log.Fields{
		"chat_id":        n.chatID,
		"mode":           formatParseMode(messageConfig.ParseMode),
		"message_length": len(message),
	})

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := n.client.Send(messageConfig)
		if err == nil {
			logger.WithField("attempt", attempt).Info("텔레그램 메시지를 전송했습니다")
			return nil
		}

		lastErr = err
		errCode, retryAfter := parseTelegramError(err)

		logger.WithFields(log.Fields{
			"attempt": attempt,
			"code":    errCode,
			"error":   err,
		}).Warn("텔레그램 메시지 전송에 실패했습니다")

		if useHTML && errCode == http.StatusBadRequest {
			logger.Warn("HTML 파싱 오류로 PlainText 모드로 전환하여 재시도합니다")
			return n.sendWithRetry(ctx, message, false)
		}

		if !shouldRetry(errCode) || attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.delayForRetry(retryAfter)):
		}
	}

	return lastErr
}

// shouldRetry 4xx 중 429를 제외한 오류는 재시도해도 결과가 같으므로 false를 반환합니다.
func shouldRetry(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == http.StatusTooManyRequests
	}
	return true
}

// delayForRetry 서버가 Retry-After(초)를 지정했으면 그 값을, 아니면 기본 대기 시간을 사용합니다.
func (n *telegramNotifier) delayForRetry(retryAfter int) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	return n.retryDelay
}

func formatParseMode(mode string) string {
	if mode == tgbotapi.ModeHTML {
		return "HTML"
	}
	return "PlainText"
}

// parseTelegramError 텔레그램 API 에러에서 에러 코드와 Retry-After 값을 추출합니다. 그 외의 에러는 (0, 0)입니다.
func parseTelegramError(err error) (code int, retryAfter int) {
	switch e := err.(type) {
	case tgbotapi.Error:
		return e.Code, e.ResponseParameters.RetryAfter
	case *tgbotapi.Error:
		return e.Code, e.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// splitMessage 메시지를 줄 단위로 묶어 limit 바이트 이하의 청크로 나눕니다.
// 한 줄이 limit를 넘으면 UTF-8 문자 경계에서 강제로 자릅니다.
func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var chunks []string
	var sb strings.Builder
	sb.Grow(limit)

	flush := func() {
		if sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
	}

	for line := range strings.SplitSeq(message, "\n") {
		needed := len(line)
		if sb.Len() > 0 {
			needed++
		}

		if sb.Len()+needed <= limit {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
			continue
		}

		flush()

		for len(line) > limit {
			var chunk string
			chunk, line = safeSplit(line, limit)
			chunks = append(chunks, chunk)
		}
		sb.WriteString(line)
	}
	flush()

	return chunks
}

// safeSplit 멀티바이트 문자가 깨지지 않도록 limit 바이트 이내의 룬 경계에서 문자열을 자릅니다.
func safeSplit(s string, limit int) (chunk, remainder string) {
	if len(s) <= limit {
		return s, ""
	}

	splitIndex := limit
	for splitIndex > 0 && !utf8.RuneStart(s[splitIndex]) {
		splitIndex--
	}
	if splitIndex == 0 {
		return s[:limit], s[limit:]
	}

	return s[:splitIndex], s[splitIndex:]
}
