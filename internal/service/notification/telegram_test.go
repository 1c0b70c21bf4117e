package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockClient 텔레그램 봇 API client의 Mock 구현체입니다.
type mockClient struct {
	mock.Mock
}

var _ client = (*mockClient)(nil)

func (m *mockClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(1)
}

func withMode(mode string) any {
	return mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.ParseMode == mode
	})
}

func newTestNotifier(t *testing.T) (*telegramNotifier, *mockClient) {
	t.Helper()

	c := &mockClient{}
	c.Test(t)

	n := newTelegramNotifierWithClient(12345, c)
	n.retryDelay = time.Millisecond
	n.rateLimiter = rate.NewLimiter(rate.Inf, 0)

	return n, c
}

func TestTelegramNotifier_Notify(t *testing.T) {
	t.Parallel()

	t.Run("HTML 모드로 전송", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		c.On("Send", mock.MatchedBy(func(mc tgbotapi.MessageConfig) bool {
			return mc.ChatID == 12345 && mc.Text == "<b>hello</b>" && mc.ParseMode == tgbotapi.ModeHTML
		})).Return(tgbotapi.Message{}, nil).Once()

		require.NoError(t, n.Notify(context.Background(), "<b>hello</b>"))
		c.AssertExpectations(t)
	})

	t.Run("HTML 파싱 오류 시 PlainText로 재전송", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		c.On("Send", withMode(tgbotapi.ModeHTML)).Return(tgbotapi.Message{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"}).Once()
		c.On("Send", withMode("")).Return(tgbotapi.Message{}, nil).Once()

		require.NoError(t, n.Notify(context.Background(), "<b>broken"))
		c.AssertExpectations(t)
	})

	t.Run("서버 오류는 재시도", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		c.On("Send", mock.Anything).Return(tgbotapi.Message{}, &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}).Once()
		c.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil).Once()

		require.NoError(t, n.Notify(context.Background(), "hello"))
		c.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("재시도 횟수 초과", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		networkErr := errors.New("connection reset")
		c.On("Send", mock.Anything).Return(tgbotapi.Message{}, networkErr)

		err := n.Notify(context.Background(), "hello")

		require.Error(t, err)
		assert.ErrorIs(t, err, networkErr)
		assert.True(t, apperrors.Is(err, apperrors.Unavailable))
		c.AssertNumberOfCalls(t, "Send", maxRetries)
	})

	t.Run("재시도할 수 없는 오류는 즉시 실패", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		c.On("Send", mock.Anything).Return(tgbotapi.Message{}, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"})

		require.Error(t, n.Notify(context.Background(), "hello"))
		c.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("취소된 컨텍스트", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := n.Notify(ctx, "hello")

		assert.ErrorIs(t, err, context.Canceled)
		c.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("긴 메시지는 나누어 순서대로 전송", func(t *testing.T) {
		t.Parallel()

		n, c := newTestNotifier(t)
		var sent []string
		c.On("Send", mock.Anything).Run(func(args mock.Arguments) {
			sent = append(sent, args.Get(0).(tgbotapi.MessageConfig).Text)
		}).Return(tgbotapi.Message{}, nil)

		line := strings.Repeat("a", 100)
		lines := make([]string, 50)
		for i := range lines {
			lines[i] = line
		}

		require.NoError(t, n.Notify(context.Background(), strings.Join(lines, "\n")))
		require.Len(t, sent, 2)
		assert.Equal(t, strings.Join(lines, "\n"), sent[0]+"\n"+sent[1])
	})
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		message  string
		limit    int
		expected []string
	}{
		{"제한 이내", "abc\ndef", 10, []string{"abc\ndef"}},
		{"줄 단위로 분할", "abc\ndef\nghi", 8, []string{"abc\ndef", "ghi"}},
		{"긴 줄은 강제로 분할", "abcdefghij\nk", 4, []string{"abcd", "efgh", "ij\nk"}},
		{"빈 메시지", "", 10, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitMessage(tt.message, tt.limit))
		})
	}
}

func TestSafeSplit(t *testing.T) {
	t.Parallel()

	// "가"는 UTF-8로 3바이트
	chunk, remainder := safeSplit("가나다", 4)
	assert.Equal(t, "가", chunk)
	assert.Equal(t, "나다", remainder)

	chunk, remainder = safeSplit("abc", 10)
	assert.Equal(t, "abc", chunk)
	assert.Empty(t, remainder)
}

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	assert.True(t, shouldRetry(0))
	assert.True(t, shouldRetry(429))
	assert.True(t, shouldRetry(500))
	assert.False(t, shouldRetry(400))
	assert.False(t, shouldRetry(403))
}
