package api

import (
	"fmt"
	"runtime"
	"time"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/labstack/echo/v4"
)

const componentMiddleware = "api.middleware"

// stackBufferSize panic 발생 시 스택 트레이스를 저장할 버퍼 크기 (4KB)
const stackBufferSize = 4 << 10

// panicRecovery 핸들러에서 발생한 panic을 복구하여 500 응답으로 변환하는 미들웨어를 반환합니다.
func panicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = apperrors.New(apperrors.Internal, fmt.Sprintf("%v", r))
					}

					stack := make([]byte, stackBufferSize)
					length := runtime.Stack(stack, false)

					fields := applog.Fields{
						"error": err,
						"stack": string(stack[:length]),
					}
					if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
						fields["request_id"] = requestID
					}

					applog.WithComponentAndFields(componentMiddleware, fields).Error("PANIC RECOVERED")

					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

// httpLogger HTTP 요청/응답을 구조화된 로그로 기록하는 미들웨어를 반환합니다.
func httpLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			defer func() {
				latency := time.Since(start)

				applog.WithComponentAndFields(componentMiddleware, applog.Fields{
					"method":        req.Method,
					"uri":           req.RequestURI,
					"remote_ip":     c.RealIP(),
					"user_agent":    req.UserAgent(),
					"status":        res.Status,
					"bytes_out":     res.Size,
					"latency_human": latency.String(),
					"request_id":    res.Header().Get(echo.HeaderXRequestID),
				}).Info("HTTP 요청")
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}
