package store

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// RemoteSource 공개 미러(정적 호스팅)에서 이전 결과를 읽어오는 읽기 전용 Source입니다.
//
// 요청은 한 번만 수행하며 재시도하지 않습니다. 실패 시 호출자가 로컬 파일로 대체합니다.
type RemoteSource struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

var _ Source = (*RemoteSource)(nil)

// NewRemoteSource baseURL 하위의 파일을 조회하는 Source를 생성합니다.
// requestsPerSecond가 0 이하이면 요청 속도를 제한하지 않습니다.
func NewRemoteSource(baseURL string, timeout time.Duration, requestsPerSecond float64) *RemoteSource {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-cache")

	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch <baseURL>/<name>을 GET으로 조회합니다. 404는 NotFound로 변환합니다.
func (s *RemoteSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	url := s.baseURL + "/" + strings.TrimLeft(name, "/")

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, NewErrRemoteUnavailable(err, url)
	}

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, NewErrRemoteUnavailable(err, url)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, NewErrNotFound(name)
	case resp.StatusCode() < 200 || resp.StatusCode() >= 300:
		return nil, NewErrRemoteStatus(resp.StatusCode(), url)
	}

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, NewErrRemoteUnavailable(err, url)
	}

	return body, nil
}

// decodeBody Content-Type에 UTF-8이 아닌 문자셋이 명시된 경우에만 UTF-8로 변환합니다.
func decodeBody(body []byte, contentType string) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}

	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	if label == "" || label == "utf-8" || label == "utf8" {
		return body, nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}
