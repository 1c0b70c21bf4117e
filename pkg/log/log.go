// Package log logrus 기반의 전역 로깅 설정과 컴포넌트 단위 로그 헬퍼를 제공합니다.
package log

import (
	"github.com/sirupsen/logrus"
)

// SetDebugMode Debug 모드이면 Trace 레벨, 아니면 Info 레벨로 설정합니다.
func SetDebugMode(debug bool) {
	if debug {
		logrus.SetLevel(TraceLevel)
	} else {
		logrus.SetLevel(InfoLevel)
	}
}

// WithComponent component 필드를 포함한 로그 Entry를 반환합니다.
func WithComponent(component string) *Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields component 필드와 추가 필드를 포함한 로그 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	merged := make(Fields, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["component"] = component

	return logrus.WithFields(merged)
}

// MaskSensitiveData 토큰 등 민감 정보를 로그에 남길 수 있도록 마스킹합니다.
func MaskSensitiveData(data string) string {
	switch {
	case data == "":
		return ""
	case len(data) <= 3:
		return "***"
	case len(data) <= 12:
		return data[:4] + "***"
	default:
		return data[:4] + "***" + data[len(data)-4:]
	}
}

// StandardLogger 전역 logrus Logger를 반환합니다. 외부 라이브러리에 Printf 형태의 로거를 넘길 때 사용합니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}
