// Package cronx 애플리케이션 공통 Cron 표현식 규칙을 제공합니다.
package cronx

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StandardParser 초 단위를 포함하는 6필드 형식([초] [분] [시] [일] [월] [요일])과 Descriptor(@daily 등)를 지원하는 파서를 반환합니다.
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate Cron 표현식이 StandardParser로 해석 가능한지 검사합니다.
func Validate(spec string) error {
	if _, err := StandardParser().Parse(spec); err != nil {
		return fmt.Errorf("잘못된 Cron 표현식입니다(%q): %w", spec, err)
	}
	return nil
}
