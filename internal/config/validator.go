package config

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 검증을 위한 정규식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

	// 상품 ID는 가격 이력 파일명으로 그대로 사용된다.
	productIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: ListenPort) 대신 JSON 이름(예: listen_port)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 커스텀 유효성 검사 함수 등록
	if err := v.RegisterValidation("cors_origin", validateCORSOrigin); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'cors_origin' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("product_id", validateProductID); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'product_id' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateCORSOrigin 입력된 문자열이 "Scheme://Host[:Port]" 형태의 Origin인지 검증합니다.
// 경로, 쿼리, 프래그먼트, 사용자 정보가 포함되거나 끝에 슬래시(/)가 붙으면 유효하지 않습니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	origin := fl.Field().String()
	if origin == "" || strings.HasSuffix(origin, "/") {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != "" && u.Hostname() != "" && u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}

// validateTelegramBotToken 입력된 문자열이 유효한 텔레그램 봇 토큰 형식인지 검증합니다.
//
// 텔레그램 봇 토큰은 식별자(숫자)와 비밀키(문자열)가 콜론(:)으로 구분된 형태여야 합니다.
// 예: "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// validateProductID 상품 ID가 파일명으로 안전한지 검증합니다. ("." 과 ".."은 허용하지 않음)
func validateProductID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return productIDRegex.MatchString(id) && id != "." && id != ".."
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
//
// 선택적 인자인 fields를 제공하면 해당 필드 범위 내에서만 부분 검증(Partial Validation)을 수행합니다.
func checkStruct(v *validator.Validate, s any, contextName string, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = v.StructPartial(s, fields...)
	} else {
		err = v.Struct(s)
	}

	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	// 첫 번째 에러만 상세히 보고
	firstErr := validationErrors[0]

	// 필드별(Field) 커스텀 에러 처리
	switch firstErr.StructField() {
	case "TimeZone":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("시간대(time_zone) 설정이 올바르지 않습니다: '%v' (예: Asia/Tokyo)", firstErr.Value()))
	case "ListenPort":
		return apperrors.New(apperrors.InvalidInput, "웹 서비스 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	case "Retention":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("가격 이력 보관 개수(retention)는 1 이상이어야 합니다: '%v'", firstErr.Value()))
	case "Workers":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("가격 이력 동시 처리 개수(workers)는 1에서 32 사이의 값이어야 합니다: '%v'", firstErr.Value()))
	case "BaseURL":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("공개 미러 주소(base_url) 형식이 올바르지 않습니다: '%v' (예: https://example.github.io/pricewatch)", firstErr.Value()))
	case "ChatID":
		return apperrors.New(apperrors.InvalidInput, "텔레그램 봇 토큰(bot_token)을 설정한 경우 채팅 ID(chat_id)는 필수입니다")
	}

	// 태그별(Tag) 커스텀 에러 처리 (범용)
	switch firstErr.Tag() {
	case "product_id":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("상품 ID는 영문, 숫자, 밑줄(_), 하이픈(-), 점(.)으로만 구성되어야 합니다: '%v'", firstErr.Value()))
	case "telegram_bot_token":
		return apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 형식이 올바르지 않습니다 (올바른 형식: 123456:ABC-DEF...)")
	case "gt":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 %s 값은 0보다 커야 합니다: '%v'", contextName, firstErr.Field(), firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
}

// checkUniqueField 슬라이스 내의 특정 필드 값이 유일한지 검사합니다.
func checkUniqueField(v *validator.Validate, data any, fieldName, contextName string) error {
	if err := v.Var(data, "unique="+fieldName); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				if fieldErr.Tag() == "unique" {
					return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s ID가 존재합니다 (설정 값을 확인해주세요)", contextName))
				}
			}
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유일성 검증에 실패했습니다", contextName))
	}
	return nil
}
