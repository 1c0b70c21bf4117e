package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/darkkaiser/pricewatch/pkg/cronx"
	"github.com/darkkaiser/pricewatch/pkg/maputil"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug        bool                `json:"debug"`
	TimeZone     string              `json:"time_zone" validate:"required,timezone"`
	Storage      StorageConfig       `json:"storage"`
	Mirror       MirrorConfig        `json:"mirror"`
	Marketplaces []MarketplaceConfig `json:"marketplaces"`
	Products     []ProductConfig     `json:"products"`
	History      HistoryConfig       `json:"history"`
	Run          RunConfig           `json:"run"`
	Notifier     NotifierConfig      `json:"notifier"`
	Scheduler    SchedulerConfig     `json:"scheduler"`
	API          APIConfig           `json:"api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "애플리케이션", "TimeZone"); err != nil {
		return err
	}

	if err := checkStruct(v, c.Storage, "저장소(storage)"); err != nil {
		return err
	}

	if err := c.Mirror.validate(v); err != nil {
		return err
	}

	if err := c.validateMarketplaces(v); err != nil {
		return err
	}

	if err := c.validateProducts(v); err != nil {
		return err
	}

	if err := checkStruct(v, c.History, "가격 이력(history)"); err != nil {
		return err
	}

	if err := checkStruct(v, c.Run, "실행(run)"); err != nil {
		return err
	}

	if err := checkStruct(v, c.Notifier.Telegram, "텔레그램 알림(notifier.telegram)"); err != nil {
		return err
	}

	if err := cronx.Validate(c.Scheduler.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("스케줄러(time_spec) 설정이 유효하지 않습니다: '%s'", c.Scheduler.TimeSpec))
	}

	if err := c.API.validate(v); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) validateMarketplaces(v *validator.Validate) error {
	if err := checkUniqueField(v, c.Marketplaces, "ID", "마켓플레이스"); err != nil {
		return err
	}

	// 서로 다른 ID라도 sourceStatus 키로 변환했을 때 같아지면 상태가 덮어써진다.
	keys := make(map[string]string, len(c.Marketplaces))
	for _, m := range c.Marketplaces {
		if err := checkStruct(v, m, fmt.Sprintf("Marketplace['%s']", m.ID)); err != nil {
			return err
		}

		key := m.StatusKey()
		if other, exists := keys[key]; exists {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Marketplace['%s']와 Marketplace['%s']의 상태 키('%s')가 중복됩니다", other, m.ID, key))
		}
		keys[key] = m.ID

		if !filepath.IsLocal(m.SnapshotFile) {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Marketplace['%s']의 스냅샷 파일(snapshot_file)은 수신 디렉토리 기준의 상대 경로여야 합니다: '%s'", m.ID, m.SnapshotFile))
		}

		if _, err := m.Settings(); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("Marketplace['%s']의 부가 설정(data)이 올바르지 않습니다", m.ID))
		}
	}

	return nil
}

func (c *AppConfig) validateProducts(v *validator.Validate) error {
	if err := checkUniqueField(v, c.Products, "ID", "상품"); err != nil {
		return err
	}

	for _, p := range c.Products {
		if err := checkStruct(v, p, fmt.Sprintf("Product['%s']", p.ID)); err != nil {
			return err
		}
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if len(c.Marketplaces) == 0 {
		warnings = append(warnings, "등록된 마켓플레이스(marketplaces)가 없습니다. 모든 실행에서 이전 스냅샷이 그대로 유지됩니다")
	}
	if len(c.Products) == 0 {
		warnings = append(warnings, "등록된 상품(products)이 없습니다. 집계 스냅샷이 비어 있게 됩니다")
	}
	if c.Mirror.BaseURL == "" {
		warnings = append(warnings, "공개 미러 주소(mirror.base_url)가 설정되지 않았습니다. 이전 실행 결과는 로컬 데이터 디렉토리에서만 조회합니다")
	}

	return append(warnings, c.API.VerifyRecommendations()...)
}

// Location 설정된 시간대를 반환합니다. 유효성 검사를 통과한 설정에서만 호출해야 합니다.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StorageConfig 로컬 저장 경로 설정
type StorageConfig struct {
	DataDir   string `json:"data_dir" validate:"required"`   // 이전 실행 결과의 기본 저장 위치
	PublicDir string `json:"public_dir" validate:"required"` // 공개 미러로 배포되는 사본의 저장 위치
	InboxDir  string `json:"inbox_dir" validate:"required"`  // 수집기가 마켓플레이스 스냅샷을 남기는 위치
}

// MirrorConfig 이전 실행 결과를 조회하는 공개 미러 설정
type MirrorConfig struct {
	BaseURL           string  `json:"base_url" validate:"omitempty,http_url"`
	Timeout           string  `json:"timeout"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gt=0"`
}

func (c *MirrorConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "공개 미러(mirror)"); err != nil {
		return err
	}

	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("공개 미러 요청 제한 시간(timeout) 설정이 올바르지 않습니다: '%s' (예: 10s, 500ms)", c.Timeout))
	}

	return nil
}

// TimeoutDuration 요청 제한 시간을 반환합니다.
func (c *MirrorConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MarketplaceConfig 외부 수집기가 판매 정보를 남기는 마켓플레이스 하나의 설정
type MarketplaceConfig struct {
	ID            string         `json:"id" validate:"required"`
	Title         string         `json:"title"`
	CredentialEnv string         `json:"credential_env"`                    // 비어 있으면 항상 사용
	SnapshotFile  string         `json:"snapshot_file" validate:"required"` // inbox_dir 기준 상대 경로
	Data          map[string]any `json:"data"`
}

// MarketplaceSettings 마켓플레이스별 부가 설정(data)입니다.
type MarketplaceSettings struct {
	DefaultPointRate float64 `json:"default_point_rate"`
	StripHTMLTitles  bool    `json:"strip_html_titles"`
}

// Settings 부가 설정을 해석합니다. 알 수 없는 키가 있으면 에러를 반환합니다.
func (c *MarketplaceConfig) Settings() (*MarketplaceSettings, error) {
	settings, err := maputil.Decode[MarketplaceSettings](c.Data, maputil.WithErrorUnused(true))
	if err != nil {
		return nil, err
	}
	if settings.DefaultPointRate < 0 || settings.DefaultPointRate > 100 {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("기본 포인트 적립률(default_point_rate)은 0에서 100 사이의 값이어야 합니다: '%v'", settings.DefaultPointRate))
	}
	return settings, nil
}

// StatusKey sourceStatus에 기록되는 정규화된 마켓플레이스 키(snake_case)를 반환합니다.
func (c *MarketplaceConfig) StatusKey() string {
	return strcase.ToSnake(c.ID)
}

// Enabled 인증 정보 환경 변수가 지정되어 있으면 그 값이 비어 있지 않은지 여부를 반환합니다.
func (c *MarketplaceConfig) Enabled() bool {
	if c.CredentialEnv == "" {
		return true
	}
	return strings.TrimSpace(os.Getenv(c.CredentialEnv)) != ""
}

// ProductConfig 가격을 추적하는 상품 하나의 설정
type ProductConfig struct {
	ID                 string   `json:"id" validate:"required,product_id"`
	Query              string   `json:"query"`
	Filters            []string `json:"filters"`
	BrandHints         []string `json:"brand_hints"`
	ExcludeAccessories bool     `json:"exclude_accessories"`
}

// HistoryConfig 가격 이력 압축 설정
type HistoryConfig struct {
	Retention     int     `json:"retention" validate:"min=1"`
	CleanOutliers bool    `json:"clean_outliers"`
	Backfill      bool    `json:"backfill"`
	IQRMultiplier float64 `json:"iqr_multiplier" validate:"gt=0"`
	MedianRatio   float64 `json:"median_ratio" validate:"gt=0"`
	PriceCeiling  float64 `json:"price_ceiling" validate:"gt=0"`
}

// RunConfig 배치 실행 설정
type RunConfig struct {
	DryRun  bool `json:"dry_run"`
	Workers int  `json:"workers" validate:"min=1,max=32"`
}

// NotifierConfig 실행 결과 알림 설정
type NotifierConfig struct {
	Telegram            TelegramConfig `json:"telegram"`
	NotifyOnFailureOnly bool           `json:"notify_on_failure_only"`
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체. 봇 토큰이 비어 있으면 알림을 보내지 않습니다.
type TelegramConfig struct {
	BotToken string `json:"bot_token" validate:"omitempty,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required_with=BotToken"`
}

// Enabled 텔레그램 알림 사용 여부를 반환합니다.
func (c *TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

// SchedulerConfig 주기 실행 설정
type SchedulerConfig struct {
	TimeSpec string `json:"time_spec"`
}

// APIConfig 공개 미러 조회 API 서버 설정
type APIConfig struct {
	ListenPort   int      `json:"listen_port" validate:"min=1,max=65535"`
	AllowOrigins []string `json:"allow_origins"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "API 서버(api)", "ListenPort"); err != nil {
		return err
	}

	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			if len(c.AllowOrigins) > 1 {
				return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
			}
			continue
		}

		if err := v.Var(origin, "cors_origin"); err != nil {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%s' (형식: Scheme://Host[:Port], 예: https://example.com)", origin))
		}
	}

	return nil
}

// VerifyRecommendations 시스템 예약 포트 사용 여부를 진단합니다.
func (c *APIConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.ListenPort))
	}

	return warnings
}
