package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	// 시간대 데이터베이스가 없는 컨테이너 환경에서도 time_zone 설정을 해석할 수 있도록 포함합니다.
	_ "time/tzdata"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "pricewatch"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// DotEnvFilename 설정 파일과 같은 디렉토리에서 찾는 환경 변수 파일명입니다.
	// 마켓플레이스 인증 정보처럼 설정 파일에 직접 기록하지 않는 값을 보관합니다.
	DotEnvFilename = ".env"

	// EnvPrefix 설정 값을 덮어쓰는 환경 변수의 접두사입니다.
	EnvPrefix = "PRICEWATCH_"
)

// ------------------------------------------------------------------------------------------------
// 기본값
// ------------------------------------------------------------------------------------------------

const (
	DefaultTimeZone          = "Asia/Tokyo"
	DefaultDataDir           = "data"
	DefaultPublicDir         = "public/data"
	DefaultInboxDir          = "data/inbox"
	DefaultMirrorTimeout     = "10s"
	DefaultRequestsPerSecond = 2
	DefaultRetention         = 30
	DefaultIQRMultiplier     = 1.5
	DefaultMedianRatio       = 4
	DefaultPriceCeiling      = 5_000_000
	DefaultWorkers           = 1
	DefaultTimeSpec          = "0 0 */6 * * *"
	DefaultListenPort        = 8080
)

// newDefaultConfig 설정 파일과 환경 변수가 적용되기 전의 기본 설정을 반환합니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		TimeZone: DefaultTimeZone,
		Storage: StorageConfig{
			DataDir:   DefaultDataDir,
			PublicDir: DefaultPublicDir,
			InboxDir:  DefaultInboxDir,
		},
		Mirror: MirrorConfig{
			Timeout:           DefaultMirrorTimeout,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
		History: HistoryConfig{
			Retention:     DefaultRetention,
			CleanOutliers: true,
			IQRMultiplier: DefaultIQRMultiplier,
			MedianRatio:   DefaultMedianRatio,
			PriceCeiling:  DefaultPriceCeiling,
		},
		Run: RunConfig{
			Workers: DefaultWorkers,
		},
		Scheduler: SchedulerConfig{
			TimeSpec: DefaultTimeSpec,
		},
		API: APIConfig{
			ListenPort:   DefaultListenPort,
			AllowOrigins: []string{"*"},
		},
	}
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 적용 순서는 기본값 → JSON 설정 파일 → 환경 변수이며, 뒤에 적용된 값이 우선합니다.
// 설정 파일과 같은 디렉토리에 .env 파일이 있으면 가장 먼저 읽어 환경 변수로 등록합니다. (이미 설정된 환경 변수는 덮어쓰지 않음)
func LoadWithFile(filename string) (*AppConfig, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(filename), DotEnvFilename)); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(newDefaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 예: PRICEWATCH_HISTORY__RETENTION -> history.retention
	if err := k.Load(env.Provider(EnvPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (정의되지 않은 필드가 있으면 실패)
	var appConfig AppConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &appConfig,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

// normalizeEnvKey 환경 변수 이름을 koanf 키 경로로 변환합니다.
// 접두사를 제거하고 소문자로 바꾼 뒤, 이중 언더스코어(__)를 계층 구분자(.)로 변환합니다.
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("환경 변수 파일에 접근할 수 없습니다: '%s'", path))
	}

	if err := godotenv.Load(path); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("환경 변수 파일을 해석할 수 없습니다: '%s'", path))
	}

	return nil
}
