package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetForTest(t *testing.T) {
	t.Helper()

	setupOnce = sync.Once{}
	globalCloser = nil
	globalSetupErr = nil

	t.Cleanup(func() {
		setupOnce = sync.Once{}
		globalCloser = nil
		globalSetupErr = nil
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetReportCaller(false)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestSetup_CreatesLogFilesAndRoutes(t *testing.T) {
	resetForTest(t)

	dir := t.TempDir()
	opts := NewProductionOptions("pricewatch")
	opts.Dir = dir

	c, err := Setup(opts)
	require.NoError(t, err)

	WithComponent("pipeline.runner").Info("스냅샷 기록 완료")
	WithComponentAndFields("history.compactor", Fields{"sku_id": "p1"}).Error("이력 저장 실패")
	require.NoError(t, c.Close())

	mainLog, err := os.ReadFile(filepath.Join(dir, "pricewatch.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "스냅샷 기록 완료")
	assert.Contains(t, string(mainLog), "component=pipeline.runner")

	critical, err := os.ReadFile(filepath.Join(dir, "pricewatch.critical.log"))
	require.NoError(t, err)
	assert.Contains(t, string(critical), "sku_id=p1")
	assert.NotContains(t, string(critical), "스냅샷 기록 완료")

	// 두 번째 호출은 최초 결과를 재사용한다.
	c2, err := Setup(Options{})
	assert.NoError(t, err)
	assert.Same(t, c, c2)
}

func TestSetup_InvalidOptions(t *testing.T) {
	resetForTest(t)

	_, err := Setup(Options{})
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"정상", Options{Name: "app"}, false},
		{"이름 누락", Options{}, true},
		{"디렉토리 경로가 파일", Options{Name: "app", Dir: file}, true},
		{"음수 보관 기간", Options{Name: "app", MaxAge: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaskSensitiveData(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", MaskSensitiveData(""))
	assert.Equal(t, "***", MaskSensitiveData("abc"))
	assert.Equal(t, "1234***", MaskSensitiveData("1234567"))
	assert.Equal(t, "1234***WXYZ", MaskSensitiveData("123456789:ABCWXYZ"))
}
