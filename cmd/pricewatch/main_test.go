package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func stubLogging(t *testing.T) {
	t.Helper()

	orig := setupLogging
	setupLogging = func(*config.AppConfig) (io.Closer, error) { return nopCloser{}, nil }
	t.Cleanup(func() { setupLogging = orig })
}

type testEnv struct {
	configFile string
	dataDir    string
	publicDir  string
	inboxDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stubLogging(t)

	root := t.TempDir()
	env := &testEnv{
		configFile: filepath.Join(root, config.DefaultFilename),
		dataDir:    filepath.Join(root, "data"),
		publicDir:  filepath.Join(root, "public"),
		inboxDir:   filepath.Join(root, "inbox"),
	}

	content, err := json.Marshal(map[string]any{
		"storage": map[string]any{
			"data_dir":   env.dataDir,
			"public_dir": env.publicDir,
			"inbox_dir":  env.inboxDir,
		},
		"marketplaces": []map[string]any{
			{"id": "rakuten", "snapshot_file": "rakuten.json"},
		},
		"products": []map[string]any{
			{"id": "p1"},
			{"id": "p2"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.configFile, content, 0644))

	return env
}

func (e *testEnv) put(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (e *testEnv) execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(append(args, "--config", e.configFile), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const rakutenSnapshot = `{
	"items": [{"skuId": "p1", "list": [{"shopId": "x", "shopName": "X", "price": 1000, "pointRate": 10}]}],
	"sourceStatus": {"rakuten": "ok"}
}`

func TestExecute_ConfigError(t *testing.T) {
	stubLogging(t)

	var stdout, stderr bytes.Buffer
	code := execute([]string{"run", "--config", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[FATAL]")
	assert.Contains(t, stderr.String(), "환경설정 로드 실패")
}

func TestExecute_Run(t *testing.T) {
	t.Run("집계 스냅샷과 가격 이력 기록", func(t *testing.T) {
		env := newTestEnv(t)
		env.put(t, env.inboxDir, "rakuten.json", rakutenSnapshot)

		code, _, stderr := env.execute("run", "--today", "2024-05-10")
		require.Equal(t, 0, code, stderr)

		assert.FileExists(t, filepath.Join(env.dataDir, "prices", "today.json"))
		assert.FileExists(t, filepath.Join(env.publicDir, "prices", "today.json"))

		data, err := os.ReadFile(filepath.Join(env.dataDir, "price-history", "p1.json"))
		require.NoError(t, err)
		doc, err := history.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, []history.Entry{{Date: "2024-05-10", Price: 900}}, doc.History)
	})

	t.Run("dry-run은 아무것도 기록하지 않음", func(t *testing.T) {
		env := newTestEnv(t)
		env.put(t, env.inboxDir, "rakuten.json", rakutenSnapshot)

		code, _, stderr := env.execute("run", "--dry-run")
		require.Equal(t, 0, code, stderr)

		assert.NoFileExists(t, filepath.Join(env.dataDir, "prices", "today.json"))
		assert.NoFileExists(t, filepath.Join(env.dataDir, "price-history", "p1.json"))
	})

	t.Run("모든 마켓플레이스 실패 시 빈 스냅샷 기록", func(t *testing.T) {
		env := newTestEnv(t)

		code, _, stderr := env.execute("run")
		require.Equal(t, 0, code, stderr)

		data, err := os.ReadFile(filepath.Join(env.dataDir, "prices", "today.json"))
		require.NoError(t, err)

		var snapshot map[string]any
		require.NoError(t, json.Unmarshal(data, &snapshot))
		assert.Equal(t, []any{}, snapshot["items"])
		assert.Equal(t, map[string]any{"rakuten": "fail"}, snapshot["sourceStatus"])
	})

	t.Run("잘못된 날짜 형식", func(t *testing.T) {
		env := newTestEnv(t)

		code, _, stderr := env.execute("run", "--today", "2024/05/10")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "YYYY-MM-DD")
	})
}

func TestExecute_Export(t *testing.T) {
	t.Run("설정된 상품 순서대로 시트 생성", func(t *testing.T) {
		env := newTestEnv(t)
		env.put(t, env.dataDir, "price-history/p1.json", `{"meta":{"valueType":"effectivePrice"},"history":[{"date":"2024-05-10","price":900},{"date":"2024-05-09","price":950}]}`)
		out := filepath.Join(t.TempDir(), "history.xlsx")

		code, stdout, stderr := env.execute("export", "--out", out)
		require.Equal(t, 0, code, stderr)
		assert.Contains(t, stdout, "상품 2개")

		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"p1", "p2"}, f.GetSheetList())

		rows, err := f.GetRows("p1")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"date", "price"}, {"2024-05-10", "900"}, {"2024-05-09", "950"}}, rows)
	})

	t.Run("손상된 이력은 빈 시트로 내보냄", func(t *testing.T) {
		env := newTestEnv(t)
		env.put(t, env.dataDir, "price-history/p1.json", `{broken`)
		out := filepath.Join(t.TempDir(), "history.xlsx")

		code, _, stderr := env.execute("export", "--out", out)
		require.Equal(t, 0, code, stderr)

		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("p1")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"date", "price"}}, rows)
	})

	t.Run("출력 경로 누락", func(t *testing.T) {
		env := newTestEnv(t)

		code, _, stderr := env.execute("export")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "out")
	})
}

// fakeService 종료 컨텍스트가 취소되면 serviceStopWG.Done()을 호출하는 서비스입니다.
type fakeService struct {
	startErr error
	stopped  chan struct{}
}

func newFakeService(startErr error) *fakeService {
	return &fakeService{startErr: startErr, stopped: make(chan struct{})}
}

func (s *fakeService) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	if s.startErr != nil {
		serviceStopWG.Done()
		return s.startErr
	}

	go func() {
		defer serviceStopWG.Done()
		<-serviceStopCtx.Done()
		close(s.stopped)
	}()
	return nil
}

func TestRunServices(t *testing.T) {
	t.Run("컨텍스트 취소 시 모든 서비스 종료", func(t *testing.T) {
		s1, s2 := newFakeService(nil), newFakeService(nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- runServices(ctx, s1, s2) }()

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("runServices가 종료되지 않았습니다")
		}

		assert.True(t, isClosed(s1.stopped))
		assert.True(t, isClosed(s2.stopped))
	})

	t.Run("시작 실패 시 이미 시작된 서비스 종료", func(t *testing.T) {
		startErr := errors.New("bind failed")
		s1, s2 := newFakeService(nil), newFakeService(startErr)

		err := runServices(context.Background(), s1, s2)

		require.Error(t, err)
		assert.ErrorIs(t, err, startErr)
		assert.True(t, isClosed(s1.stopped))
	})
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
