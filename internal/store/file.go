package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/darkkaiser/pricewatch/pkg/concurrency"
	"github.com/darkkaiser/pricewatch/pkg/log"
)

const componentFile = "store.file"

const (
	// tempFilePattern 원자적 쓰기 중 생성되는 임시 파일의 이름 패턴입니다.
	tempFilePattern = "pricewatch-*.tmp"

	staleTempFileAge = time.Hour
)

// FileStore 로컬 디렉토리를 루트로 하는 파일 저장소입니다.
//
// 쓰기는 "임시 파일 쓰기 → fsync → rename → 디렉토리 fsync" 순서로 수행되어
// 중간에 프로세스가 종료되어도 기존 파일이 손상되지 않습니다.
type FileStore struct {
	baseDir string
	locks   *concurrency.KeyedMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore 디렉토리를 준비하고 이전 실행에서 남은 오래된 임시 파일을 정리한 뒤 저장소를 반환합니다.
func NewFileStore(dir string) (*FileStore, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, NewErrPathResolutionFailed(err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, NewErrDirectoryAccessFailed(err, absDir)
	}

	s := &FileStore{
		baseDir: absDir,
		locks:   concurrency.NewKeyedMutex(),
	}
	s.cleanupStaleTempFiles(time.Now().Add(-staleTempFileAge))

	return s, nil
}

// Dir 저장소 루트의 절대 경로를 반환합니다.
func (s *FileStore) Dir() string {
	return s.baseDir
}

// Fetch 파일을 읽습니다. 파일이 없으면 NotFound 에러를 반환합니다.
func (s *FileStore) Fetch(_ context.Context, name string) ([]byte, error) {
	path, err := s.resolveSafePath(name)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.locks.WithLock(strings.ToLower(path), func() error {
		var readErr error
		if data, readErr = os.ReadFile(path); readErr != nil {
			if os.IsNotExist(readErr) {
				return NewErrNotFound(name)
			}
			return NewErrReadFailed(readErr, name)
		}
		return nil
	})

	return data, err
}

// Write 파일을 원자적으로 교체합니다.
func (s *FileStore) Write(_ context.Context, name string, data []byte) error {
	path, err := s.resolveSafePath(name)
	if err != nil {
		return err
	}

	return s.locks.WithLock(strings.ToLower(path), func() error {
		return writeAtomic(path, data)
	})
}

// resolveSafePath 이름을 절대 경로로 변환하고, 결과가 저장소 루트 밖이면 거부합니다.
func (s *FileStore) resolveSafePath(name string) (string, error) {
	cleanPath := filepath.Join(s.baseDir, filepath.FromSlash(name))

	rel, err := filepath.Rel(s.baseDir, cleanPath)
	if err != nil {
		return "", NewErrPathResolutionFailed(err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		log.WithComponentAndFields(componentFile, log.Fields{
			"name":     name,
			"base_dir": s.baseDir,
			"rel_path": rel,
		}).Error("파일 경로 생성 차단: 경로 이탈 시도 감지")

		return "", ErrPathTraversalDetected
	}

	return cleanPath, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewErrWriteFailed(err, "디렉토리 생성")
	}

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return NewErrWriteFailed(err, "임시 파일 생성")
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 열린 파일을 삭제할 수 없으므로 Close가 Remove보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return NewErrWriteFailed(err, "파일 쓰기")
	}
	if err := tmpFile.Sync(); err != nil {
		return NewErrWriteFailed(err, "디스크 동기화")
	}
	if err := tmpFile.Close(); err != nil {
		return NewErrWriteFailed(err, "파일 닫기")
	}
	if err := renameWithRetry(tmpPath, path); err != nil {
		return NewErrWriteFailed(err, "파일 이름 변경")
	}

	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 백신, 인덱서 등이 파일을 잠시 점유하는 환경을 위해 짧은 간격으로 재시도합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		if lastErr = os.Rename(oldPath, newPath); lastErr == nil {
			return nil
		}
		time.Sleep(retryDelay)
	}

	return lastErr
}

// cleanupStaleTempFiles 비정상 종료로 남은 임시 파일 중 threshold 이전에 수정된 것을 삭제합니다.
func (s *FileStore) cleanupStaleTempFiles(threshold time.Time) {
	_ = filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if matched, _ := filepath.Match(tempFilePattern, d.Name()); !matched {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.ModTime().After(threshold) {
			return nil
		}

		fields := log.Fields{"file": path}
		if err := os.Remove(path); err != nil {
			fields["error"] = err
			log.WithComponentAndFields(componentFile, fields).Warn("임시 파일 삭제 실패")
		} else {
			log.WithComponentAndFields(componentFile, fields).Info("이전 실행의 임시 파일을 정리했습니다")
		}

		return nil
	})
}
