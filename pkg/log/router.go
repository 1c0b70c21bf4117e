package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// router 로그 레벨에 따라 이벤트를 여러 Writer로 분배하는 logrus Hook입니다.
//
//   - ERROR 이상: critical + main
//   - INFO, WARN: main
//   - DEBUG 이하: verbose 전용 (main에는 기록하지 않음)
//   - console: 레벨과 무관하게 모두 기록
type router struct {
	main     io.Writer
	critical io.Writer
	verbose  io.Writer
	console  io.Writer

	formatter Formatter

	mu     sync.RWMutex
	closed bool
}

func (r *router) Levels() []Level {
	return AllLevels
}

func (r *router) Fire(entry *Entry) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil
	}

	msg, err := r.formatter.Format(entry)
	if err != nil {
		return err
	}

	if r.console != nil {
		if _, err := r.console.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] 콘솔 출력 실패: %v\n", err)
		}
	}

	var firstErr error
	write := func(w io.Writer, label string) {
		if w == nil {
			return
		}
		if _, err := w.Write(msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] %s 로그 파일 쓰기 실패: %v\n", label, err)
		}
	}

	if entry.Level <= ErrorLevel {
		write(r.critical, "Critical")
	}

	if entry.Level >= DebugLevel {
		write(r.verbose, "Verbose")
		return firstErr
	}

	write(r.main, "Main")

	return firstErr
}

// Close 이후의 로그 기록을 차단합니다. 진행 중인 Fire 호출이 끝날 때까지 대기합니다.
func (r *router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return nil
}
