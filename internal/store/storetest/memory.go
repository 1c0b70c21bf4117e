// Package storetest 테스트용 인메모리 저장소를 제공합니다.
package storetest

import (
	"context"
	"maps"
	"slices"
	"sync"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/darkkaiser/pricewatch/internal/store"
)

// MemoryStore store.Store의 인메모리 구현체입니다. 실패 주입과 쓰기 기록 조회를 지원합니다.
type MemoryStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	fetchErrs map[string]error
	writeErrs map[string]error
	writes    []string
	fetches   []string
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore 비어 있는 저장소를 생성합니다.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:     make(map[string][]byte),
		fetchErrs: make(map[string]error),
		writeErrs: make(map[string]error),
	}
}

// Put 테스트 데이터를 저장합니다. 쓰기 기록에는 남지 않습니다.
func (m *MemoryStore) Put(name string, data string) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = []byte(data)
	return m
}

// FailFetch name 조회 시 err을 반환하도록 설정합니다.
func (m *MemoryStore) FailFetch(name string, err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetchErrs[name] = err
	return m
}

// FailWrite name 기록 시 err을 반환하도록 설정합니다.
func (m *MemoryStore) FailWrite(name string, err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErrs[name] = err
	return m
}

func (m *MemoryStore) Fetch(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches = append(m.fetches, name)
	if err, ok := m.fetchErrs[name]; ok {
		return nil, err
	}

	data, ok := m.files[name]
	if !ok {
		return nil, store.NewErrNotFound(name)
	}
	return slices.Clone(data), nil
}

func (m *MemoryStore) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.writeErrs[name]; ok {
		return err
	}

	m.files[name] = slices.Clone(data)
	m.writes = append(m.writes, name)
	return nil
}

// Get 저장된 데이터를 반환합니다.
func (m *MemoryStore) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]
	return data, ok
}

// Writes 기록된 이름 목록을 순서대로 반환합니다.
func (m *MemoryStore) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.writes)
}

// Fetches 조회된 이름 목록을 순서대로 반환합니다.
func (m *MemoryStore) Fetches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.fetches)
}

// Names 저장된 모든 이름을 정렬하여 반환합니다.
func (m *MemoryStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Sorted(maps.Keys(m.files))
}

// ErrInjected 실패 주입에 사용할 수 있는 기본 에러입니다.
var ErrInjected = apperrors.New(apperrors.System, "주입된 테스트 에러")
