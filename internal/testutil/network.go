// Package testutil 여러 패키지의 테스트에서 공유하는 네트워크 헬퍼를 제공합니다.
package testutil

import (
	"fmt"
	"net"
	"time"
)

// FreeAddress 테스트용으로 사용 가능한 로컬 주소("127.0.0.1:port")를 반환합니다.
func FreeAddress() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()

	return l.Addr().String(), nil
}

// WaitForServer 서버가 address에서 연결을 받을 때까지 대기합니다.
func WaitForServer(address string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", address, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server did not start on %s within %v", address, timeout)
}
