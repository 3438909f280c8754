//go:build unix

package transport

import (
	"net"
	"testing"

	"golang.org/x/sys/unix"
)

func TestListenUDPReuseAddr(t *testing.T) {
	conn, err := listenUDP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listenUDP() error = %v", err)
	}
	defer conn.Close()

	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		t.Fatalf("listenUDP() type = %T, want *net.UDPConn", conn)
	}
	rc, err := udpConn.SyscallConn()
	if err != nil {
		t.Fatalf("SyscallConn() error = %v", err)
	}

	var (
		value int
		gerr  error
	)
	if err := rc.Control(func(fd uintptr) {
		value, gerr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR)
	}); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if gerr != nil {
		t.Fatalf("GetsockoptInt() error = %v", gerr)
	}
	if value == 0 {
		t.Error("SO_REUSEADDR not set")
	}
}

func TestListenUDPDefaultAddr(t *testing.T) {
	conn, err := listenUDP("")
	if err != nil {
		t.Fatalf("listenUDP() error = %v", err)
	}
	defer conn.Close()

	if conn.LocalAddr().(*net.UDPAddr).Port == 0 {
		t.Error("LocalAddr() port = 0, want ephemeral port")
	}
}
