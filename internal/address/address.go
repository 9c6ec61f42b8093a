package address

import (
	"net"
	"strings"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = "80"
)

// Normalize completes the address to be bound: missing host means all the interfaces.
func Normalize(addr string) string {
	if len(stripPort(addr)) == 0 {
		// only port is presented
		return DefaultHost + addr
	}

	return addr
}

// Dial completes the address to be dialed out of the Host header value: missing port
// means the default one.
func Dial(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}

	return net.JoinHostPort(strings.Trim(host, "[]"), DefaultPort)
}

func IsLocalhost(addr string) bool {
	return strings.EqualFold(stripPort(addr), "localhost")
}

func stripPort(addr string) string {
	colon := strings.LastIndexByte(addr, ':')
	if colon != -1 && !strings.Contains(addr[colon:], "]") {
		return addr[:colon]
	}

	return addr
}
