// internal/pkg/utils/net.go
package utils

import (
	"errors"
	"net"
)

// GetOutboundIP 返回本机用于对外通信的 IP，用于服务注册。
// UDP 拨号不会真正发送数据。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", errors.New("unexpected local address type")
	}
	return addr.IP.String(), nil
}
