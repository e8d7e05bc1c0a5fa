package cache

import "net"

func splitAddr(addr string) (string, string, error) {
	return net.SplitHostPort(addr)
}
