package service

import (
	"net"
	"time"
)

// Public DNS resolvers probed for connectivity. One reachable host is enough;
// all three failing means the network is effectively down.
var probeAddresses = []string{
	"8.8.8.8:53",
	"1.1.1.1:53",
	"9.9.9.9:53",
}

const probeTimeout = 3 * time.Second

// CheckConnectivity dials well-known DNS servers and reports whether any
// responded. DNS resolution is deliberately avoided so a broken resolver does
// not read as a dead network.
func CheckConnectivity() bool {
	for _, addr := range probeAddresses {
		conn, err := net.DialTimeout("tcp", addr, probeTimeout)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}
