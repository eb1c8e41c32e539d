// Package probe implements internet reachability checking for the
// check_internet_connection command: a TCP dial to a fixed,
// non-configurable target.
package probe

import (
	"net"
	"time"

	"github.com/coldwatch/hmi-core/daemon/constants"
)

// CheckInternetConnection reports whether a TCP connection can be
// established to the fixed reachability target within
// constants.NetworkProbeTimeout. Called by the command surface's
// check_internet_connection handler; neither source loop calls it.
func CheckInternetConnection() bool {
	return dialable(constants.NetworkProbeTarget, constants.NetworkProbeTimeout)
}

func dialable(target string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", target, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
