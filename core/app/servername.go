package app

import "strings"

// RewriteServerName replaces the port of a host[:port] server name.
// A name without a port gets one appended.
func RewriteServerName(serverName, port string) string {
	host, _, _ := strings.Cut(serverName, ":")
	return host + ":" + port
}
