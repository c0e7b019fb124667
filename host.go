package madea

import (
	"net"
	"strings"
)

// UsernameFromHost extracts the blog owner from a Host header of the form
// <username>.<domain>[:port]. The bare base domain, www, localhost and IP
// addresses name no blog.
func UsernameFromHost(host, baseDomain string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostname, _, err := net.SplitHostPort(h); err == nil {
		h = hostname
	}
	h = strings.TrimSuffix(h, ".")
	if h == "" || h == strings.ToLower(baseDomain) || net.ParseIP(h) != nil {
		return "", false
	}

	parts := strings.Split(h, ".")
	if len(parts) < 2 {
		return "", false
	}
	switch name := parts[0]; name {
	case "", "www", "localhost":
		return "", false
	default:
		return name, true
	}
}

func (a *App) username(host string) (string, bool) {
	if name, ok := UsernameFromHost(host, a.Config.BaseDomain); ok {
		return name, true
	}
	if a.Config.DefaultUsername != "" {
		return a.Config.DefaultUsername, true
	}
	return "", false
}
