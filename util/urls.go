package util

import "strings"

func MakeUrl(parts ...string) string {
	res := ""
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p[len(p)-1:] == "/" {
			p = p[:len(p)-1]
		}
		if p == "" {
			continue
		}
		if p[0] != '/' && i > 0 && res != "" {
			res += "/" + p
		} else {
			res += p
		}
	}
	return res
}

// SafeRedirectTarget returns target when it stays within prefix on this
// site, else fallback.
func SafeRedirectTarget(target string, prefix string, fallback string) string {
	if target == "" || !strings.HasPrefix(target, prefix) {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	return target
}
