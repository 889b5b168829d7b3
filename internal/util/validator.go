package util

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// 域名匹配正则（RFC 1035 简化版），允许单标签主机名（如 localhost）
var domainRegexp = regexp.MustCompile(`^([a-zA-Z0-9_]([a-zA-Z0-9\-_]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// IsValidHost 验证是否为合法域名或IP，可带端口
func IsValidHost(host string) bool {
	host = strings.TrimSpace(host)
	if host == "" || len(host) > 253+6 {
		return false
	}

	if h, port, err := net.SplitHostPort(host); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return false
		}
		host = h
	}

	if net.ParseIP(host) != nil {
		return true
	}

	return domainRegexp.MatchString(strings.TrimSuffix(host, "."))
}
