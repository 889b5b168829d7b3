package model

import (
	"strconv"
	"strings"
)

// ReportHeader 汇总报告的表头
var ReportHeader = []string{"domain", "domain_status", "redirected_domains", "status_code"}

// ProbeOutcome 单个域名的探测结果
type ProbeOutcome struct {
	Domain        string   // 输入中的域名
	Accessible    bool     // 最终状态码为200
	RedirectChain []string // 跳转经过的域名（不含请求地址本身）
	StatusCode    int      // 最终状态码；从未拿到响应时为0
	Failure       string   // 失败分类（tls/connection/timeout/too_many_redirects），仅用于日志
}

// Reachable 是否拿到过响应
func (o ProbeOutcome) Reachable() bool {
	return o.StatusCode != 0
}

// Record 转换为CSV行
func (o ProbeOutcome) Record() []string {
	status := "no"
	if o.Accessible {
		status = "yes"
	}
	code := ""
	if o.StatusCode != 0 {
		code = strconv.Itoa(o.StatusCode)
	}
	return []string{
		o.Domain,
		status,
		strings.Join(o.RedirectChain, ", "),
		code,
	}
}

// Unreachable 构造一个未能连通的结果
func Unreachable(domain, failure string) ProbeOutcome {
	return ProbeOutcome{
		Domain:        domain,
		RedirectChain: []string{},
		Failure:       failure,
	}
}
