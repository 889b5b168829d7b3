package probe

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"domain_status_checker/internal/headers"
	"domain_status_checker/internal/model"
	"domain_status_checker/internal/transport"
)

// Fetcher 发送带请求头的GET请求并返回分类后的结果
type Fetcher interface {
	Get(ctx context.Context, rawURL string, header http.Header) transport.Result
}

// Session worker 独占的请求上下文：客户端 + 当前请求头
type Session struct {
	Client Fetcher
	Header http.Header
}

// NewSession 创建会话
func NewSession(client Fetcher) *Session {
	return &Session{Client: client, Header: http.Header{}}
}

// Rotate 更换请求头，每个域名探测前调用
func (s *Session) Rotate(p headers.Provider) {
	if p == nil {
		return
	}
	for k, v := range p.Generate() {
		s.Header[k] = v
	}
}

// Probe 先尝试 https，仅在TLS错误时回退到 http
func Probe(ctx context.Context, domain string, s *Session) model.ProbeOutcome {
	requested := "https://" + domain
	res := s.Client.Get(ctx, requested, s.Header)

	if res.Kind == transport.KindTLS {
		requested = "http://" + domain
		res = s.Client.Get(ctx, requested, s.Header)
	}

	if res.Kind != transport.KindOK {
		return model.Unreachable(domain, res.Kind.String())
	}

	return model.ProbeOutcome{
		Domain:        domain,
		Accessible:    res.StatusCode == http.StatusOK,
		RedirectChain: RedirectChain(requested, res.History),
		StatusCode:    res.StatusCode,
	}
}

// RedirectChain 从跳转历史中提取经过的域名，忽略请求地址本身（忽略末尾斜杠）
func RedirectChain(requested string, history []string) []string {
	chain := make([]string, 0, len(history))
	requested = strings.TrimSuffix(requested, "/")
	for _, u := range history {
		if strings.TrimSuffix(u, "/") == requested {
			continue
		}
		chain = append(chain, hostname(u))
	}
	return chain
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
