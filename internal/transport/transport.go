package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// DefaultMaxRedirects 与常见浏览器/requests 一致
const DefaultMaxRedirects = 30

// maxBodySize 读取响应体的上限，只为让连接完整结束
const maxBodySize = 1 << 20

var (
	// ErrTooManyRedirects 超过最大跳转次数
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrHandshakeInterrupted TLS 握手过程中连接被对端关闭或重置
	ErrHandshakeInterrupted = errors.New("tls handshake interrupted")
)

// Kind 一次请求的结果分类
type Kind int

const (
	KindOK Kind = iota
	KindTLS
	KindConnection
	KindTimeout
	KindTooManyRedirects
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindTLS:
		return "tls"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindTooManyRedirects:
		return "too_many_redirects"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result GET 请求的结果。Kind 为 KindOK 时 StatusCode/FinalURL 有效
type Result struct {
	Kind       Kind
	StatusCode int
	FinalURL   string
	History    []string // 依次返回了跳转响应的地址，首个为请求地址
	Err        error
}

// Options 客户端参数
type Options struct {
	Timeout      time.Duration // 每次请求（每一跳）的超时
	MaxRedirects int
	Transport    http.RoundTripper // 为空时使用独立的 http.Transport
}

// Client 会话级HTTP客户端，自行跟随跳转以记录跳转历史
type Client struct {
	http         *http.Client
	timeout      time.Duration
	maxRedirects int
}

// NewClient 创建客户端，每个客户端拥有独立的连接池和cookie
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	rt := opts.Transport
	if rt == nil {
		rt = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: opts.Timeout,
		}
	}
	jar, _ := cookiejar.New(nil)

	return &Client{
		http: &http.Client{
			Transport: rt,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
	}
}

// Get 发起GET请求并跟随跳转
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) Result {
	current := rawURL
	history := make([]string, 0)

	for {
		status, location, err := c.do(ctx, current, header)
		if err != nil {
			return Result{Kind: Classify(err), History: history, Err: err}
		}
		if !isRedirect(status) || location == "" {
			return Result{Kind: KindOK, StatusCode: status, FinalURL: current, History: history}
		}
		if len(history) >= c.maxRedirects {
			err := fmt.Errorf("%w: exceeded %d", ErrTooManyRedirects, c.maxRedirects)
			return Result{Kind: KindTooManyRedirects, History: history, Err: err}
		}

		history = append(history, current)
		current = location
	}
}

// do 执行单次请求，返回状态码和已解析为绝对地址的 Location
func (c *Client) do(ctx context.Context, rawURL string, header http.Header) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	var hs handshakeState
	req = req.WithContext(httptrace.WithClientTrace(ctx, hs.trace()))

	resp, err := c.http.Do(req)
	if err != nil {
		if hs.interrupted() && isConnDrop(err) {
			return 0, "", fmt.Errorf("%w: %w", ErrHandshakeInterrupted, err)
		}
		return 0, "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize)); err != nil {
		return 0, "", err
	}

	location := ""
	if loc := resp.Header.Get("Location"); loc != "" {
		if u, err := resp.Request.URL.Parse(loc); err == nil {
			location = u.String()
		}
	}
	return resp.StatusCode, location, nil
}

// handshakeState 记录本次请求新建连接的 TLS 握手进度，复用的连接不会触发
type handshakeState struct {
	started atomic.Bool
	done    atomic.Bool
}

func (h *handshakeState) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		TLSHandshakeStart: func() { h.started.Store(true) },
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				h.done.Store(true)
			}
		},
	}
}

// interrupted 握手已开始但未成功完成
func (h *handshakeState) interrupted() bool {
	return h.started.Load() && !h.done.Load()
}

func isConnDrop(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Classify 将请求错误归类
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}
	if errors.Is(err, ErrTooManyRedirects) {
		return KindTooManyRedirects
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if isTLSError(err) {
		return KindTLS
	}
	return KindConnection
}

func isTLSError(err error) bool {
	// 明文服务返回的 HTTP 响应被 net/http 改写为 ErrSchemeMismatch
	if errors.Is(err, http.ErrSchemeMismatch) || errors.Is(err, ErrHandshakeInterrupted) {
		return true
	}
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
		alertErr    tls.AlertError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert),
		errors.As(err, &alertErr):
		return true
	}
	// 握手阶段的 alert 类型未导出，只能按错误信息判断
	return strings.Contains(err.Error(), "tls: ")
}
