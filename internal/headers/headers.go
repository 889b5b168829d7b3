package headers

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
)

// Provider 每次调用返回一组新的浏览器请求头
type Provider interface {
	Generate() http.Header
}

var platforms = map[string][]string{
	"win": {
		"Windows NT 10.0; Win64; x64",
		"Windows NT 10.0; WOW64",
		"Windows NT 6.1; Win64; x64",
		"Windows NT 6.3; Win64; x64",
	},
	"mac": {
		"Macintosh; Intel Mac OS X 10_15_7",
		"Macintosh; Intel Mac OS X 13_5",
		"Macintosh; Intel Mac OS X 14_2_1",
	},
	"lin": {
		"X11; Linux x86_64",
		"X11; Ubuntu; Linux x86_64",
		"X11; Fedora; Linux x86_64",
	},
}

var languages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.8",
	"en-US,en;q=0.5",
	"de-DE,de;q=0.9,en;q=0.7",
	"fr-FR,fr;q=0.9,en;q=0.6",
}

// Rotator 按操作系统/浏览器生成随机请求头，不加锁，每个 worker 各持一个
type Rotator struct {
	os      string
	browser string
	rnd     *rand.Rand
}

// NewRotator 创建请求头生成器，os 取值 win/mac/lin，browser 取值 chrome/firefox/opera
func NewRotator(os, browser string) (*Rotator, error) {
	os = strings.ToLower(strings.TrimSpace(os))
	browser = strings.ToLower(strings.TrimSpace(browser))
	if _, ok := platforms[os]; !ok {
		return nil, fmt.Errorf("不支持的操作系统类型: %q", os)
	}
	switch browser {
	case "chrome", "firefox", "opera":
	default:
		return nil, fmt.Errorf("不支持的浏览器类型: %q", browser)
	}
	return newRotator(os, browser), nil
}

func newRotator(os, browser string) *Rotator {
	return &Rotator{
		os:      os,
		browser: browser,
		rnd:     rand.New(rand.NewSource(rand.Int63())),
	}
}

// Fork 返回同一配置、独立随机源的新 Rotator
func (r *Rotator) Fork() *Rotator {
	return newRotator(r.os, r.browser)
}

// Generate 实现 Provider
func (r *Rotator) Generate() http.Header {
	platform := pick(r.rnd, platforms[r.os])
	h := http.Header{}
	h.Set("User-Agent", r.userAgent(platform))
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", pick(r.rnd, languages))
	if r.rnd.Intn(2) == 0 {
		h.Set("DNT", "1")
	}
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

func (r *Rotator) userAgent(platform string) string {
	switch r.browser {
	case "firefox":
		v := 115 + r.rnd.Intn(20)
		return fmt.Sprintf("Mozilla/5.0 (%s; rv:%d.0) Gecko/20100101 Firefox/%d.0", platform, v, v)
	case "opera":
		chrome, opr := r.chromeVersion(), 95+r.rnd.Intn(20)
		return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36 OPR/%d.0.0.0", platform, chrome, opr)
	default:
		return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", platform, r.chromeVersion())
	}
}

func (r *Rotator) chromeVersion() string {
	return fmt.Sprintf("%d.0.%d.%d", 110+r.rnd.Intn(20), 5000+r.rnd.Intn(1000), r.rnd.Intn(200))
}

func pick(rnd *rand.Rand, list []string) string {
	return list[rnd.Intn(len(list))]
}

// Static 固定请求头，主要用于测试
type Static http.Header

// Generate 实现 Provider
func (s Static) Generate() http.Header {
	return http.Header(s).Clone()
}
