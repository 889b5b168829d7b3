package partition

import "fmt"

// Strategy 分片方式
type Strategy string

const (
	// StrategyEven 余数依次分给前面的分片，所有域名都会被处理
	StrategyEven Strategy = "even"
	// StrategyTruncate 每片 len/n 个，丢弃末尾不足一轮的余数（兼容旧版行为）
	StrategyTruncate Strategy = "truncate"
)

// ParseStrategy 解析配置中的分片方式
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyEven:
		return StrategyEven, nil
	case StrategyTruncate:
		return StrategyTruncate, nil
	}
	return "", fmt.Errorf("未知的分片方式: %q", s)
}

// Split 将域名列表切成 n 个连续分片，片内保持输入顺序
func Split(domains []string, n int, s Strategy) [][]string {
	if s == StrategyTruncate {
		return Truncate(domains, n)
	}
	return Even(domains, n)
}

// Even 最大余数分配：前 len%n 片各多一个
func Even(domains []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	size, rem := len(domains)/n, len(domains)%n
	parts := make([][]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		parts = append(parts, domains[start:end:end])
		start = end
	}
	return parts
}

// Truncate 每片 floor(len/n) 个，末尾余数被丢弃
func Truncate(domains []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	size := len(domains) / n
	parts := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, domains[i*size:(i+1)*size:(i+1)*size])
	}
	return parts
}

// Dropped 返回分片后未被分配的域名数量
func Dropped(total int, parts [][]string) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return total - n
}
