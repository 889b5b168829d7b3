package loader

import (
	"bufio"
	"encoding/csv"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"domain_status_checker/internal/util"
)

// sniffSize 用于编码检测的字节数
const sniffSize = 4096

// ReadDomainsFromCSV 读取域名列表：跳过表头，取每行第一列。
// 非 UTF-8 文件按 GBK 解码。
func ReadDomainsFromCSV(path string, comma rune) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, sniffSize)
	var src io.Reader = br
	if head, _ := br.Peek(sniffSize); !looksUTF8(head) {
		src = transform.NewReader(br, simplifiedchinese.GBK.NewDecoder())
	}

	return parseDomains(src, comma)
}

func parseDomains(src io.Reader, comma rune) ([]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var domains []string
	skipped := 0
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}

		domain := NormalizeDomain(record[0])
		if domain == "" {
			continue
		}
		if !util.IsValidHost(domain) {
			skipped++
			continue
		}
		domains = append(domains, domain)
	}

	if skipped > 0 {
		log.Printf("[!] 跳过 %d 条无效域名", skipped)
	}
	return domains, nil
}

// NormalizeDomain 去掉协议、路径和空白，国际化域名转为 punycode
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	lower := strings.ToLower(d)
	switch {
	case strings.HasPrefix(lower, "https://"):
		d = d[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		d = d[len("http://"):]
	}
	if i := strings.IndexAny(d, "/?#"); i != -1 {
		d = d[:i]
	}
	if d == "" {
		return ""
	}

	host, port, err := net.SplitHostPort(d)
	if err != nil {
		host, port = d, ""
	}
	if net.ParseIP(host) == nil {
		if ascii, err := idna.Lookup.ToASCII(host); err == nil {
			host = ascii
		}
	}
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	return host
}

// looksUTF8 判断样本是否为合法 UTF-8，容忍末尾被截断的多字节字符
func looksUTF8(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
