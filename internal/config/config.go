package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"domain_status_checker/internal/partition"
)

// ErrInvalid 配置项不合法
var ErrInvalid = errors.New("配置不合法")

type Config struct {
	Probe struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		MaxRedirects   int `yaml:"max_redirects"`
	} `yaml:"probe"`

	Headers struct {
		OS      string `yaml:"os"`
		Browser string `yaml:"browser"`
	} `yaml:"headers"`

	Workers struct {
		Count     int    `yaml:"count"`
		Partition string `yaml:"partition"`
	} `yaml:"workers"`

	Input struct {
		DomainFile string `yaml:"domain_file"`
		Delimiter  string `yaml:"delimiter"`
	} `yaml:"input"`

	Output struct {
		Dir        string `yaml:"dir"`
		ResultFile string `yaml:"result_file"`
		Delimiter  string `yaml:"delimiter"`
		Database   string `yaml:"database"`
		XLSXFile   string `yaml:"xlsx_file"`
	} `yaml:"output"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Probe.TimeoutSeconds = 10
	cfg.Probe.MaxRedirects = 30
	cfg.Headers.OS = "win"
	cfg.Headers.Browser = "chrome"
	cfg.Workers.Partition = string(partition.StrategyEven)
	cfg.Input.DomainFile = "domains.csv"
	cfg.Input.Delimiter = ","
	cfg.Output.Dir = "."
	cfg.Output.ResultFile = "result.csv"
	cfg.Output.Delimiter = ";"
	return cfg
}

// LoadConfig loads YAML config from file path
// Returns config, shouldExit, error
func LoadConfig(path string) (*Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, true, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时生成默认配置并继续运行
		fmt.Printf("配置文件 %s 不存在，正在生成默认配置文件...\n", path)
		if err := os.WriteFile(path, []byte(defaultConfigContent), 0644); err != nil {
			return nil, true, fmt.Errorf("生成默认配置文件失败: %w", err)
		}
		fmt.Printf("默认配置文件已生成: %s\n", path)
		data = []byte(defaultConfigContent)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, true, err
	}

	shouldExit, err := EnsureDomainFileExists(cfg.Input.DomainFile)
	if err != nil {
		return nil, true, fmt.Errorf("处理域名文件失败: %w", err)
	}
	if shouldExit {
		return nil, true, nil
	}

	return cfg, false, nil
}

// Parse 解析YAML，未填写的项使用默认值
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults yaml 中显式写了空值时回到默认值
func (c *Config) fillDefaults() {
	d := Default()
	if c.Probe.TimeoutSeconds == 0 {
		c.Probe.TimeoutSeconds = d.Probe.TimeoutSeconds
	}
	if c.Probe.MaxRedirects == 0 {
		c.Probe.MaxRedirects = d.Probe.MaxRedirects
	}
	if c.Headers.OS == "" {
		c.Headers.OS = d.Headers.OS
	}
	if c.Headers.Browser == "" {
		c.Headers.Browser = d.Headers.Browser
	}
	if c.Workers.Partition == "" {
		c.Workers.Partition = d.Workers.Partition
	}
	if c.Input.DomainFile == "" {
		c.Input.DomainFile = d.Input.DomainFile
	}
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = d.Input.Delimiter
	}
	if c.Output.Dir == "" {
		c.Output.Dir = d.Output.Dir
	}
	if c.Output.ResultFile == "" {
		c.Output.ResultFile = d.Output.ResultFile
	}
	if c.Output.Delimiter == "" {
		c.Output.Delimiter = d.Output.Delimiter
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Probe.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: probe.timeout_seconds 必须大于0", ErrInvalid)
	}
	if c.Probe.MaxRedirects < 0 {
		return fmt.Errorf("%w: probe.max_redirects 不能为负数", ErrInvalid)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("%w: workers.count 不能为负数", ErrInvalid)
	}
	if _, err := partition.ParseStrategy(c.Workers.Partition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("%w: input.delimiter 必须是单个字符", ErrInvalid)
	}
	if utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return fmt.Errorf("%w: output.delimiter 必须是单个字符", ErrInvalid)
	}
	return nil
}

// Timeout 单次请求超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// Strategy 分片方式，Validate 之后调用
func (c *Config) Strategy() partition.Strategy {
	s, _ := partition.ParseStrategy(c.Workers.Partition)
	return s
}

// InputComma 输入文件分隔符
func (c *Config) InputComma() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// OutputComma 输出文件分隔符
func (c *Config) OutputComma() rune {
	r, _ := utf8.DecodeRuneInString(c.Output.Delimiter)
	return r
}

// EnsureDomainFileExists 域名文件不存在时生成模板并提示退出
// Returns shouldExit, error
func EnsureDomainFileExists(domainFile string) (bool, error) {
	if _, err := os.Stat(domainFile); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return true, fmt.Errorf("检查域名文件失败: %w", err)
	}

	fmt.Printf("域名文件 %s 不存在，正在生成模板...\n", domainFile)
	if err := os.WriteFile(domainFile, []byte("domain\n"), 0644); err != nil {
		return true, fmt.Errorf("生成域名文件模板失败: %w", err)
	}
	fmt.Printf("模板已生成: %s\n", domainFile)
	fmt.Println("")
	fmt.Println("=== 域名文件使用说明 ===")
	fmt.Println("第一行为表头，之后每行一个域名（只读取第一列）：")
	fmt.Println("domain")
	fmt.Println("example.com")
	fmt.Println("https://www.example.org/path   (协议和路径会被去掉)")
	fmt.Println("")
	fmt.Println("=== 输出文件说明 ===")
	fmt.Println("result.csv 字段：domain;domain_status;redirected_domains;status_code")
	fmt.Println("  domain_status：状态码为200时为 yes，否则为 no")
	fmt.Println("  redirected_domains：跳转经过的域名，用\", \"分隔")
	fmt.Println("  status_code：未能连接时为空")
	fmt.Println("========================")
	fmt.Println("")

	return true, nil
}

const defaultConfigContent = `# config.yaml

# 探测参数
probe:
  timeout_seconds: 10   # 单次请求超时（秒）
  max_redirects: 30     # 最大跳转次数，超过视为不可达

# 随机请求头
headers:
  os: win               # win / mac / lin
  browser: chrome       # chrome / firefox / opera

# 并发设置
workers:
  count: 0              # worker 数量；0 表示 2*CPU核数+1
  partition: even       # even：余数分给前面的分片；truncate：丢弃余数（兼容旧版）

# 输入
input:
  domain_file: "domains.csv"   # 第一行为表头，取第一列
  delimiter: ","

# 输出
output:
  dir: "."                     # 临时文件与结果文件所在目录
  result_file: "result.csv"
  delimiter: ";"
  database: ""                 # 可选，sqlite 路径，留空不写入
  xlsx_file: ""                # 可选，另存一份 xlsx，留空不导出
`
