package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"domain_status_checker/internal/config"
	"domain_status_checker/internal/runner"
	"domain_status_checker/internal/store"
	"domain_status_checker/internal/worker"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

type flags struct {
	configPath string
	input      string
	outputDir  string
	result     string
	workers    int
	timeout    int
	partition  string
	noColor    bool
	noProgress bool
}

func main() {
	f := &flags{}
	rootCmd := &cobra.Command{
		Use:           "domain_status_checker",
		Short:         "批量检测域名可访问性、状态码和跳转链",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	fs := rootCmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "config.yaml", "配置文件路径")
	fs.StringVarP(&f.input, "input", "i", "", "域名文件（覆盖 input.domain_file）")
	fs.StringVarP(&f.outputDir, "output-dir", "d", "", "输出目录（覆盖 output.dir）")
	fs.StringVarP(&f.result, "output", "o", "", "结果文件名（覆盖 output.result_file）")
	fs.IntVarP(&f.workers, "workers", "w", 0, "worker 数量（覆盖 workers.count）")
	fs.IntVarP(&f.timeout, "timeout", "t", 0, "请求超时秒数（覆盖 probe.timeout_seconds）")
	fs.StringVar(&f.partition, "partition", "", "分片方式 even/truncate（覆盖 workers.partition）")
	fs.BoolVar(&f.noColor, "no-color", false, "关闭彩色输出")
	fs.BoolVar(&f.noProgress, "no-progress", false, "关闭进度条")

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[!] %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, f *flags) error {
	if f.noColor {
		color.NoColor = true
	}
	startTime := time.Now()
	color.New(color.FgHiCyan).Println("domain_status_checker")

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if cfg == nil {
		fmt.Println("程序已退出，请配置好相关文件后重新运行。")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runner.Options{}
	if !f.noProgress {
		opts.NewProgress = func(total int) worker.Progress {
			return progressbar.NewOptions(total,
				progressbar.OptionSetDescription("[*] 探测中"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetPredictTime(false),
				progressbar.OptionSetWriter(os.Stderr),
			)
		}
	}

	rep, err := runner.RunAll(ctx, cfg, opts)
	if errors.Is(err, context.Canceled) {
		// 信号到达时 RunAll 可能尚未开始，再清理一次
		if _, cerr := store.Cleanup(cfg.Output.Dir); cerr != nil {
			log.Printf("[!] 清理临时文件失败: %v", cerr)
		}
		fmt.Println()
		fmt.Println(yellow("[!] 已中断，未生成结果文件"))
		return nil
	}
	if rep == nil {
		return err
	}

	printSummary(rep, time.Since(startTime))
	return err
}

// loadConfig 读取 YAML 后用命令行参数覆盖
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	var (
		cfg        *config.Config
		shouldExit bool
		err        error
	)
	if f.input != "" {
		// 指定了输入文件时不再生成模板
		cfg, err = readConfigOnly(f.configPath)
	} else {
		cfg, shouldExit, err = config.LoadConfig(f.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}
	if shouldExit {
		return nil, nil
	}

	fs := cmd.Flags()
	if fs.Changed("input") {
		cfg.Input.DomainFile = f.input
	}
	if fs.Changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if fs.Changed("output") {
		cfg.Output.ResultFile = f.result
	}
	if fs.Changed("workers") {
		cfg.Workers.Count = f.workers
	}
	if fs.Changed("timeout") {
		cfg.Probe.TimeoutSeconds = f.timeout
	}
	if fs.Changed("partition") {
		cfg.Workers.Partition = f.partition
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigOnly(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return config.Parse(data)
}

func printSummary(rep *runner.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("[*] 任务ID: %s\n", cyan(rep.TaskID))
	fmt.Printf("[*] 读取域名: %d，已探测: %d\n", rep.Total, rep.Rows)
	if dropped := rep.Total - rep.Assigned; dropped > 0 {
		fmt.Printf("[!] 未分配的域名: %s\n", yellow(dropped))
	}

	if len(rep.Breakdown) > 0 {
		sort.SliceStable(rep.Breakdown, func(i, j int) bool {
			return rep.Breakdown[i].Count > rep.Breakdown[j].Count
		})
		fmt.Println("[*] 状态码分布:")
		for _, b := range rep.Breakdown {
			code := fmt.Sprintf("%d", b.StatusCode)
			if b.StatusCode == 0 {
				code = "无响应"
			}
			line := fmt.Sprintf("    %-6s %d", code, b.Count)
			if b.Accessible {
				fmt.Println(green(line))
			} else {
				fmt.Println(red(line))
			}
		}
	}

	if len(rep.Redirects) > 0 {
		targets := make([]string, 0, len(rep.Redirects))
		for d := range rep.Redirects {
			targets = append(targets, d)
		}
		sort.Slice(targets, func(i, j int) bool {
			return rep.Redirects[targets[i]] > rep.Redirects[targets[j]]
		})
		fmt.Println("[*] 常见跳转域名:")
		for _, d := range targets {
			fmt.Printf("    %-30s %d\n", d, rep.Redirects[d])
		}
	}

	fmt.Printf("[+] 结果已保存到: %s\n", green(rep.ReportPath))
	if rep.XLSXPath != "" {
		fmt.Printf("[+] xlsx: %s\n", green(rep.XLSXPath))
	}
	fmt.Printf("[*] 总耗时: %s\n", elapsed.Round(time.Millisecond))
}
