package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"domain_status_checker/internal/config"
	"domain_status_checker/internal/database"
	"domain_status_checker/internal/exporter"
	"domain_status_checker/internal/headers"
	"domain_status_checker/internal/loader"
	"domain_status_checker/internal/probe"
	"domain_status_checker/internal/store"
	"domain_status_checker/internal/transport"
	"domain_status_checker/internal/util"
	"domain_status_checker/internal/worker"
)

// Options 运行时注入项，均可为空
type Options struct {
	NewProgress func(total int) worker.Progress
	Headers     headers.Provider // 非空时所有 worker 共用，须并发安全
	Probe       worker.ProbeFunc
}

// Report 一次运行的结果
type Report struct {
	TaskID     string
	Total      int // 读取到的域名数
	Assigned   int // 分配给 worker 的域名数
	Rows       int // 写入结果文件的行数
	Workers    int
	ReportPath string
	XLSXPath   string
	Breakdown  []database.StatusCount
	Redirects  map[string]int // 跳转链中出现最多的域名
}

// RunAll 读取域名、并发探测、汇总结果。
// 被中断时清理临时文件并返回 ctx 的错误，不生成结果文件。
func RunAll(ctx context.Context, cfg *config.Config, opts Options) (*Report, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, err
	}

	// 上次异常退出残留的临时文件改名保留，不参与本次汇总
	kept, err := store.Quarantine(cfg.Output.Dir)
	for _, p := range kept {
		log.Printf("[!] 发现上次运行残留的临时结果文件，已另存为 %s", p)
	}
	if err != nil {
		return nil, fmt.Errorf("处理残留临时文件失败: %w", err)
	}

	domains, err := loader.ReadDomainsFromCSV(cfg.Input.DomainFile, cfg.InputComma())
	if err != nil {
		return nil, fmt.Errorf("读取域名文件失败: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("域名文件 %s 中没有有效域名", cfg.Input.DomainFile)
	}

	rep := &Report{
		TaskID:     util.GenerateTaskID(),
		Total:      len(domains),
		Workers:    WorkerCount(cfg.Workers.Count),
		ReportPath: filepath.Join(cfg.Output.Dir, cfg.Output.ResultFile),
	}
	log.Printf("[*] 共加载域名 %d 个，worker 数量 %d", rep.Total, rep.Workers)

	newHeaders := func() headers.Provider { return opts.Headers }
	if opts.Headers == nil {
		rot, err := headers.NewRotator(cfg.Headers.OS, cfg.Headers.Browser)
		if err != nil {
			return nil, err
		}
		newHeaders = func() headers.Provider { return rot.Fork() }
	}

	orch := &Orchestrator{
		Dir:        cfg.Output.Dir,
		TaskID:     rep.TaskID,
		Comma:      cfg.OutputComma(),
		Workers:    rep.Workers,
		Strategy:   cfg.Strategy(),
		NewHeaders: newHeaders,
		NewSession: func() *probe.Session {
			return probe.NewSession(transport.NewClient(transport.Options{
				Timeout:      cfg.Timeout(),
				MaxRedirects: cfg.Probe.MaxRedirects,
			}))
		},
		Probe: opts.Probe,
	}
	if opts.NewProgress != nil {
		orch.Progress = opts.NewProgress(len(domains))
	}

	assigned, workerErr := orch.Orchestrate(ctx, domains)
	rep.Assigned = assigned

	if ctxErr := ctx.Err(); ctxErr != nil {
		if n, err := store.Cleanup(cfg.Output.Dir); err != nil {
			log.Printf("[!] 清理临时文件失败: %v", err)
		} else {
			log.Printf("[*] 已中断，删除 %d 个临时文件", n)
		}
		return nil, ctxErr
	}
	if workerErr != nil {
		log.Printf("[!] 部分 worker 异常退出，已完成的结果仍会汇总: %v", workerErr)
	}

	sum, err := exporter.Aggregate(cfg.Output.Dir, rep.ReportPath, cfg.OutputComma())
	if err != nil {
		return nil, errors.Join(workerErr, err)
	}
	rep.Rows = sum.Rows

	if err := exportExtras(cfg, rep); err != nil {
		log.Printf("[!] %v", err)
	}

	return rep, workerErr
}

// exportExtras 可选的 sqlite / xlsx 导出，失败不影响主结果
func exportExtras(cfg *config.Config, rep *Report) error {
	if cfg.Output.Database == "" && cfg.Output.XLSXFile == "" {
		return nil
	}
	rows, err := exporter.ReadReport(rep.ReportPath, cfg.OutputComma())
	if err != nil {
		return fmt.Errorf("读取结果文件失败: %w", err)
	}

	if cfg.Output.XLSXFile != "" {
		rep.XLSXPath = filepath.Join(cfg.Output.Dir, cfg.Output.XLSXFile)
		if err := exporter.ExportXLSX(rows, rep.XLSXPath); err != nil {
			return fmt.Errorf("导出xlsx失败: %w", err)
		}
		log.Printf("[+] 已导出 xlsx: %s", rep.XLSXPath)
	}

	if cfg.Output.Database != "" {
		tableName := util.GenerateTableName(rep.TaskID)
		db, err := database.InitDB(cfg.Output.Database, tableName)
		if err != nil {
			return fmt.Errorf("数据库初始化失败: %w", err)
		}
		defer db.Close()

		if err := database.SaveReport(db, tableName, rows); err != nil {
			return fmt.Errorf("写入数据库失败: %w", err)
		}
		rep.Breakdown, err = database.StatusBreakdown(db, tableName)
		if err != nil {
			return err
		}
		rep.Redirects, err = database.RedirectTargets(db, tableName, 5)
		if err != nil {
			return err
		}
		log.Printf("[+] 结果已写入 %s 表 %s", cfg.Output.Database, tableName)
	}
	return nil
}
