package worker

import (
	"context"
	"fmt"
	"log"

	"domain_status_checker/internal/headers"
	"domain_status_checker/internal/model"
	"domain_status_checker/internal/probe"
)

// Sink 结果落盘，通常为 *store.PartialStore
type Sink interface {
	Append(o model.ProbeOutcome) error
}

// Progress 进度回调，*progressbar.ProgressBar 满足该接口
type Progress interface {
	Add(num int) error
}

// ProbeFunc 探测单个域名
type ProbeFunc func(ctx context.Context, domain string, s *probe.Session) model.ProbeOutcome

// Task 一个分片的顺序处理任务
type Task struct {
	ID       int
	Domains  []string
	Session  *probe.Session
	Headers  headers.Provider
	Sink     Sink
	Progress Progress
	Probe    ProbeFunc // 为空时使用 probe.Probe
}

// Run 依次探测分片内的域名，每个结果立即写入 Sink。
// 单个域名的异常只记录日志；写入失败或被中断时返回错误。
func (t *Task) Run(ctx context.Context) error {
	probeFn := t.Probe
	if probeFn == nil {
		probeFn = probe.Probe
	}

	for i, domain := range t.Domains {
		if err := ctx.Err(); err != nil {
			return err
		}

		t.Session.Rotate(t.Headers)
		outcome := t.safeProbe(ctx, probeFn, domain)
		// 中断时丢弃正在进行的探测结果
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.Sink.Append(outcome); err != nil {
			return fmt.Errorf("worker %d: %w", t.ID, err)
		}
		if t.Progress != nil {
			_ = t.Progress.Add(1)
		}
		if !outcome.Reachable() {
			log.Printf("[-] worker %d %d/%d %s 不可达 (%s)", t.ID, i+1, len(t.Domains), domain, outcome.Failure)
		}
	}
	return nil
}

func (t *Task) safeProbe(ctx context.Context, probeFn ProbeFunc, domain string) (outcome model.ProbeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[!] worker %d 探测 %s 异常: %v", t.ID, domain, r)
			outcome = model.Unreachable(domain, "panic")
		}
	}()
	return probeFn(ctx, domain, t.Session)
}
