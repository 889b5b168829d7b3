package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"domain_status_checker/internal/headers"
	"domain_status_checker/internal/partition"
	"domain_status_checker/internal/probe"
	"domain_status_checker/internal/store"
	"domain_status_checker/internal/worker"
)

// WorkerCount 探测受网络IO限制，默认 2*CPU+1 个 worker
func WorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return 2*runtime.NumCPU() + 1
}

// Orchestrator 分片并并发执行 worker，全部结束后才返回
type Orchestrator struct {
	Dir        string
	TaskID     string
	Comma      rune
	Workers    int
	Strategy   partition.Strategy
	NewHeaders func() headers.Provider // 每个 worker 调用一次
	NewSession func() *probe.Session
	Progress   worker.Progress
	Probe      worker.ProbeFunc
}

// Orchestrate 返回实际分配到 worker 的域名数量；任一 worker 出错时返回合并后的错误
func (o *Orchestrator) Orchestrate(ctx context.Context, domains []string) (int, error) {
	parts := partition.Split(domains, o.Workers, o.Strategy)
	if dropped := partition.Dropped(len(domains), parts); dropped > 0 {
		log.Printf("[!] 分片方式 %s 丢弃了末尾 %d 个域名", o.Strategy, dropped)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errs     []error
		assigned int
	)
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		assigned += len(part)

		wg.Add(1)
		go func(id int, part []string) {
			defer wg.Done()
			if err := o.runWorker(ctx, id, part); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i, part)
	}
	wg.Wait()

	return assigned, errors.Join(errs...)
}

func (o *Orchestrator) runWorker(ctx context.Context, id int, part []string) (err error) {
	ps, err := store.Create(o.Dir, o.TaskID, id, o.Comma)
	if err != nil {
		return fmt.Errorf("worker %d: %w", id, err)
	}
	defer func() {
		if cerr := ps.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("worker %d: %w", id, cerr)
		}
	}()

	var hp headers.Provider
	if o.NewHeaders != nil {
		hp = o.NewHeaders()
	}
	task := &worker.Task{
		ID:       id,
		Domains:  part,
		Session:  o.NewSession(),
		Headers:  hp,
		Sink:     ps,
		Progress: o.Progress,
		Probe:    o.Probe,
	}
	return task.Run(ctx)
}
