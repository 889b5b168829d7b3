package worker

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"domain_status_checker/internal/headers"
	"domain_status_checker/internal/model"
	"domain_status_checker/internal/probe"
	"domain_status_checker/internal/transport"
)

type memorySink struct {
	rows    []model.ProbeOutcome
	failAt  int
	failErr error
}

func (m *memorySink) Append(o model.ProbeOutcome) error {
	if m.failErr != nil && len(m.rows) == m.failAt {
		return m.failErr
	}
	m.rows = append(m.rows, o)
	return nil
}

type countingProgress struct{ n int }

func (c *countingProgress) Add(num int) error {
	c.n += num
	return nil
}

func okProbe(_ context.Context, domain string, s *probe.Session) model.ProbeOutcome {
	return model.ProbeOutcome{Domain: domain, Accessible: true, StatusCode: 200, RedirectChain: []string{s.Header.Get("User-Agent")}}
}

func newTask(domains []string, sink Sink, fn ProbeFunc) *Task {
	return &Task{
		ID:      1,
		Domains: domains,
		Session: probe.NewSession(nil),
		Headers: headers.Static{"User-Agent": {"ua"}},
		Sink:    sink,
		Probe:   fn,
	}
}

func TestTask_Run_RecordsInOrder(t *testing.T) {
	sink := &memorySink{}
	progress := &countingProgress{}
	task := newTask([]string{"a.com", "b.com", "c.com"}, sink, okProbe)
	task.Progress = progress

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var got []string
	for _, r := range sink.rows {
		got = append(got, r.Domain)
		if r.RedirectChain[0] != "ua" {
			t.Fatalf("headers were not rotated into the session: %+v", r)
		}
	}
	if !reflect.DeepEqual(got, []string{"a.com", "b.com", "c.com"}) {
		t.Fatalf("order = %v", got)
	}
	if progress.n != 3 {
		t.Fatalf("progress = %d, want 3", progress.n)
	}
}

func TestTask_Run_RecoversPerDomainPanic(t *testing.T) {
	sink := &memorySink{}
	fn := func(ctx context.Context, domain string, s *probe.Session) model.ProbeOutcome {
		if domain == "bad.com" {
			panic("boom")
		}
		return okProbe(ctx, domain, s)
	}
	task := newTask([]string{"a.com", "bad.com", "c.com"}, sink, fn)

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sink.rows))
	}
	if bad := sink.rows[1]; bad.Domain != "bad.com" || bad.Accessible || bad.StatusCode != 0 {
		t.Fatalf("unexpected outcome for panicking domain: %+v", bad)
	}
}

func TestTask_Run_SinkErrorIsFatal(t *testing.T) {
	diskFull := errors.New("no space left on device")
	sink := &memorySink{failAt: 1, failErr: diskFull}
	task := newTask([]string{"a.com", "b.com", "c.com"}, sink, okProbe)

	err := task.Run(context.Background())
	if !errors.Is(err, diskFull) {
		t.Fatalf("Run error = %v, want %v", err, diskFull)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("rows written before failure = %d, want 1", len(sink.rows))
	}
}

func TestTask_Run_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := &memorySink{}
	fn := func(ctx context.Context, domain string, s *probe.Session) model.ProbeOutcome {
		if domain == "b.com" {
			cancel()
		}
		return okProbe(ctx, domain, s)
	}
	task := newTask([]string{"a.com", "b.com", "c.com"}, sink, fn)

	if err := task.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(sink.rows) != 1 || sink.rows[0].Domain != "a.com" {
		t.Fatalf("rows = %+v, want only a.com", sink.rows)
	}
}

func TestTask_Run_DefaultProbeUsesSession(t *testing.T) {
	sink := &memorySink{}
	task := newTask([]string{"x.test"}, sink, nil)
	task.Session = probe.NewSession(refusingFetcher{})

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.rows) != 1 || sink.rows[0].Failure != "connection" {
		t.Fatalf("unexpected rows: %+v", sink.rows)
	}
}

type refusingFetcher struct{}

func (refusingFetcher) Get(context.Context, string, http.Header) transport.Result {
	return transport.Result{Kind: transport.KindConnection}
}
