package confirm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// instantTimer fires immediately so tests exercise round counting without
// sleeping.
type instantTimer struct {
	c chan time.Time
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(time.Duration) { t.c <- time.Now() }
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }

// scriptedGateway returns non-200 for the first failFor probes, then 200.
// A negative failFor never accepts.
type scriptedGateway struct {
	mu      sync.Mutex
	failFor int
	err     error
	probes  int
}

func (g *scriptedGateway) GetStatus(_ context.Context, _ string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.probes++
	if g.err != nil {
		return 0, g.err
	}
	if g.failFor < 0 || g.probes <= g.failFor {
		return http.StatusNotFound, nil
	}
	return http.StatusOK, nil
}

func (g *scriptedGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.probes
}

func testConfig() Config {
	return Config{Interval: DefaultInterval, Timeout: DefaultTimeout, Timer: newInstantTimer()}
}

func TestPoller_Rounds(t *testing.T) {
	tests := []struct {
		interval, timeout time.Duration
		want              int
	}{
		{2 * time.Second, 45 * time.Second, 23},
		{2 * time.Second, 44 * time.Second, 22},
		{time.Second, 500 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		p := NewPoller(nil, nil, Config{Interval: tt.interval, Timeout: tt.timeout}, nil)
		if got := p.Rounds(); got != tt.want {
			t.Errorf("Rounds(%v/%v) = %d, want %d", tt.timeout, tt.interval, got, tt.want)
		}
	}
}

func TestPoller_AcceptsAfterNRounds(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		primary := &scriptedGateway{failFor: n}
		secondary := &scriptedGateway{failFor: -1}

		p := NewPoller(primary, secondary, testConfig(), nil)
		if !p.Await(t.Context(), "tx-1") {
			t.Fatalf("n=%d: expected confirmation", n)
		}
		if got := primary.count(); got != n+1 {
			t.Errorf("n=%d: primary probes = %d, want %d", n, got, n+1)
		}
		// The secondary is only probed in rounds where the primary failed.
		if got := secondary.count(); got != n {
			t.Errorf("n=%d: secondary probes = %d, want %d", n, got, n)
		}
	}
}

func TestPoller_SecondaryAccepts(t *testing.T) {
	primary := &scriptedGateway{failFor: -1}
	secondary := &scriptedGateway{failFor: 2}

	p := NewPoller(primary, secondary, testConfig(), nil)
	if !p.Await(t.Context(), "tx-1") {
		t.Fatal("expected confirmation via secondary")
	}
	if got := primary.count(); got != 3 {
		t.Errorf("primary probes = %d, want 3", got)
	}
}

func TestPoller_NeverAccepted(t *testing.T) {
	primary := &scriptedGateway{failFor: -1}
	secondary := &scriptedGateway{failFor: -1}

	p := NewPoller(primary, secondary, testConfig(), nil)
	if p.Await(t.Context(), "tx-1") {
		t.Fatal("expected no confirmation")
	}
	if got := primary.count(); got != 23 {
		t.Errorf("rounds = %d, want 23", got)
	}
	if got := secondary.count(); got != 23 {
		t.Errorf("secondary probes = %d, want 23", got)
	}
}

func TestPoller_SwallowsErrors(t *testing.T) {
	primary := &scriptedGateway{err: errors.New("connection reset")}
	secondary := &scriptedGateway{failFor: 3}

	p := NewPoller(primary, secondary, testConfig(), nil)
	if !p.Await(t.Context(), "tx-1") {
		t.Fatal("expected confirmation despite primary errors")
	}
	if got := secondary.count(); got != 4 {
		t.Errorf("secondary probes = %d, want 4", got)
	}
}

func TestPoller_WallClockTimeout(t *testing.T) {
	primary := &scriptedGateway{failFor: -1}

	p := NewPoller(primary, nil, Config{Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	if p.Await(t.Context(), "tx-1") {
		t.Fatal("expected no confirmation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Await took %v, want bounded by timeout", elapsed)
	}
	if got := primary.count(); got > p.Rounds() {
		t.Errorf("probes = %d, exceeds round cap %d", got, p.Rounds())
	}
}

func TestPoller_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	p := NewPoller(&scriptedGateway{failFor: -1}, nil, Config{}, nil)
	if p.Await(ctx, "tx-1") {
		t.Fatal("expected false for canceled context")
	}
}

func TestHTTPGateway_GetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tx/known/status" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL+"/", srv.Client())

	status, err := gw.GetStatus(t.Context(), "known")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}

	status, err = gw.GetStatus(t.Context(), "pending")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestPoller_WithHTTPGateways(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n >= 3 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewPoller(NewHTTPGateway(srv.URL, srv.Client()), nil, testConfig(), nil)
	if !p.Await(t.Context(), "tx-1") {
		t.Fatal("expected confirmation")
	}
}
