package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charles-forsyth/Skywalker/config"
	"github.com/charles-forsyth/Skywalker/pricing"
	"github.com/charles-forsyth/Skywalker/retry"
	"github.com/charles-forsyth/Skywalker/telemetry"
	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
	"github.com/charles-forsyth/Skywalker/zombie"
)

type fakeWalker struct {
	service types.Service
	fetch   func(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error)
}

func (w *fakeWalker) Service() types.Service { return w.service }

func (w *fakeWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	return w.fetch(ctx, scope)
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func testOptions() Options {
	return Options{
		ProjectConcurrency: 5,
		RegionConcurrency:  4,
		Retry:              fastPolicy(),
	}
}

// oneRecord is a fetch func returning a single instance per scope.
func oneRecord(_ context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	return []walker.RawResource{
		{Kind: "instance", Identifier: "vm-" + scope.Region},
	}, nil
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	reg := walker.NewRegistry()

	tests := []struct {
		name string
		opts Options
	}{
		{"zero project concurrency", Options{ProjectConcurrency: 0, RegionConcurrency: 4, Retry: fastPolicy()}},
		{"zero region concurrency", Options{ProjectConcurrency: 5, RegionConcurrency: 0, Retry: fastPolicy()}},
		{"invalid retry policy", Options{ProjectConcurrency: 5, RegionConcurrency: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(reg, tt.opts); err == nil {
				t.Error("New() should reject malformed options")
			}
		})
	}
}

func TestRun_EmptyScopes(t *testing.T) {
	s, err := New(walker.NewRegistry(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Attempted != 0 || len(result.Records) != 0 {
		t.Errorf("empty scan produced %+v", result.Summary)
	}
}

func TestRun_AllUnitsSucceed(t *testing.T) {
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{service: types.ServiceCompute, fetch: oneRecord})

	scopes := ExpandScopes(
		[]string{"proj-a", "proj-b", "proj-c"},
		[]types.Service{types.ServiceCompute},
		[]string{"us-central1", "us-west1"},
	)

	s, err := New(reg, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Attempted != len(scopes) {
		t.Errorf("Attempted = %d, want %d", result.Summary.Attempted, len(scopes))
	}
	if result.Summary.Succeeded != len(scopes) || result.Summary.Failed != 0 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.Summary.RecordCount != len(scopes) {
		t.Errorf("RecordCount = %d, want %d", result.Summary.RecordCount, len(scopes))
	}
	if len(result.Records["proj-a"]) != 2 {
		t.Errorf("proj-a records = %v", result.Records["proj-a"])
	}
}

func TestRun_OneUnitPermissionDenied(t *testing.T) {
	denied := types.ScanScope{ProjectID: "proj-b", Service: types.ServiceCompute, Region: "us-west1"}
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{
		service: types.ServiceCompute,
		fetch: func(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
			if scope == denied {
				return nil, walker.NewError(types.FailurePermissionDenied, errors.New("403"))
			}
			return oneRecord(ctx, scope)
		},
	})

	scopes := ExpandScopes(
		[]string{"proj-a", "proj-b"},
		[]types.Service{types.ServiceCompute},
		[]string{"us-central1", "us-west1"},
	)

	s, _ := New(reg, testOptions())
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Failed != 1 || result.Summary.Succeeded != 3 {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %v", result.Failures)
	}
	failure := result.Failures[0]
	if failure.Scope != denied || failure.Failure.Class != types.FailurePermissionDenied {
		t.Errorf("failure = %+v", failure)
	}
	// The sibling units of the denied project still produced data.
	if len(result.Records["proj-b"]) != 1 {
		t.Errorf("proj-b records = %v", result.Records["proj-b"])
	}
}

func TestRun_TransientFailuresAreRetried(t *testing.T) {
	var calls atomic.Int32
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{
		service: types.ServiceCompute,
		fetch: func(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
			if calls.Add(1) <= 2 {
				return nil, walker.NewError(types.FailureTransient, errors.New("rate limited"))
			}
			return oneRecord(ctx, scope)
		},
	})

	scopes := []types.ScanScope{
		{ProjectID: "proj-a", Service: types.ServiceCompute, Region: "us-central1"},
	}

	s, _ := New(reg, testOptions())
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if result.Summary.Retried != 2 {
		t.Errorf("Retried = %d, want 2", result.Summary.Retried)
	}
}

func TestRun_MissingWalkerFailsUnit(t *testing.T) {
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{service: types.ServiceCompute, fetch: oneRecord})

	scopes := []types.ScanScope{
		{ProjectID: "proj-a", Service: types.ServiceCompute, Region: "us-central1"},
		{ProjectID: "proj-a", Service: types.ServiceSQL, Region: "us-central1"},
	}

	s, _ := New(reg, testOptions())
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Failed != 1 || result.Summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if result.Failures[0].Failure.Class != types.FailureNotFound {
		t.Errorf("failure = %+v", result.Failures[0])
	}
}

func TestRun_CancelledContext(t *testing.T) {
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{service: types.ServiceCompute, fetch: oneRecord})

	scopes := ExpandScopes(
		[]string{"proj-a", "proj-b"},
		[]types.Service{types.ServiceCompute},
		[]string{"us-central1", "us-west1"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := New(reg, testOptions())
	result, err := s.Run(ctx, scopes)
	if err != nil {
		t.Fatal(err)
	}

	// Every unit still gets an outcome; none hangs or disappears.
	if result.Summary.Attempted != len(scopes) {
		t.Errorf("Attempted = %d, want %d", result.Summary.Attempted, len(scopes))
	}
	if result.Summary.Failed != len(scopes) {
		t.Errorf("Failed = %d, want %d", result.Summary.Failed, len(scopes))
	}
	for _, failure := range result.Failures {
		if failure.Failure.Class != types.FailureCancelled {
			t.Errorf("failure class = %v, want cancelled", failure.Failure.Class)
		}
	}
}

func TestRun_RespectsRegionConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32

	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{
		service: types.ServiceCompute,
		fetch: func(_ context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inflight.Add(-1)
			return oneRecord(context.Background(), scope)
		},
	})

	regions := []string{"us-central1", "us-west1", "us-east1", "us-east4", "us-west2", "us-west4"}
	scopes := ExpandScopes([]string{"proj-a"}, []types.Service{types.ServiceCompute}, regions)

	opts := testOptions()
	opts.RegionConcurrency = 2

	s, _ := New(reg, opts)
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.Succeeded != len(scopes) {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak in-flight units = %d, want at most 2", got)
	}
}

func TestRun_DeterministicResult(t *testing.T) {
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{service: types.ServiceCompute, fetch: oneRecord})
	reg.Register(&fakeWalker{
		service: types.ServiceStorage,
		fetch: func(_ context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
			return []walker.RawResource{
				{Kind: "bucket", Identifier: "logs-" + scope.ProjectID, Region: "us"},
			}, nil
		},
	})

	scopes := ExpandScopes(
		[]string{"proj-c", "proj-a", "proj-b"},
		[]types.Service{types.ServiceCompute, types.ServiceStorage},
		[]string{"us-west1", "us-central1"},
	)

	run := func() *types.FleetResult {
		s, _ := New(reg, testOptions())
		result, err := s.Run(context.Background(), scopes)
		if err != nil {
			t.Fatal(err)
		}
		return result
	}

	first, second := run(), run()

	for _, pid := range first.Projects() {
		a, b := first.Records[pid], second.Records[pid]
		if len(a) != len(b) {
			t.Fatalf("project %s: %d vs %d records", pid, len(a), len(b))
		}
		for i := range a {
			a[i].CollectedAt, b[i].CollectedAt = time.Time{}, time.Time{}
			if a[i].Identifier != b[i].Identifier || a[i].Kind != b[i].Kind {
				t.Errorf("project %s record %d differs: %v vs %v", pid, i, a[i], b[i])
			}
		}
	}
}

func TestRun_WithTelemetryProvider(t *testing.T) {
	provider, err := telemetry.NewProvider(context.Background(), config.OTELConfig{ServiceName: "test"})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{service: types.ServiceCompute, fetch: oneRecord})

	opts := testOptions()
	opts.Metrics = provider

	s, err := New(reg, opts)
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), []types.ScanScope{
		{ProjectID: "proj-a", Service: types.ServiceCompute, Region: "us-central1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.Succeeded != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestRun_ScanThenDetect(t *testing.T) {
	reg := walker.NewRegistry()
	reg.Register(&fakeWalker{
		service: types.ServiceCompute,
		fetch: func(_ context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
			if scope.ProjectID == "proj-b" {
				return nil, walker.NewError(types.FailurePermissionDenied, errors.New("403"))
			}
			return []walker.RawResource{
				{
					Kind:       "disk",
					Identifier: "data-disk",
					Attributes: map[string]any{
						"attachment_state": "unattached",
						"size_gb":          float64(200),
						"disk_type":        "pd-standard",
					},
				},
				{
					Kind:       "disk",
					Identifier: "boot-disk",
					Attributes: map[string]any{
						"attachment_state": "attached",
						"size_gb":          float64(50),
						"disk_type":        "pd-standard",
					},
				},
			}, nil
		},
	})

	scopes := []types.ScanScope{
		{ProjectID: "proj-a", Service: types.ServiceCompute, Region: "us-central1"},
		{ProjectID: "proj-b", Service: types.ServiceCompute, Region: "us-central1"},
	}

	s, _ := New(reg, testOptions())
	result, err := s.Run(context.Background(), scopes)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Records["proj-a"]) != 2 || len(result.Failures) != 1 {
		t.Fatalf("result = %+v", result.Summary)
	}

	findings := zombie.NewEngine(pricing.DefaultTable(), zombie.DefaultOptions()).Detect(result)
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want one orphaned disk", findings)
	}
	f := findings[0]
	if f.Category != types.ZombieOrphanedDisk || f.Resource.Identifier != "data-disk" {
		t.Errorf("finding = %+v", f)
	}
	if f.EstimatedMonthlyCost <= 0 {
		t.Errorf("cost = %v, want non-zero", f.EstimatedMonthlyCost)
	}
}

func TestExpandScopes(t *testing.T) {
	scopes := ExpandScopes(
		[]string{"proj-a", "proj-b"},
		[]types.Service{types.ServiceCompute, types.ServiceStorage},
		[]string{"us-central1", "us-west1"},
	)

	// compute is regional (2 projects x 2 regions), storage is global
	// (2 projects x 1 region-less unit).
	if len(scopes) != 6 {
		t.Fatalf("len(scopes) = %d, want 6", len(scopes))
	}

	var globals int
	for _, scope := range scopes {
		if scope.Service == types.ServiceStorage {
			globals++
			if scope.Region != "" {
				t.Errorf("storage scope has region %q", scope.Region)
			}
		}
	}
	if globals != 2 {
		t.Errorf("global units = %d, want 2", globals)
	}
}
