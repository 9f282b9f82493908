package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/ec2inv/pkg/host"
)

// mockPlugin implements Plugin for testing.
type mockPlugin struct {
	region  string
	records []host.Record
	err     error
	// block waits for ctx cancellation before returning.
	block bool
}

func (m *mockPlugin) Name() string {
	return "mock/" + m.region
}

func (m *mockPlugin) Region() string {
	return m.region
}

func (m *mockPlugin) Scan(ctx context.Context) ([]host.Record, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.records, m.err
}

type recordingObserver struct {
	mu      sync.Mutex
	regions map[string]int
	errs    map[string]error
}

func (o *recordingObserver) ObserveScan(_ context.Context, region string, _ time.Time, _ time.Duration, count int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.regions == nil {
		o.regions = make(map[string]int)
		o.errs = make(map[string]error)
	}
	o.regions[region] = count
	o.errs[region] = err
}

func rec(hostName, region string) host.Record {
	return host.Record{ID: "i-" + hostName, Host: hostName, Env: "prod", Service: "api", Region: region}
}

func TestScanAll_NoPlugins(t *testing.T) {
	_, err := ScanAll(context.Background(), nil, ScanOptions{})
	require.ErrorIs(t, err, ErrNoPlugins)
}

func TestScanAll_CombinesInPluginOrder(t *testing.T) {
	plugins := []Plugin{
		&mockPlugin{region: "us-west-2", records: []host.Record{rec("b1", "us-west-2"), rec("b2", "us-west-2")}},
		&mockPlugin{region: "us-east-1", records: []host.Record{rec("a1", "us-east-1")}},
	}

	report, err := ScanAll(context.Background(), plugins, ScanOptions{})
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "b1", records[0].Host)
	assert.Equal(t, "b2", records[1].Host)
	assert.Equal(t, "a1", records[2].Host)
	assert.Empty(t, report.Failed())
	assert.Empty(t, report.Missing())
	require.Len(t, report.Results, 2)
	assert.Equal(t, "us-west-2", report.Results[0].Region)
}

func TestScanAll_FailFast(t *testing.T) {
	plugins := []Plugin{
		&mockPlugin{region: "us-east-1", records: []host.Record{rec("a1", "us-east-1")}},
		&mockPlugin{region: "us-west-2", err: errors.New("boom")},
	}

	report, err := ScanAll(context.Background(), plugins, ScanOptions{Policy: PolicyFailFast})

	require.Error(t, err)
	assert.Nil(t, report)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "us-west-2", fe.Region)
	assert.Equal(t, "unknown", fe.Code)
	assert.Contains(t, err.Error(), "fetch us-west-2: boom")
}

func TestScanAll_FailFastCancelsOthers(t *testing.T) {
	plugins := []Plugin{
		&mockPlugin{region: "us-east-1", block: true},
		&mockPlugin{region: "us-west-2", err: errors.New("boom")},
	}

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = ScanAll(context.Background(), plugins, ScanOptions{Policy: PolicyFailFast})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ScanAll did not cancel the blocked region")
	}

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "us-west-2", fe.Region)
}

func TestScanAll_Partial(t *testing.T) {
	plugins := []Plugin{
		&mockPlugin{region: "us-east-1", records: []host.Record{rec("a1", "us-east-1")}},
		&mockPlugin{region: "us-west-2", err: errors.New("boom")},
		&mockPlugin{region: "us-west-1", records: []host.Record{rec("c1", "us-west-1")}},
	}

	report, err := ScanAll(context.Background(), plugins, ScanOptions{Policy: PolicyPartial})
	require.NoError(t, err)

	records := report.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].Host)
	assert.Equal(t, "c1", records[1].Host)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "us-west-2", failed[0].Region)
	assert.Equal(t, []string{"us-west-2"}, report.Missing())
}

func TestScanAll_Timeout(t *testing.T) {
	plugins := []Plugin{
		&mockPlugin{region: "us-east-1", block: true},
	}

	report, err := ScanAll(context.Background(), plugins, ScanOptions{Policy: PolicyPartial, Timeout: 10 * time.Millisecond})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "timeout", failed[0].Code)
	assert.ErrorIs(t, failed[0], context.DeadlineExceeded)
}

func TestScanAll_Observer(t *testing.T) {
	obs := &recordingObserver{}
	plugins := []Plugin{
		&mockPlugin{region: "us-east-1", records: []host.Record{rec("a1", "us-east-1"), rec("a2", "us-east-1")}},
		&mockPlugin{region: "us-west-2", err: errors.New("boom")},
	}

	_, err := ScanAll(context.Background(), plugins, ScanOptions{Policy: PolicyPartial, Observer: obs})
	require.NoError(t, err)

	assert.Equal(t, 2, obs.regions["us-east-1"])
	assert.NoError(t, obs.errs["us-east-1"])
	assert.Equal(t, 0, obs.regions["us-west-2"])
	var fe *FetchError
	require.ErrorAs(t, obs.errs["us-west-2"], &fe)
	assert.Equal(t, "us-west-2", fe.Region)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "denied"}, "UnauthorizedOperation"},
		{"wrapped api error", errors.Join(errors.New("describe instances"), &smithy.GenericAPIError{Code: "RequestLimitExceeded"}), "RequestLimitExceeded"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFailFast, p)

	p, err = ParsePolicy("partial")
	require.NoError(t, err)
	assert.Equal(t, PolicyPartial, p)

	_, err = ParsePolicy("best-effort")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fetch policy")
}
