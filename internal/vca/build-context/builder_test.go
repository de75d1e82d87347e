package buildcontext

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"vca-advisor/internal/common/errors"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/tekmetric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ==========================
// Fake fetcher
// ==========================

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string

	repairOrder tekmetric.Record
	roErr       error
	vehicle     tekmetric.Record
	vehicleErr  error
	customer    tekmetric.Record
	customerErr error
	jobs        tekmetric.Record

	// rendezvous makes the vehicle and customer fetches each wait until the
	// other has started.
	rendezvous bool
	vehicleIn  chan struct{}
	customerIn chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		vehicleIn:  make(chan struct{}),
		customerIn: make(chan struct{}),
	}
}

func (f *fakeFetcher) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) FetchRepairOrder(_ context.Context, id string) (tekmetric.Record, error) {
	f.record("repairOrder:" + id)
	return f.repairOrder, f.roErr
}

func (f *fakeFetcher) FetchVehicle(ctx context.Context, id string) (tekmetric.Record, error) {
	f.record("vehicle:" + id)
	if f.rendezvous {
		close(f.vehicleIn)
		select {
		case <-f.customerIn:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return nil, errors.NewValidationError("customer fetch never started while vehicle fetch was in flight")
		}
	}
	return f.vehicle, f.vehicleErr
}

func (f *fakeFetcher) FetchCustomer(ctx context.Context, id string) (tekmetric.Record, error) {
	f.record("customer:" + id)
	if f.rendezvous {
		close(f.customerIn)
		select {
		case <-f.vehicleIn:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return nil, errors.NewValidationError("vehicle fetch never started while customer fetch was in flight")
		}
	}
	return f.customer, f.customerErr
}

func (f *fakeFetcher) FetchJobsByRepairOrder(_ context.Context, id string) (tekmetric.Record, error) {
	f.record("jobs:" + id)
	return f.jobs, nil
}

func newTestBuilder(t *testing.T, cfg *Config, f Fetcher) *Builder {
	t.Helper()
	return NewBuilder(cfg, f, logger.NewTestLogger(t))
}

// ==========================
// Foreign key validation
// ==========================

func TestBuild_MissingForeignKeys(t *testing.T) {
	tests := []struct {
		name string
		ro   tekmetric.Record
		want string
	}{
		{"no vehicleId", tekmetric.Record{"customerId": json.Number("2")}, "missing vehicleId"},
		{"null vehicleId", tekmetric.Record{"vehicleId": nil, "customerId": json.Number("2")}, "missing vehicleId"},
		{"empty vehicleId", tekmetric.Record{"vehicleId": "", "customerId": "2"}, "missing vehicleId"},
		{"zero vehicleId", tekmetric.Record{"vehicleId": json.Number("0"), "customerId": "2"}, "missing vehicleId"},
		{"no customerId", tekmetric.Record{"vehicleId": json.Number("1")}, "missing customerId"},
		{"null customerId", tekmetric.Record{"vehicleId": "1", "customerId": nil}, "missing customerId"},
		{"empty record", tekmetric.Record{}, "missing vehicleId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			f.repairOrder = tt.ro

			_, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, []string{"repairOrder:100"}, f.Calls())
		})
	}
}

// ==========================
// Concurrent fan-out
// ==========================

func TestBuild_FetchesVehicleAndCustomerConcurrently(t *testing.T) {
	f := newFakeFetcher()
	f.rendezvous = true
	f.repairOrder = tekmetric.Record{"id": json.Number("100"), "vehicleId": json.Number("7"), "customerId": json.Number("8")}
	f.vehicle = tekmetric.Record{"id": json.Number("7"), "make": "Honda"}
	f.customer = tekmetric.Record{"id": json.Number("8"), "firstName": "Ana"}

	agg, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "Honda", agg.Vehicle["make"])
	assert.Equal(t, "Ana", agg.Customer["firstName"])
	assert.ElementsMatch(t, []string{"repairOrder:100", "vehicle:7", "customer:8"}, f.Calls())
}

func TestBuild_FetchErrorPropagatesUnchanged(t *testing.T) {
	apiErr := errors.NewUpstreamAPIError(404, "/customers/8", "not found")

	f := newFakeFetcher()
	f.repairOrder = tekmetric.Record{"vehicleId": "7", "customerId": "8"}
	f.vehicle = tekmetric.Record{"id": "7"}
	f.customerErr = apiErr

	_, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
	assert.Same(t, apiErr, err)
}

func TestBuild_RepairOrderErrorStopsEarly(t *testing.T) {
	apiErr := errors.NewUpstreamAPIError(404, "/repair-orders/100", "")
	f := newFakeFetcher()
	f.roErr = apiErr

	_, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
	assert.Same(t, apiErr, err)
	assert.Equal(t, []string{"repairOrder:100"}, f.Calls())
}

func TestBuild_NullRecordsRejected(t *testing.T) {
	f := newFakeFetcher()
	f.repairOrder = tekmetric.Record{"vehicleId": "7", "customerId": "8"}
	f.customer = tekmetric.Record{"id": "8"}

	_, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "vehicle")

	f = newFakeFetcher()
	f.repairOrder = tekmetric.Record{"vehicleId": "7", "customerId": "8"}
	f.vehicle = tekmetric.Record{"id": "7"}

	_, err = newTestBuilder(t, nil, f).Build(context.Background(), "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer")
}

// ==========================
// Aggregate shape
// ==========================

func TestBuild_DefaultsSequences(t *testing.T) {
	f := newFakeFetcher()
	f.repairOrder = tekmetric.Record{"vehicleId": "7", "customerId": "8"}
	f.vehicle = tekmetric.Record{"id": "7"}
	f.customer = tekmetric.Record{"id": "8"}

	agg, err := newTestBuilder(t, nil, f).Build(context.Background(), "100")
	require.NoError(t, err)
	assert.NotNil(t, agg.Jobs)
	assert.NotNil(t, agg.Fees)
	assert.NotNil(t, agg.CustomerConcerns)
	assert.Empty(t, agg.Jobs)
	assert.Nil(t, agg.Inspection)

	raw, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"jobs":[]`)
	assert.Contains(t, string(raw), `"fees":[]`)
	assert.Contains(t, string(raw), `"customerConcerns":[]`)
	assert.NotContains(t, string(raw), `"inspection"`)
}

func TestBuild_CarriesSequencesAndInspection(t *testing.T) {
	f := newFakeFetcher()
	f.repairOrder = tekmetric.Record{
		"vehicleId":        "7",
		"customerId":       "8",
		"jobs":             []interface{}{map[string]interface{}{"name": "Oil change"}},
		"fees":             []interface{}{"shop supplies"},
		"customerConcerns": []interface{}{"noise when braking"},
		"inspectionUrl":    "https://shop.example.com/i/100.pdf",
	}
	f.vehicle = tekmetric.Record{"id": "7"}
	f.customer = tekmetric.Record{"id": "8"}

	agg, err := newTestBuilder(t, &Config{ExpandJobs: true}, f).Build(context.Background(), "100")
	require.NoError(t, err)
	assert.Len(t, agg.Jobs, 1)
	assert.Equal(t, []interface{}{"shop supplies"}, agg.Fees)
	assert.Equal(t, []interface{}{"noise when braking"}, agg.CustomerConcerns)
	require.NotNil(t, agg.Inspection)
	assert.Equal(t, "https://shop.example.com/i/100.pdf", agg.Inspection.InspectionURL)
	assert.NotContains(t, f.Calls(), "jobs:100")
}

func TestBuild_ExpandJobs(t *testing.T) {
	f := newFakeFetcher()
	f.repairOrder = tekmetric.Record{"vehicleId": "7", "customerId": "8"}
	f.vehicle = tekmetric.Record{"id": "7"}
	f.customer = tekmetric.Record{"id": "8"}
	f.jobs = tekmetric.Record{"content": []interface{}{"job-a", "job-b"}}

	agg, err := newTestBuilder(t, &Config{ExpandJobs: true}, f).Build(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"job-a", "job-b"}, agg.Jobs)
	assert.Contains(t, f.Calls(), "jobs:100")
}
