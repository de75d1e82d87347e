// internal/vca/build-context/builder.go
package buildcontext

import (
	"context"
	"time"

	"vca-advisor/internal/common/errors"
	"vca-advisor/internal/common/logger"
	"vca-advisor/internal/tekmetric"

	"golang.org/x/sync/errgroup"
)

// Fetcher is the subset of the Tekmetric client the builder needs.
type Fetcher interface {
	FetchRepairOrder(ctx context.Context, id string) (tekmetric.Record, error)
	FetchVehicle(ctx context.Context, id string) (tekmetric.Record, error)
	FetchCustomer(ctx context.Context, id string) (tekmetric.Record, error)
	FetchJobsByRepairOrder(ctx context.Context, id string) (tekmetric.Record, error)
}

type Builder struct {
	config  *Config
	fetcher Fetcher
	logger  logger.Logger
}

func NewBuilder(config *Config, fetcher Fetcher, log logger.Logger) *Builder {
	if config == nil {
		config = LoadConfig()
	}
	return &Builder{
		config:  config,
		fetcher: fetcher,
		logger:  logger.ForComponent(log, "build-context"),
	}
}

// Build fetches the repair order and then its vehicle and customer
// concurrently. Fetch errors are returned unchanged.
func (b *Builder) Build(ctx context.Context, repairOrderID string) (*Aggregate, error) {
	start := time.Now()

	ro, err := b.fetcher.FetchRepairOrder(ctx, repairOrderID)
	if err != nil {
		return nil, err
	}
	if ro == nil {
		return nil, errors.NewValidationError("missing repairOrder")
	}

	vehicleID, ok := tekmetric.IDString(ro["vehicleId"])
	if !ok {
		return nil, errors.NewValidationError("missing vehicleId")
	}
	customerID, ok := tekmetric.IDString(ro["customerId"])
	if !ok {
		return nil, errors.NewValidationError("missing customerId")
	}

	jobs := ro.Items("jobs")
	expandJobs := b.config.ExpandJobs && len(jobs) == 0

	var (
		vehicle  tekmetric.Record
		customer tekmetric.Record
		listing  tekmetric.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vehicle, err = b.fetcher.FetchVehicle(gctx, vehicleID)
		return err
	})
	g.Go(func() error {
		var err error
		customer, err = b.fetcher.FetchCustomer(gctx, customerID)
		return err
	})
	if expandJobs {
		g.Go(func() error {
			var err error
			listing, err = b.fetcher.FetchJobsByRepairOrder(gctx, repairOrderID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if vehicle == nil {
		return nil, errors.NewValidationError("missing vehicle record for vehicleId " + vehicleID)
	}
	if customer == nil {
		return nil, errors.NewValidationError("missing customer record for customerId " + customerID)
	}
	if expandJobs && listing != nil {
		jobs = listing.Items("content")
	}

	b.logger.Debug("Context built", map[string]interface{}{
		"repairOrderId": repairOrderID,
		"vehicleId":     vehicleID,
		"customerId":    customerID,
		"jobs":          len(jobs),
		"durationMs":    time.Since(start).Milliseconds(),
	})

	return &Aggregate{
		RepairOrder:      ro,
		Vehicle:          vehicle,
		Customer:         customer,
		Jobs:             jobs,
		Fees:             ro.Items("fees"),
		CustomerConcerns: ro.Items("customerConcerns"),
		Inspection:       tekmetric.InspectionFromRepairOrder(ro),
	}, nil
}
