// internal/vca/build-context/models.go
package buildcontext

import "vca-advisor/internal/tekmetric"

// Aggregate is one repair order with the records it references. It is built
// per request and never stored.
type Aggregate struct {
	RepairOrder      tekmetric.Record          `json:"repairOrder"`
	Vehicle          tekmetric.Record          `json:"vehicle"`
	Customer         tekmetric.Record          `json:"customer"`
	Jobs             []interface{}             `json:"jobs"`
	Fees             []interface{}             `json:"fees"`
	CustomerConcerns []interface{}             `json:"customerConcerns"`
	Inspection       *tekmetric.InspectionLink `json:"inspection,omitempty"`
}
