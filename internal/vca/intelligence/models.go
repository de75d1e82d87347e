// internal/vca/intelligence/models.go
package intelligence

// Internal note categories requested from the model.
const (
	CategorySafety      = "Safety Issues"
	CategoryMaintenance = "Maintenance"
	CategoryRepairs     = "Repairs"
)

// AdvisoryDocument is the fixed-shape output of synthesis. Every field is
// always serialized; absent content is an empty string, list or map.
type AdvisoryDocument struct {
	BuyingProfile            string              `json:"buyingProfile"`
	RONotes                  string              `json:"roNotes"`
	CustomerFacingNotes      string              `json:"customerFacingNotes"`
	InternalNotes            map[string][]string `json:"internalNotes"`
	SalesScript              string              `json:"salesScript"`
	FollowUpSchedule         FollowUpSchedule    `json:"followUpSchedule"`
	AISuggestedOpportunities []string            `json:"aiSuggestedOpportunities"`
}

type FollowUpSchedule struct {
	SixMonth    []string `json:"sixMonth"`
	TwelveMonth []string `json:"twelveMonth"`
}

// normalize replaces nil collections with empty ones so the JSON never
// carries null.
func (d *AdvisoryDocument) normalize() {
	if d.InternalNotes == nil {
		d.InternalNotes = map[string][]string{}
	}
	for k, v := range d.InternalNotes {
		if v == nil {
			d.InternalNotes[k] = []string{}
		}
	}
	if d.FollowUpSchedule.SixMonth == nil {
		d.FollowUpSchedule.SixMonth = []string{}
	}
	if d.FollowUpSchedule.TwelveMonth == nil {
		d.FollowUpSchedule.TwelveMonth = []string{}
	}
	if d.AISuggestedOpportunities == nil {
		d.AISuggestedOpportunities = []string{}
	}
}
