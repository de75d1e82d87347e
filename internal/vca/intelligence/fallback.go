// internal/vca/intelligence/fallback.go
package intelligence

// FallbackDocument is returned whenever synthesis fails. It has the same
// shape as a successful document. A fresh value is built on every call.
func FallbackDocument() *AdvisoryDocument {
	return &AdvisoryDocument{
		BuyingProfile:       "Information unavailable.",
		RONotes:             "Inspection completed. Recommendations pending review.",
		CustomerFacingNotes: "We completed your inspection and will follow up with details shortly.",
		InternalNotes: map[string][]string{
			CategorySafety:      {},
			CategoryMaintenance: {},
			CategoryRepairs:     {},
		},
		SalesScript: "Once we review the inspection results, we can discuss next steps together.",
		FollowUpSchedule: FollowUpSchedule{
			SixMonth:    []string{},
			TwelveMonth: []string{},
		},
		AISuggestedOpportunities: []string{},
	}
}
