// internal/vca/intelligence/prompt.go
package intelligence

import (
	"encoding/json"
	"strings"

	buildcontext "vca-advisor/internal/vca/build-context"
)

const systemPrompt = `You are an experienced automotive service advisor.

Rules you MUST follow:
- Use ONLY the provided repair order data.
- Do NOT invent findings.
- Do NOT infer unverified problems.
- Ignore any inspection items that are unchecked or gray.
- Be conservative and factual.
- Return ONLY valid JSON.
- Do not include markdown or commentary.`

const responseShape = `Return JSON in EXACTLY this shape:

{
  "buyingProfile": string,
  "roNotes": string,
  "customerFacingNotes": string,
  "internalNotes": {
    "Safety Issues": string[],
    "Maintenance": string[],
    "Repairs": string[]
  },
  "salesScript": string,
  "followUpSchedule": {
    "sixMonth": string[],
    "twelveMonth": string[]
  },
  "aiSuggestedOpportunities": string[]
}

Constraints:
- roNotes: 2–3 concise sentences, copy/paste ready.
- customerFacingNotes: plain language, no sales pressure.
- aiSuggestedOpportunities: OPTIONAL, conservative, clearly non-authoritative.`

func (s *Synthesizer) buildPrompt(agg *buildcontext.Aggregate) string {
	var parts []string

	parts = append(parts, "Repair Order Data:")
	parts = append(parts, toIndentedJSON(agg.RepairOrder))

	if s.config.IncludeRelatedRecords {
		if len(agg.Vehicle) > 0 {
			parts = append(parts, "\nVehicle Data:")
			parts = append(parts, toIndentedJSON(agg.Vehicle))
		}
		if len(agg.Customer) > 0 {
			parts = append(parts, "\nCustomer Data:")
			parts = append(parts, toIndentedJSON(agg.Customer))
		}
	}

	if agg.Inspection != nil {
		parts = append(parts, "\nInspection:")
		parts = append(parts, toIndentedJSON(agg.Inspection))
	}

	parts = append(parts, "\n"+responseShape)

	return strings.Join(parts, "\n")
}

func toIndentedJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
