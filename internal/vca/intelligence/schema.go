// internal/vca/intelligence/schema.go
package intelligence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vca-advisor/internal/common/validation"
)

var ErrInvalidDocument = errors.New("ADVISORY_DOCUMENT_INVALID")

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "buyingProfile",
    "roNotes",
    "customerFacingNotes",
    "internalNotes",
    "salesScript",
    "followUpSchedule",
    "aiSuggestedOpportunities"
  ],
  "properties": {
    "buyingProfile": {"type": "string"},
    "roNotes": {"type": "string"},
    "customerFacingNotes": {"type": "string"},
    "internalNotes": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    },
    "salesScript": {"type": "string"},
    "followUpSchedule": {
      "type": "object",
      "required": ["sixMonth", "twelveMonth"],
      "properties": {
        "sixMonth": {"type": "array", "items": {"type": "string"}},
        "twelveMonth": {"type": "array", "items": {"type": "string"}}
      }
    },
    "aiSuggestedOpportunities": {"type": "array", "items": {"type": "string"}}
  }
}`

var advisorySchema = validation.MustCompileSchema(documentSchema)

// parseDocument decodes raw model output and checks it against the document
// schema.
func parseDocument(raw string) (*AdvisoryDocument, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidDocument)
	}

	result, err := advisorySchema.ValidateJSON([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(result.GetErrorMessages(), "; "))
	}

	var doc AdvisoryDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc.normalize()
	return &doc, nil
}
