package tekmetric

import (
	"encoding/json"
	"strconv"
	"strings"
)

const inspectionNote = "Inspection must be fetched as PDF via inspectionUrl (not API JSON)."

// InspectionLink points at the inspection PDF; inspections are not available
// as API JSON.
type InspectionLink struct {
	Type          string `json:"type"`
	InspectionURL string `json:"inspectionUrl"`
	Note          string `json:"note"`
}

// InspectionFromRepairOrder returns the inspection link carried by the repair
// order, or nil when it has none.
func InspectionFromRepairOrder(ro Record) *InspectionLink {
	if ro == nil {
		return nil
	}
	u, ok := ro["inspectionUrl"].(string)
	if !ok || strings.TrimSpace(u) == "" {
		return nil
	}
	return &InspectionLink{
		Type:          "link",
		InspectionURL: u,
		Note:          inspectionNote,
	}
}

// IDString renders an id field as a string. Zero, empty and null ids are
// reported as absent.
func IDString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case json.Number:
		s := id.String()
		return s, s != "" && s != "0"
	case float64:
		if id == 0 {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), id != 0
	case int64:
		return strconv.FormatInt(id, 10), id != 0
	default:
		return "", false
	}
}

// Items returns the named field as a sequence, or an empty one when absent or
// not an array.
func (r Record) Items(key string) []interface{} {
	if items, ok := r[key].([]interface{}); ok {
		return items
	}
	return []interface{}{}
}
