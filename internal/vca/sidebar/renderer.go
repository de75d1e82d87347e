// Package sidebar renders the advisor sidebar HTML.
package sidebar

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"vca-advisor/internal/vca/intelligence"
)

const (
	Placeholder = "Not available yet."
	Disclaimer  = "AI-generated suggestions for consideration. Not authoritative."

	TabAdvisor  = "advisor"
	TabCustomer = "customer"
)

//go:embed templates/*.html
var templateFS embed.FS

// ListBlock is a labelled list. Empty Items render as the placeholder.
type ListBlock struct {
	Heading string
	Items   []string
}

// AdvisorPanel is the display model of the Advisor tab. Text fields already
// carry the placeholder when empty.
type AdvisorPanel struct {
	BuyingProfile string
	RONotes       string
	InternalNotes []ListBlock
	Opportunities []string
	Disclaimer    string
	SalesScript   string
	SixMonth      []string
	TwelveMonth   []string
}

// CustomerPanel is the display model of the Customer tab.
type CustomerPanel struct {
	Notes string
}

type shellData struct {
	ROID        string
	Placeholder string
	Disclaimer  string
}

type sidebarData struct {
	ROID     string
	Tab      string
	Error    string
	Advisor  AdvisorPanel
	Customer CustomerPanel
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("vca").
		Funcs(template.FuncMap{"placeholder": func() string { return Placeholder }}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse sidebar templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// RenderIndex writes the instructional page shown without a repair order id.
func (r *Renderer) RenderIndex(w io.Writer) error {
	return r.templates.ExecuteTemplate(w, "index", nil)
}

// RenderShell writes the script-driven sidebar for roID.
func (r *Renderer) RenderShell(w io.Writer, roID string) error {
	return r.templates.ExecuteTemplate(w, "shell", shellData{
		ROID:        roID,
		Placeholder: Placeholder,
		Disclaimer:  Disclaimer,
	})
}

// RenderSidebar writes the server-rendered sidebar with one tab selected.
func (r *Renderer) RenderSidebar(w io.Writer, roID, tab string, doc *intelligence.AdvisoryDocument) error {
	if tab != TabCustomer {
		tab = TabAdvisor
	}
	return r.templates.ExecuteTemplate(w, "sidebar", sidebarData{
		ROID:     roID,
		Tab:      tab,
		Advisor:  BuildAdvisorPanel(doc),
		Customer: BuildCustomerPanel(doc),
	})
}

// RenderError writes the sidebar frame with an error message in place of the
// tabs' content.
func (r *Renderer) RenderError(w io.Writer, roID, message string) error {
	return r.templates.ExecuteTemplate(w, "sidebar", sidebarData{
		ROID:  roID,
		Tab:   TabAdvisor,
		Error: message,
	})
}

// BuildAdvisorPanel maps a document onto the Advisor tab. Categories are
// sorted by name.
func BuildAdvisorPanel(doc *intelligence.AdvisoryDocument) AdvisorPanel {
	if doc == nil {
		doc = &intelligence.AdvisoryDocument{}
	}

	categories := make([]string, 0, len(doc.InternalNotes))
	for category := range doc.InternalNotes {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	notes := make([]ListBlock, 0, len(categories))
	for _, category := range categories {
		notes = append(notes, ListBlock{Heading: category, Items: doc.InternalNotes[category]})
	}

	panel := AdvisorPanel{
		BuyingProfile: textOrPlaceholder(doc.BuyingProfile),
		RONotes:       textOrPlaceholder(doc.RONotes),
		InternalNotes: notes,
		Opportunities: doc.AISuggestedOpportunities,
		SalesScript:   textOrPlaceholder(doc.SalesScript),
		SixMonth:      doc.FollowUpSchedule.SixMonth,
		TwelveMonth:   doc.FollowUpSchedule.TwelveMonth,
	}
	if len(doc.AISuggestedOpportunities) > 0 {
		panel.Disclaimer = Disclaimer
	}
	return panel
}

func BuildCustomerPanel(doc *intelligence.AdvisoryDocument) CustomerPanel {
	if doc == nil {
		return CustomerPanel{Notes: Placeholder}
	}
	return CustomerPanel{Notes: textOrPlaceholder(doc.CustomerFacingNotes)}
}

func textOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
