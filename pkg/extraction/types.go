package extraction

import (
	"fmt"
	"strings"
)

// Timing describes when a medicine is taken during the day.
type Timing struct {
	Morning     string `json:"morning"`
	Afternoon   string `json:"afternoon"`
	Night       string `json:"night"`
	Instruction string `json:"instruction"`
}

// Medicine is one prescribed item.
type Medicine struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Timing    Timing `json:"timing"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// PrescriptionData is the structured result of extracting a prescription
// document.
type PrescriptionData struct {
	Date      string     `json:"date"`
	Medicines []Medicine `json:"medicines"`
	Notes     string     `json:"notes"`
}

// MedicineLines renders one summary line per medicine. These lines are what
// gets shown in the session details panel and what gets chunked for indexing.
func (d *PrescriptionData) MedicineLines() string {
	lines := make([]string, 0, len(d.Medicines))
	for _, med := range d.Medicines {
		t := med.Timing
		timingStr := fmt.Sprintf("Morning: %s, Afternoon: %s, Night: %s, Instruction: %s",
			t.Morning, t.Afternoon, t.Night, t.Instruction)
		lines = append(lines, fmt.Sprintf("- %s (Qty: %s): %s, Freq: %s, Duration: %s",
			med.Name, med.Quantity, timingStr, med.Frequency, med.Duration))
	}
	return strings.Join(lines, "\n")
}

// Flatten renders the full text content that gets indexed in the vector store.
func (d *PrescriptionData) Flatten() string {
	return fmt.Sprintf("Date: %s\n\nMedicines:\n%s\n\nNotes: %s", d.Date, d.MedicineLines(), d.Notes)
}

// Title derives a chat title from the first two medicine names, falling back
// to the source filename when nothing was extracted.
func (d *PrescriptionData) Title(filename string) string {
	names := make([]string, 0, len(d.Medicines))
	for _, med := range d.Medicines {
		name := med.Name
		if name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return fmt.Sprintf("Prescription %s", filename)
	}

	limit := 2
	if len(names) < limit {
		limit = len(names)
	}
	title := fmt.Sprintf("Prescription: %s", strings.Join(names[:limit], ", "))
	if len(names) > 2 {
		title += "..."
	}
	return title
}
