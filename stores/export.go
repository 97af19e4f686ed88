package stores

import (
	"fmt"
	"math"
	"strings"
)

// ExportOptions selects the sections of a text export.
type ExportOptions struct {
	Tasks    bool
	Missions bool
	Notes    bool
	Photos   bool
}

var ExportAll = ExportOptions{Tasks: true, Missions: true, Notes: true, Photos: true}

// ExportText renders a plain-text summary of the workspace.
func (w *Workspace) ExportText(opts ExportOptions) string {
	var b strings.Builder

	b.WriteString("Onboarding Journey Summary\n")
	b.WriteString("=======================\n\n")

	if opts.Tasks {
		b.WriteString("Tasks\n-----\n\n")
		for _, t := range w.Tasks.Tasks() {
			status := "Pending"
			if t.Completed {
				status = "Completed"
			}
			fmt.Fprintf(&b, "• %s\n", t.Title)
			fmt.Fprintf(&b, "  Status: %s\n", status)
			fmt.Fprintf(&b, "  Due Date: %s\n", t.DueDate)
			fmt.Fprintf(&b, "  Department: %s\n", t.Department)
			if t.Description != "" {
				fmt.Fprintf(&b, "  Description: %s\n", t.Description)
			}
			if t.Notes != "" {
				fmt.Fprintf(&b, "  Notes: %s\n", t.Notes)
			}
			b.WriteString("\n")
		}
	}

	if opts.Missions {
		b.WriteString("Missions\n--------\n\n")
		for _, m := range w.Missions.Missions() {
			status := "In Progress"
			if m.Completed {
				status = "Completed"
			}
			fmt.Fprintf(&b, "• %s\n", m.Title)
			fmt.Fprintf(&b, "  Description: %s\n", m.Description)
			fmt.Fprintf(&b, "  Progress: %d%%\n", int(math.Round(m.Progress)))
			fmt.Fprintf(&b, "  Status: %s\n", status)
			fmt.Fprintf(&b, "  Reward: %v\n", m.Reward.Value)
			b.WriteString("\n")
		}
	}

	if opts.Photos || opts.Notes {
		b.WriteString("Gallery Items\n-------------\n\n")
		for _, it := range w.Gallery.Items() {
			if (it.Type == ItemPhoto && !opts.Photos) || (it.Type == ItemNote && !opts.Notes) {
				continue
			}
			fmt.Fprintf(&b, "• %s\n", it.Title)
			fmt.Fprintf(&b, "  Type: %s\n", it.Type)
			fmt.Fprintf(&b, "  Date: %s\n", it.Date)
			if it.Description != "" {
				fmt.Fprintf(&b, "  Description: %s\n", it.Description)
			}
			if it.Location != "" {
				fmt.Fprintf(&b, "  Location: %s\n", it.Location)
			}
			if len(it.Tags) > 0 {
				fmt.Fprintf(&b, "  Tags: %s\n", strings.Join(it.Tags, ", "))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n---\n")
	b.WriteString("Onboard Buddy")
	return b.String()
}
