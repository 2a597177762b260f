package reddit

import (
	"fmt"
	"strings"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
)

const attribution = "*This itinerary was planned with Trippit.*"

// Render itinerary as Reddit markdown
// Never fails: if a required field is missing the result is a one-line summary and
// the returned *apperrors.FormatError tells which field was missing.
// Same input always gives byte-identical output.
func Render(it models.Itinerary) (string, error) {
	if err := checkItinerary(it); err != nil {
		return summary(it), err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Trip to %s\n\n", it.Destination)
	fmt.Fprintf(&b, "**%s to %s**\n\n", it.StartDate, it.EndDate)

	for i, day := range it.Days {
		fmt.Fprintf(&b, "## Day %d: %s\n\n", i+1, day.Date)

		for _, a := range day.Activities {
			fmt.Fprintf(&b, "### %s - %s\n\n", a.Time, a.Location)

			if a.Duration != "" {
				fmt.Fprintf(&b, "- **Duration:** %s\n", a.Duration)
			}
			if a.Cost != "" {
				fmt.Fprintf(&b, "- **Cost:** %s\n", a.Cost)
			}
			if a.Duration != "" || a.Cost != "" {
				b.WriteString("\n")
			}

			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(a.Description))

			if tip := strings.TrimSpace(a.Tip); tip != "" {
				fmt.Fprintf(&b, "> **Tip:** %s\n\n", tip)
			}
		}
	}

	if len(it.TravelTips) > 0 {
		b.WriteString("## Travel Tips\n\n")
		for _, tip := range it.TravelTips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(attribution)
	b.WriteString("\n")

	return b.String(), nil
}

// Return error for the first missing field in document order
func checkItinerary(it models.Itinerary) error {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch {
	case blank(it.Destination):
		return &apperrors.FormatError{Field: "destination"}
	case blank(it.StartDate):
		return &apperrors.FormatError{Field: "startDate"}
	case blank(it.EndDate):
		return &apperrors.FormatError{Field: "endDate"}
	}

	for i, day := range it.Days {
		if blank(day.Date) {
			return &apperrors.FormatError{Field: fmt.Sprintf("days[%d].date", i)}
		}

		for j, a := range day.Activities {
			for _, f := range [][2]string{
				{"time", a.Time},
				{"location", a.Location},
				{"description", a.Description},
			} {
				if blank(f[1]) {
					return &apperrors.FormatError{Field: fmt.Sprintf("days[%d].activities[%d].%s", i, j, f[0])}
				}
			}
		}
	}

	return nil
}

func summary(it models.Itinerary) string {
	destination := strings.TrimSpace(it.Destination)
	if destination == "" {
		destination = "an unnamed destination"
	}

	return fmt.Sprintf("Trip to %s: %d-day itinerary planned with Trippit.", destination, len(it.Days))
}
