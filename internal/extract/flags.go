package extract

import "time"

const (
	highAmountThreshold = 500.0
	urgentWindow        = 7 * 24 * time.Hour
)

// ApplyFlags appends advisory flags derived from the extracted values.
func ApplyFlags(d *Data, now time.Time) {
	if d.Amount != nil && *d.Amount > highAmountThreshold {
		d.Flags = append(d.Flags, Flag{
			Type:    FlagWarning,
			Message: "Ungewöhnlich hoher Betrag - bitte prüfen",
			Field:   "amount",
		})
	}

	if due, ok := ParseISODate(d.DueDate); ok && due.Before(now.Add(urgentWindow)) {
		d.Flags = append(d.Flags, Flag{
			Type:    FlagError,
			Message: "Frist läuft in weniger als 7 Tagen ab!",
			Field:   "dueDate",
		})
	}
}

// ParseISODate parses a YYYY-MM-DD date as UTC midnight.
func ParseISODate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
