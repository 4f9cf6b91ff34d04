package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid start/end time")

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал и проверяет, что обе границы заданы
// и Start строго раньше End. Границы переводятся в UTC.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !start.Before(end) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// String форматирует интервал для логов: "2025-01-01 10:00–11:00 UTC (1h0m0s)".
func (tr TimeRange) String() string {
	start := tr.Start.UTC()
	end := tr.End.UTC()

	endLayout := "15:04"
	if start.YearDay() != end.YearDay() || start.Year() != end.Year() {
		endLayout = "2006-01-02 15:04"
	}
	return fmt.Sprintf("%s–%s UTC (%s)", start.Format("2006-01-02 15:04"), end.Format(endLayout), tr.Duration())
}
