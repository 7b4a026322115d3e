package domain

import (
	"fmt"
	"time"
)

// WindowResolver converts instants to the business-local calendar. The
// business timezone is a fixed offset with no daylight-saving rules, so the
// same instant resolves identically on every host.
type WindowResolver struct {
	loc *time.Location
}

func NewWindowResolver(offsetHours int) (*WindowResolver, error) {
	if offsetHours < -12 || offsetHours > 14 {
		return nil, fmt.Errorf("%w: timezone offset %d out of range", ErrValidation, offsetHours)
	}

	name := fmt.Sprintf("UTC%+d", offsetHours)
	return &WindowResolver{
		loc: time.FixedZone(name, offsetHours*3600),
	}, nil
}

func (r *WindowResolver) Location() *time.Location { return r.loc }

// LocalClock returns the business-local hour and minute of an instant.
// Normalizes through UTC first so the host timezone never leaks in.
func (r *WindowResolver) LocalClock(at time.Time) (hour int, minute int) {
	local := at.UTC().In(r.loc)
	return local.Hour(), local.Minute()
}

// LocalMidnight returns the business-local calendar date of an instant,
// expressed as the absolute instant of local midnight.
func (r *WindowResolver) LocalMidnight(at time.Time) time.Time {
	local := at.UTC().In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
}

// At returns the instant of the given local hour on the day of date,
// where date is a local-midnight instant.
func (r *WindowResolver) At(date time.Time, hour int) time.Time {
	local := date.In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, r.loc)
}

// BatchNumber derives the unique human-readable number for a window.
// It is a pure function of (date, type) and is never assigned independently.
func (r *WindowResolver) BatchNumber(date time.Time, bt BatchType) string {
	return fmt.Sprintf("B%s-%d", date.In(r.loc).Format("060102"), bt.Ordinal())
}

// BatchWindow describes the target batch for an order-creation instant.
type BatchWindow struct {
	Number          string
	Date            time.Time
	Type            BatchType
	CutoffTime      time.Time
	AutoConfirmTime *time.Time
}

// AssignmentPolicy maps an order-creation instant to its batch window given
// the two configured cutoff hours. Pure and deterministic.
type AssignmentPolicy struct {
	resolver         *WindowResolver
	firstCutoffHour  int
	secondCutoffHour int
}

func NewAssignmentPolicy(resolver *WindowResolver, firstCutoffHour, secondCutoffHour int) (*AssignmentPolicy, error) {
	if resolver == nil {
		return nil, fmt.Errorf("window resolver is required")
	}
	if firstCutoffHour <= 0 || firstCutoffHour >= secondCutoffHour || secondCutoffHour > 23 {
		return nil, fmt.Errorf("%w: cutoff hours %d/%d must satisfy 0 < first < second <= 23",
			ErrValidation, firstCutoffHour, secondCutoffHour)
	}

	return &AssignmentPolicy{
		resolver:         resolver,
		firstCutoffHour:  firstCutoffHour,
		secondCutoffHour: secondCutoffHour,
	}, nil
}

func (p *AssignmentPolicy) Resolver() *WindowResolver { return p.resolver }

// Assign computes the batch window for an instant. Boundaries are
// inclusive-lower/exclusive-upper: an order exactly at the first cutoff hour
// belongs to the second-batch window.
func (p *AssignmentPolicy) Assign(at time.Time) BatchWindow {
	hour, _ := p.resolver.LocalClock(at)
	date := p.resolver.LocalMidnight(at)

	switch {
	case hour < p.firstCutoffHour:
		return p.WindowFor(date, BatchTypeFirst)
	case hour < p.secondCutoffHour:
		return p.WindowFor(date, BatchTypeSecond)
	default:
		return p.WindowFor(date.AddDate(0, 0, 1), BatchTypeFirst)
	}
}

// WindowFor derives the full window descriptor for a known (date, type) pair.
// Used by the scheduler to pre-create next-day batch shells.
func (p *AssignmentPolicy) WindowFor(date time.Time, bt BatchType) BatchWindow {
	w := BatchWindow{
		Number: p.resolver.BatchNumber(date, bt),
		Date:   date,
		Type:   bt,
	}

	if bt == BatchTypeSecond {
		// Second batches are confirmed manually only.
		w.CutoffTime = p.resolver.At(date, p.secondCutoffHour)
		return w
	}

	w.CutoffTime = p.resolver.At(date, p.firstCutoffHour)
	auto := w.CutoffTime
	w.AutoConfirmTime = &auto
	return w
}
