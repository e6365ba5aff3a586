package cycle

import "errors"

var (
	// ErrInvalidParameters reports out-of-domain lengths or inconsistent date ordering.
	ErrInvalidParameters = errors.New("invalid cycle parameters")
	// ErrDegenerateWindow reports an ovulation window that does not fit after the period.
	ErrDegenerateWindow = errors.New("degenerate ovulation window")
	// ErrOutOfRangeDate reports a date too far from the anchoring cycle to classify.
	ErrOutOfRangeDate = errors.New("date outside supported cycle horizon")
)
