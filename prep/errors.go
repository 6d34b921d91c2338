package prep

import "errors"

// ErrConfiguration reports a hardware-limit field that a calculation
// needs but the caller did not provide. It is raised before any block is
// appended.
var ErrConfiguration = errors.New("invalid hardware configuration")

// ErrInfeasibleTiming reports a timing target (inversion time, echo time,
// repetition time) that cannot be met with the supplied durations: the
// delay that would reach it is negative.
var ErrInfeasibleTiming = errors.New("infeasible timing")
