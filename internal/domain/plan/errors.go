package plan

import "errors"

var (
	// ErrConfiguration marks a deployment defect such as a power tier without
	// a model mapping. It is operator-facing and never a quota denial.
	ErrConfiguration = errors.New("plan configuration error")

	ErrUnknownModule   = errors.New("unknown module")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrDuplicatePlan   = errors.New("duplicate plan id")
	ErrMissingBasePlan = errors.New("base plan is not in catalog")
	ErrInvalidPlan     = errors.New("invalid plan definition")
)
