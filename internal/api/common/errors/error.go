package errors

import "fmt"

// InsufficientDataError means there is not enough historical data to compute
// a meaningful result. Callers should present it as "needs more history",
// not as a system failure.
type InsufficientDataError struct {
	Resource string
	Need     int
	Got      int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough %s history: need %d, got %d", e.Resource, e.Need, e.Got)
}

func InsufficientDataErr(resource string, need, got int) InsufficientDataError {
	return InsufficientDataError{
		Resource: resource,
		Need:     need,
		Got:      got,
	}
}

// UpstreamReadError wraps a failure of the metrics store. It is propagated so
// that the caller can decide retry policy.
type UpstreamReadError struct {
	Op  string
	Err error
}

func (e UpstreamReadError) Error() string {
	return fmt.Sprintf("upstream store failed during %s: %v", e.Op, e.Err)
}

func (e UpstreamReadError) Unwrap() error {
	return e.Err
}

func UpstreamReadErr(op string, err error) UpstreamReadError {
	return UpstreamReadError{
		Op:  op,
		Err: err,
	}
}

// AlertDeliveryError is logged by the alert dispatcher and never surfaces to
// the caller of a detection operation.
type AlertDeliveryError struct {
	URL string
	Err error
}

func (e AlertDeliveryError) Error() string {
	return fmt.Sprintf("alert delivery to %s failed: %v", e.URL, e.Err)
}

func (e AlertDeliveryError) Unwrap() error {
	return e.Err
}

func AlertDeliveryErr(url string, err error) AlertDeliveryError {
	return AlertDeliveryError{
		URL: url,
		Err: err,
	}
}

type NotFoundError struct {
	Type string
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Type, e.Name)
}

func NotFoundErr(t, name string) NotFoundError {
	return NotFoundError{
		Type: t,
		Name: name,
	}
}
