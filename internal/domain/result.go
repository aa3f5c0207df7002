package domain

// DispatchResult is the single user-facing outcome of a submission.
// The presentation layer renders either the plan URL or the failure message.
type DispatchResult struct {
	OK             bool
	Message        string
	PlanURL        string
	DeliveryPoints int
	TotalTonnage   float64
	TotalAmount    float64
}

func Failure(msg string) DispatchResult {
	return DispatchResult{OK: false, Message: msg}
}
