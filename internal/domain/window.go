package domain

// TimeWindow is a delivery window in epoch seconds.
type TimeWindow struct {
	From int64
	To   int64
}
