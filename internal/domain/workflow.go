package domain

// TimestampState is the timestamp workflow state machine:
//
//	Idle -> Hashing -> Hashed -> Submitting -> Pending -> Confirmed
//
// with Failed reachable from Submitting onward.
type TimestampState string

const (
	StateIdle       TimestampState = "idle"
	StateHashing    TimestampState = "hashing"
	StateHashed     TimestampState = "hashed"
	StateSubmitting TimestampState = "submitting"
	StatePending    TimestampState = "pending"
	StateConfirmed  TimestampState = "confirmed"
	StateFailed     TimestampState = "failed"
)

// Terminal reports whether no further transition can occur.
func (s TimestampState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}
