package statusq

// Status represents the lifecycle state of a tracked job record.
// Use the exported constants (StatusWaiting, StatusWorking, etc.) instead of
// raw strings to avoid typos.
type Status string

const (
	// StatusWaiting is the initial state: the job has been created but no
	// worker has reported progress yet.
	StatusWaiting Status = "waiting"
	// StatusWorking means a worker is actively executing the job.
	StatusWorking Status = "working"
	// StatusComplete means the job finished successfully (terminal).
	StatusComplete Status = "complete"
	// StatusFailed means the job finished with an error (terminal).
	StatusFailed Status = "failed"
	// StatusKilled means the job was stopped through the kill flow (terminal).
	StatusKilled Status = "killed"
)

// AllStatuses lists every valid status in a stable order.
var AllStatuses = []Status{StatusWaiting, StatusWorking, StatusComplete, StatusFailed, StatusKilled}

// String returns the raw string value of the status.
func (s Status) String() string { return string(s) }

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusKilled
}

// Runnable reports whether the job is still in flight and therefore a
// candidate for cooperative cancellation.
func (s Status) Runnable() bool {
	return s == StatusWaiting || s == StatusWorking
}

// ParseStatus converts a string into a Status, returning an error for unknown values.
func ParseStatus(s string) (Status, error) {
	switch s {
	case string(StatusWaiting):
		return StatusWaiting, nil
	case string(StatusWorking):
		return StatusWorking, nil
	case string(StatusComplete):
		return StatusComplete, nil
	case string(StatusFailed):
		return StatusFailed, nil
	case string(StatusKilled):
		return StatusKilled, nil
	default:
		return "", ErrInvalidStatus
	}
}
