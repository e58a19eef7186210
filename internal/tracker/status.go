package tracker

// Status is the tracker's human-readable lifecycle state.
type Status string

const (
	StatusInitializing   Status = "INITIALIZING..."
	StatusLoadingModel   Status = "LOADING MODEL..."
	StatusStartingCamera Status = "STARTING CAM..."
	StatusActive         Status = "ACTIVE"
	StatusCameraBlocked  Status = "CAM BLOCKED"
	StatusModelFailed    Status = "MODEL FAILED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusInitializing,
	StatusLoadingModel,
	StatusStartingCamera,
	StatusActive,
	StatusCameraBlocked,
	StatusModelFailed,
}

// Failed reports whether s is terminal because a collaborator failed.
func (s Status) Failed() bool {
	return s == StatusCameraBlocked || s == StatusModelFailed
}

func statusNames() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}
