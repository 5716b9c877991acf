package loader

import (
	"fmt"
	"time"
)

// Phase is the lifecycle stage of a load request.
type Phase int

const (
	Idle Phase = iota
	Uploading
	Pending
	Polling
	Loaded
	Failed
	TimedOut
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Pending:
		return "pending"
	case Polling:
		return "polling"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Active reports whether a request in this phase blocks a new one.
func (p Phase) Active() bool {
	return p == Uploading || p == Pending || p == Polling
}

// Terminal reports whether the request has finished.
func (p Phase) Terminal() bool {
	return p == Loaded || p == Failed || p == TimedOut
}

// Messages shown for failed requests.
const (
	MsgUnauthorized  = "Unauthorized"
	MsgError         = "Error"
	MsgUploadFailed  = "Upload failed"
	MsgTimeout       = "Server not responding"
	MsgInvalidSource = "Invalid source"
)

// Status is the observable state of the current load request.
type Status struct {
	Phase   Phase
	ID      string
	Source  string
	Message string
	Started time.Time // when polling began
}
