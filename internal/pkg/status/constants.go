package status

// Status represents interview status
type Status int

const (
	// Created - interview record exists
	Created Status = iota + 1
	// GeneratingQuestions - question generation in progress
	GeneratingQuestions
	// ReadyToCall - questions persisted, call not yet placed
	ReadyToCall
	// Ringing - outbound call placed
	Ringing
	// InProgress - candidate answered, Q/A exchange running
	InProgress
	// Completed - all questions answered, report pending
	Completed
	// ReportReady - final state with evaluation report
	ReportReady
	// CallFailed - placement or call error
	CallFailed
	// NoAnswer - candidate did not pick up
	NoAnswer
	// Busy - line was busy
	Busy
)

var (
	statusName = map[Status]string{Created: "created", GeneratingQuestions: "generating_questions",
		ReadyToCall: "ready_to_call", Ringing: "ringing", InProgress: "in_progress",
		Completed: "completed", ReportReady: "report_ready",
		CallFailed: "call_failed", NoAnswer: "no_answer", Busy: "busy"}
	nameStatus = map[string]Status{}
)

func init() {
	for k, v := range statusName {
		nameStatus[v] = k
	}
}

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// FromHangupCause maps the provider's terminal call status to an interview status
func FromHangupCause(cause string) Status {
	switch cause {
	case "no-answer":
		return NoAnswer
	case "busy":
		return Busy
	}
	return CallFailed
}

// Terminal returns true if no further call activity is expected for st
func Terminal(st Status) bool {
	switch st {
	case Completed, ReportReady, CallFailed, NoAnswer, Busy:
		return true
	}
	return false
}
