package messages

import (
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "SCREEN/"
	// Dispatch queue - place the outbound call
	Dispatch = st + "Dispatch"
	// Report queue - generate the evaluation report
	Report = st + "Report"
	// Fail queue - background work gave up after retries
	Fail = st + "Fail"
	// Inform queue - email notifications
	Inform = st + "Inform"
	// StatusChange queue - push status to subscribed clients
	StatusChange = st + "StatusChange"
)

// InterviewMessage is the main message passing through the screening system
type InterviewMessage struct {
	amessages.QueueMessage
}

// FailMessage marks a job that exhausted its retries
type FailMessage struct {
	amessages.QueueMessage
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}
