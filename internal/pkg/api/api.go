package api

import (
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
)

const (
	// PrmRecordingURL is the telephony form field carrying the answer recording reference
	PrmRecordingURL = "RecordingUrl"
	// PrmCallStatus is the telephony form field carrying the terminal call status
	PrmCallStatus = "CallStatus"
)

// CreateRequest is the interview creation payload
type CreateRequest struct {
	CandidateName  string   `json:"candidate_name"`
	CandidatePhone string   `json:"candidate_phone"`
	JobPosition    string   `json:"job_position"`
	JobDescription string   `json:"job_description"`
	SkillsToAssess []string `json:"skills_to_assess"`
	NotifyEmail    string   `json:"notify_email,omitempty"`
}

// Interview is the API view of one interview
type Interview struct {
	ID             string                 `json:"id"`
	CandidateName  string                 `json:"candidate_name"`
	CandidatePhone string                 `json:"candidate_phone"`
	JobPosition    string                 `json:"job_position"`
	NotifyEmail    string                 `json:"notify_email,omitempty"`
	Status         string                 `json:"status"`
	Questions      []string               `json:"questions,omitempty"`
	Responses      []persistence.Response `json:"responses,omitempty"`
	Report         *persistence.Report    `json:"report,omitempty"`
	ReportError    string                 `json:"report_error,omitempty"`
	Created        time.Time              `json:"created"`
	Updated        time.Time              `json:"updated"`
}

// MapInterview maps the persisted row to the API view
func MapInterview(itv *persistence.Interview) *Interview {
	res := &Interview{ID: itv.ID, CandidateName: itv.CandidateName, CandidatePhone: itv.CandidatePhone,
		JobPosition: itv.JobPosition, NotifyEmail: utils.FromSQLStr(itv.NotifyEmail),
		Status: itv.Status, Questions: itv.Questions.Items,
		Responses: itv.Responses.Items, Created: itv.Created, Updated: itv.Updated}
	if itv.Report != nil {
		res.Report = itv.Report.Report
		res.ReportError = itv.Report.Error
	}
	return res
}
