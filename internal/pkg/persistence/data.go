package persistence

import (
	"database/sql"
	"time"
)

// PayloadVersion tags the jsonb payloads stored for an interview
const PayloadVersion = 1

type (

	// Interview table
	Interview struct {
		ID             string
		CandidateName  string
		CandidatePhone string
		JobPosition    string
		JobDescription string
		NotifyEmail    sql.NullString
		Status         string
		Questions      Questions
		Responses      Responses
		Report         *ReportData
		Created        time.Time
		Updated        time.Time
		Version        int32
	}

	// Questions jsonb payload, set once after generation
	Questions struct {
		Version int      `json:"v"`
		Items   []string `json:"items"`
	}

	// Responses jsonb payload, append only
	Responses struct {
		Version int        `json:"v"`
		Items   []Response `json:"items"`
	}

	// Response is one recorded answer paired with its question
	Response struct {
		Question     string `json:"question"`
		RecordingURL string `json:"recording_url"`
	}

	// ReportData jsonb payload - either a parsed report or an error marker
	ReportData struct {
		Version int     `json:"v"`
		Report  *Report `json:"report,omitempty"`
		Error   string  `json:"error,omitempty"`
	}

	// Report is the structured evaluation result
	Report struct {
		OverallScore   float64  `json:"overall_score"`
		Recommendation string   `json:"recommendation"`
		Summary        string   `json:"summary"`
		Strengths      []string `json:"strengths"`
		Weaknesses     []string `json:"weaknesses"`
	}
)

// NewQuestions wraps items into a versioned payload
func NewQuestions(items []string) Questions {
	return Questions{Version: PayloadVersion, Items: items}
}

// NewResponses wraps items into a versioned payload
func NewResponses(items []Response) Responses {
	return Responses{Version: PayloadVersion, Items: items}
}

// NewErrorReport creates an error marker report payload
func NewErrorReport(msg string) *ReportData {
	return &ReportData{Version: PayloadVersion, Error: msg}
}
