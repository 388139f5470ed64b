package core

import (
	"context"
	"time"
)

// Instrument sizes.
const (
	IVCF20Questions = 20 // Índice de Vulnerabilidade Clínico-Funcional
	IVSF10Questions = 10 // Índice de Vulnerabilidade Sócio-Familiar
)

// Questionnaire holds the answers of both instruments. Index i is the answer to question i+1. Unanswered questions are empty.
type Questionnaire struct {
	IVCF20 [IVCF20Questions]string `json:"ivcf20"`
	IVSF10 [IVSF10Questions]string `json:"ivsf10"`
}

// Answered returns the number of non-empty answers.
func (q Questionnaire) Answered() int {
	var n = 0
	for _, a := range q.IVCF20 {
		if a != "" {
			n++
		}
	}
	for _, a := range q.IVSF10 {
		if a != "" {
			n++
		}
	}
	return n
}

// A Decision is made by a reviewer when an assessment leaves the pending state.
type Decision struct {
	By     string // CPF of the reviewer
	ByName string
	At     time.Time
	Note   string // observations for approvals, the reason for rejections
}

type Assessment struct {
	ID string

	// snapshot of the patient at submission time
	PatientID   string
	PatientName string
	PatientCPF  string

	Municipality     string
	ProfessionalID   string
	ProfessionalName string

	Questionnaire Questionnaire
	Notes         string

	Status    Status
	Approval  *Decision // only if Status is Approved
	Rejection *Decision // only if Status is Rejected

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decision returns Approval or Rejection, whichever is set.
func (a *Assessment) Decision() *Decision {
	if a.Approval != nil {
		return a.Approval
	}
	return a.Rejection
}

// AssessmentFilter selects assessments. Zero values don't filter.
type AssessmentFilter struct {
	Status    Status
	PatientID string
}

func (f AssessmentFilter) Match(a *Assessment) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	return true
}

type AssessmentDB interface {
	// Decide writes Status, Approval, Rejection and UpdatedAt of a, if the stored assessment
	// with a.ID in a.Municipality has the status expected. It returns false if no such assessment exists.
	Decide(ctx context.Context, a *Assessment, expected Status) (bool, error)
	// GetAssessment returns sql.ErrNoRows if there is no such assessment in the municipality.
	GetAssessment(ctx context.Context, municipality, id string) (*Assessment, error)
	// GetAssessments returns the matching assessments of a municipality, latest first.
	GetAssessments(ctx context.Context, municipality string, filter AssessmentFilter) ([]*Assessment, error)
	InsertAssessment(ctx context.Context, a *Assessment) error
}

// Statistics counts the assessments of a municipality by status.
type Statistics struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

func (s *Statistics) add(status Status) {
	switch status {
	case Pending:
		s.Pending++
	case Approved:
		s.Approved++
	case Rejected:
		s.Rejected++
	default:
		return
	}
	s.Total++
}
