package core

import (
	"context"
	"log"
	"time"
)

type EventType string

const (
	AssessmentCreated  EventType = "assessment.created"
	AssessmentApproved EventType = "assessment.approved"
	AssessmentRejected EventType = "assessment.rejected"
)

// An Event tells other systems, like the state health secretariat, about the workflow.
type Event struct {
	Type         EventType `json:"type"`
	AssessmentID string    `json:"assessment_id"`
	PatientID    string    `json:"patient_id"`
	Municipality string    `json:"municipality"`
	Status       Status    `json:"status"`
	Actor        string    `json:"actor"` // CPF
	At           time.Time `json:"at"`
}

type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

func newEvent(t EventType, a *Assessment, actor string, at time.Time) Event {
	return Event{
		Type:         t,
		AssessmentID: a.ID,
		PatientID:    a.PatientID,
		Municipality: a.Municipality,
		Status:       a.Status,
		Actor:        actor,
		At:           at,
	}
}

// publish is fire and forget. Failures are logged and don't affect the workflow.
func (c *CoreDB) publish(ctx context.Context, e Event) {
	if c.Events == nil {
		return
	}
	if err := c.Events.Publish(ctx, e); err != nil {
		log.Printf("error publishing %s of assessment %s: %v", e.Type, e.AssessmentID, err)
	}
}
