package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wansing/healthregistry/auth"
	"github.com/wansing/healthregistry/util"
)

// CoreDB is the assessment workflow engine and the patient registry.
// Each operation takes the identity of the caller explicitly, checks its permissions and scopes all reads and writes to its municipality.
type CoreDB struct {
	AssessmentDB
	PatientDB
	Auth           *auth.AuthDB
	Sessions       *auth.Sessions
	Notifier       Notifier
	Events         EventSink
	Municipalities Municipalities
	Now            func() time.Time // for tests, time.Now if nil
}

func (c *CoreDB) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// lookupFailure translates the error of a scoped lookup.
func lookupFailure(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return collaboratorFailure(op, err)
}

func (c *CoreDB) require(ctx context.Context, identity *auth.Identity, op auth.Operation) error {
	if identity == nil {
		return c.fail(ctx, ErrUnauthenticated)
	}
	if !auth.Can(identity, op) {
		return c.fail(ctx, fmt.Errorf("%w: %s can't %s", ErrForbidden, identity.Role.Label(), op))
	}
	return nil
}

// CreateAssessment submits an assessment of a patient in the municipality of the identity. It starts pending.
func (c *CoreDB) CreateAssessment(ctx context.Context, identity *auth.Identity, patientID string, questionnaire Questionnaire, notes string) (*Assessment, error) {

	if err := c.require(ctx, identity, auth.CreateAssessment); err != nil {
		return nil, err
	}

	patient, err := c.PatientDB.GetPatient(ctx, identity.Municipality, patientID)
	if err != nil {
		return nil, c.fail(ctx, lookupFailure("get patient", err))
	}

	var now = c.now()
	var a = &Assessment{
		ID:               uuid.New().String(),
		PatientID:        patient.ID,
		PatientName:      patient.Name,
		PatientCPF:       patient.CPF,
		Municipality:     identity.Municipality,
		ProfessionalID:   identity.ID,
		ProfessionalName: identity.Name,
		Questionnaire:    questionnaire,
		Notes:            strings.TrimSpace(notes),
		Status:           Pending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := c.AssessmentDB.InsertAssessment(ctx, a); err != nil {
		return nil, c.fail(ctx, collaboratorFailure("insert assessment", err))
	}

	c.success(ctx, "The assessment of %s has been submitted for review.", a.PatientName)
	c.publish(ctx, newEvent(AssessmentCreated, a, identity.ID, now))
	return a, nil
}

// GetAssessment returns an assessment of the municipality of the identity.
func (c *CoreDB) GetAssessment(ctx context.Context, identity *auth.Identity, id string) (*Assessment, error) {
	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	a, err := c.AssessmentDB.GetAssessment(ctx, identity.Municipality, id)
	if err != nil {
		return nil, c.fail(ctx, lookupFailure("get assessment", err))
	}
	if a.Municipality != identity.Municipality {
		return nil, c.fail(ctx, fmt.Errorf("%w: get assessment", ErrNotFound))
	}
	return a, nil
}

// ListAssessments returns the assessments of the municipality of the identity which match the filter, latest first.
func (c *CoreDB) ListAssessments(ctx context.Context, identity *auth.Identity, filter AssessmentFilter) ([]*Assessment, error) {

	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, c.fail(ctx, invalidArgument("unknown status %q", filter.Status))
	}

	all, err := c.AssessmentDB.GetAssessments(ctx, identity.Municipality, filter)
	if err != nil {
		return nil, c.fail(ctx, collaboratorFailure("get assessments", err))
	}

	// the store is trusted with ordering, but not with scoping
	var result = make([]*Assessment, 0, len(all))
	for _, a := range all {
		if a.Municipality == identity.Municipality && filter.Match(a) {
			result = append(result, a)
		}
	}
	return result, nil
}

// Approve moves a pending assessment to approved. The observations may be empty.
func (c *CoreDB) Approve(ctx context.Context, identity *auth.Identity, id string, observations string) (*Assessment, error) {
	return c.decide(ctx, identity, auth.ApproveAssessment, id, Approved, observations)
}

// Reject moves a pending assessment to rejected. The reason must not be blank.
func (c *CoreDB) Reject(ctx context.Context, identity *auth.Identity, id string, reason string) (*Assessment, error) {
	return c.decide(ctx, identity, auth.RejectAssessment, id, Rejected, reason)
}

func (c *CoreDB) decide(ctx context.Context, identity *auth.Identity, op auth.Operation, id string, next Status, note string) (*Assessment, error) {

	if err := c.require(ctx, identity, op); err != nil {
		return nil, err
	}

	if next == Rejected && util.IsBlank(note) {
		return nil, c.fail(ctx, invalidArgument("a rejection requires a reason"))
	}

	current, err := c.GetAssessment(ctx, identity, id)
	if err != nil {
		return nil, err // already notified
	}

	if !current.Status.CanTransition(next) {
		return nil, c.fail(ctx, fmt.Errorf("%w: assessment is %s", ErrInvalidTransition, current.Status))
	}

	var now = c.now()
	var decision = &Decision{
		By:     identity.ID,
		ByName: identity.Name,
		At:     now,
		Note:   strings.TrimSpace(note),
	}

	var updated = *current
	updated.Status = next
	updated.UpdatedAt = now
	switch next {
	case Approved:
		updated.Approval = decision
	case Rejected:
		updated.Rejection = decision
	}

	// compare and swap, so only one of concurrent decisions wins
	ok, err := c.AssessmentDB.Decide(ctx, &updated, current.Status)
	if err != nil {
		return nil, c.fail(ctx, collaboratorFailure("decide assessment", err))
	}
	if !ok {
		return nil, c.fail(ctx, fmt.Errorf("%w: assessment has been reviewed in the meantime", ErrInvalidTransition))
	}

	switch next {
	case Approved:
		c.success(ctx, "The assessment of %s has been approved.", updated.PatientName)
		c.publish(ctx, newEvent(AssessmentApproved, &updated, identity.ID, now))
	case Rejected:
		c.success(ctx, "The assessment of %s has been rejected.", updated.PatientName)
		c.publish(ctx, newEvent(AssessmentRejected, &updated, identity.ID, now))
	}

	return &updated, nil
}

// Statistics counts the assessments of the municipality of the identity. It is recomputed on every call.
func (c *CoreDB) Statistics(ctx context.Context, identity *auth.Identity) (Statistics, error) {
	var stats Statistics
	all, err := c.ListAssessments(ctx, identity, AssessmentFilter{})
	if err != nil {
		return stats, err
	}
	for _, a := range all {
		stats.add(a.Status)
	}
	return stats, nil
}

// ExportAssessments is like ListAssessments, but restricted to roles which may export.
func (c *CoreDB) ExportAssessments(ctx context.Context, identity *auth.Identity, filter AssessmentFilter) ([]*Assessment, error) {
	if err := c.require(ctx, identity, auth.ExportAssessments); err != nil {
		return nil, err
	}
	return c.ListAssessments(ctx, identity, filter)
}
