package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/healthregistry/auth"
)

func TestCreateAndApprove(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	var ctx = context.Background()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")

	a, err := c.CreateAssessment(ctx, agentCG, "p1", Questionnaire{}, "  first visit ")
	require.NoError(t, err)
	assert.Equal(t, Pending, a.Status)
	assert.Equal(t, "Campo Grande", a.Municipality)
	assert.Equal(t, agentCG.ID, a.ProfessionalID)
	assert.Equal(t, agentCG.Name, a.ProfessionalName)
	assert.Equal(t, "José da Silva", a.PatientName)
	assert.Equal(t, "52998224725", a.PatientCPF)
	assert.Equal(t, "first visit", a.Notes)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
	assert.Nil(t, a.Approval)
	assert.Nil(t, a.Rejection)

	approved, err := c.Approve(ctx, managerCG, a.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, Approved, approved.Status)
	require.NotNil(t, approved.Approval)
	assert.Nil(t, approved.Rejection)
	assert.Equal(t, managerCG.ID, approved.Approval.By)
	assert.Equal(t, managerCG.Name, approved.Approval.ByName)
	assert.Equal(t, "ok", approved.Approval.Note)
	assert.True(t, approved.UpdatedAt.After(a.CreatedAt))
	assert.Equal(t, approved.UpdatedAt, approved.Approval.At)

	var stored = db.stored(a.ID)
	assert.Equal(t, Approved, stored.Status)
	assert.Equal(t, "ok", stored.Approval.Note)

	assert.Equal(t, "success", rec.last().Style)
	require.Len(t, rec.events, 2)
	assert.Equal(t, AssessmentCreated, rec.events[0].Type)
	assert.Equal(t, AssessmentApproved, rec.events[1].Type)
	assert.Equal(t, managerCG.ID, rec.events[1].Actor)
	assert.Equal(t, Approved, rec.events[1].Status)
}

func TestApproveWithoutObservations(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	approved, err := c.Approve(context.Background(), coordinatorCG, a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "", approved.Approval.Note)
}

func TestRejectWithBlankReason(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	for _, reason := range []string{"", " ", "\t\n "} {
		_, err := c.Reject(context.Background(), coordinatorCG, a.ID, reason)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "reason %q", reason)
		assert.Equal(t, Pending, db.stored(a.ID).Status)
		assert.Equal(t, "danger", rec.last().Style)
	}
}

func TestReject(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	rejected, err := c.Reject(context.Background(), coordinatorCG, a.ID, " incomplete questionnaire ")
	require.NoError(t, err)
	assert.Equal(t, Rejected, rejected.Status)
	assert.Nil(t, rejected.Approval)
	require.NotNil(t, rejected.Rejection)
	assert.Equal(t, "incomplete questionnaire", rejected.Rejection.Note)
	assert.Equal(t, coordinatorCG.ID, rejected.Rejection.By)
	assert.Equal(t, AssessmentRejected, rec.events[len(rec.events)-1].Type)
}

func TestAgentCannotReviewOwnSubmission(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	_, err = c.Approve(context.Background(), agentCG, a.ID, "")
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = c.Reject(context.Background(), agentCG, a.ID, "reason")
	assert.True(t, errors.Is(err, ErrForbidden))

	assert.Equal(t, db.stored(a.ID), *a)
}

func TestForbiddenBeforeNotFound(t *testing.T) {
	var c, _, _ = newTestCoreDB()
	_, err := c.Approve(context.Background(), agentCG, "does-not-exist", "")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestApproveTwice(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	first, err := c.Approve(context.Background(), managerCG, a.ID, "ok")
	require.NoError(t, err)

	_, err = c.Approve(context.Background(), adminCG, a.ID, "again")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = c.Reject(context.Background(), adminCG, a.ID, "changed my mind")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.Equal(t, *first, db.stored(a.ID))
}

func TestOtherMunicipality(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	addPatient(db, "p2", "João de Souza", "11144477735", "Dourados")

	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	// the patient of another municipality can't be assessed
	_, err = c.CreateAssessment(context.Background(), agentCG, "p2", Questionnaire{}, "")
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := c.ListAssessments(context.Background(), managerDO, AssessmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = c.GetAssessment(context.Background(), managerDO, a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Approve(context.Background(), managerDO, a.ID, "")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, Pending, db.stored(a.ID).Status)
}

func TestUnauthenticated(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	var ctx = context.Background()

	_, err := c.CreateAssessment(ctx, nil, "p1", Questionnaire{}, "")
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	_, err = c.ListAssessments(ctx, nil, AssessmentFilter{})
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	_, err = c.Approve(ctx, nil, "x", "")
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	_, err = c.Reject(ctx, nil, "x", "reason")
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	_, err = c.Statistics(ctx, nil)
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	assert.Len(t, rec.notifications, 5)
	for _, n := range rec.notifications {
		assert.Equal(t, Notification{Message(ErrUnauthenticated), "danger"}, n)
	}
}

func TestListFilterAndOrder(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	var ctx = context.Background()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	addPatient(db, "p2", "Maria Souza", "11144477735", "Campo Grande")

	a1, _ := c.CreateAssessment(ctx, agentCG, "p1", Questionnaire{}, "")
	a2, _ := c.CreateAssessment(ctx, agentCG, "p2", Questionnaire{}, "")
	a3, _ := c.CreateAssessment(ctx, agentCG, "p1", Questionnaire{}, "")
	_, err := c.Approve(ctx, coordinatorCG, a2.ID, "")
	require.NoError(t, err)

	all, err := c.ListAssessments(ctx, agentCG, AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{a3.ID, a2.ID, a1.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending, err := c.ListAssessments(ctx, agentCG, AssessmentFilter{Status: Pending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	ofP1, err := c.ListAssessments(ctx, agentCG, AssessmentFilter{PatientID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, []string{a3.ID, a1.ID}, []string{ofP1[0].ID, ofP1[1].ID})

	_, err = c.ListAssessments(ctx, agentCG, AssessmentFilter{Status: "archived"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

// misbehavingDB returns assessments of every municipality.
type misbehavingDB struct {
	*memDB
}

func (db misbehavingDB) GetAssessments(ctx context.Context, municipality string, filter AssessmentFilter) ([]*Assessment, error) {
	var all []*Assessment
	for _, m := range []string{"Campo Grande", "Dourados"} {
		some, _ := db.memDB.GetAssessments(ctx, m, AssessmentFilter{})
		all = append(all, some...)
	}
	return all, nil
}

func TestListNeverLeaksOtherMunicipalities(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	addPatient(db, "p2", "João de Souza", "11144477735", "Dourados")
	var agentDO = identity("04158082196", "Dora", "Dourados", auth.Agent)

	_, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)
	_, err = c.CreateAssessment(context.Background(), agentDO, "p2", Questionnaire{}, "")
	require.NoError(t, err)

	c.AssessmentDB = misbehavingDB{db}

	list, err := c.ListAssessments(context.Background(), managerDO, AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dourados", list[0].Municipality)

	stats, err := c.Statistics(context.Background(), managerDO)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestStatistics(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	var ctx = context.Background()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")

	var ids []string
	for i := 0; i < 6; i++ {
		a, err := c.CreateAssessment(ctx, agentCG, "p1", Questionnaire{}, "")
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	_, _ = c.Approve(ctx, managerCG, ids[0], "")
	_, _ = c.Approve(ctx, managerCG, ids[1], "")
	_, _ = c.Reject(ctx, managerCG, ids[2], "duplicate")

	stats, err := c.Statistics(ctx, agentCG)
	require.NoError(t, err)
	assert.Equal(t, Statistics{Total: 6, Pending: 3, Approved: 2, Rejected: 1}, stats)

	stats, err = c.Statistics(ctx, managerDO)
	require.NoError(t, err)
	assert.Equal(t, Statistics{}, stats)
}

func TestRandomTransitions(t *testing.T) {

	var rnd = rand.New(rand.NewSource(42))
	var reviewers = []*auth.Identity{agentCG, coordinatorCG, managerCG, adminCG, managerDO}

	for round := 0; round < 50; round++ {

		var c, db, _ = newTestCoreDB()
		var ctx = context.Background()
		addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
		a, err := c.CreateAssessment(ctx, agentCG, "p1", Questionnaire{}, "")
		require.NoError(t, err)

		var status = Pending
		for step := 0; step < 10; step++ {

			var who = reviewers[rnd.Intn(len(reviewers))]
			var before = db.stored(a.ID)

			var err error
			if rnd.Intn(2) == 0 {
				_, err = c.Approve(ctx, who, a.ID, "obs")
			} else {
				var reason = []string{"", "reason"}[rnd.Intn(2)]
				_, err = c.Reject(ctx, who, a.ID, reason)
			}

			var after = db.stored(a.ID)
			if err != nil {
				assert.Equal(t, before, after, "failed call must not change the record")
				continue
			}

			assert.Equal(t, Pending, status, "only pending assessments can be decided")
			assert.True(t, status.CanTransition(after.Status))
			assert.True(t, after.Status.Terminal())
			assert.NotEqual(t, auth.Agent, who.Role)
			assert.Equal(t, "Campo Grande", who.Municipality)
			status = after.Status
		}

		if status.Terminal() {
			assert.True(t, (db.stored(a.ID).Approval != nil) != (db.stored(a.ID).Rejection != nil))
		}
	}
}

func TestLostCompareAndSwap(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	// another reviewer rejects between our read and our write
	db.beforeCAS = func() {
		db.beforeCAS = nil
		db.Lock()
		var stored = db.assessments[a.ID]
		stored.Status = Rejected
		stored.Rejection = &Decision{By: adminCG.ID, ByName: adminCG.Name, At: testNow, Note: "duplicate"}
		db.assessments[a.ID] = stored
		db.Unlock()
	}

	_, err = c.Approve(context.Background(), managerCG, a.ID, "ok")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, Rejected, db.stored(a.ID).Status)
}

func TestConcurrentDecisionsOneWins(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, conflicts int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = c.Approve(context.Background(), managerCG, a.ID, "")
			} else {
				_, err = c.Reject(context.Background(), coordinatorCG, a.ID, fmt.Sprintf("reason %d", i))
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInvalidTransition):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 19, conflicts)
}

func TestStoreFailure(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	db.failWith = errStoreDown

	_, err = c.Approve(context.Background(), managerCG, a.ID, "")
	var collaboratorErr *CollaboratorError
	require.True(t, errors.As(err, &collaboratorErr))
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Equal(t, Notification{Message(err), "danger"}, rec.last())

	_, err = c.ListAssessments(context.Background(), managerCG, AssessmentFilter{})
	assert.True(t, errors.As(err, &collaboratorErr))
}

func TestPublishFailureDoesNotFail(t *testing.T) {
	var c, db, rec = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	rec.publishErr = errors.New("kafka down")

	a, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)
	_, err = c.Approve(context.Background(), managerCG, a.ID, "")
	assert.NoError(t, err)
}

func TestExportAssessments(t *testing.T) {
	var c, db, _ = newTestCoreDB()
	addPatient(db, "p1", "José da Silva", "52998224725", "Campo Grande")
	_, err := c.CreateAssessment(context.Background(), agentCG, "p1", Questionnaire{}, "")
	require.NoError(t, err)

	_, err = c.ExportAssessments(context.Background(), agentCG, AssessmentFilter{})
	assert.True(t, errors.Is(err, ErrForbidden))

	list, err := c.ExportAssessments(context.Background(), coordinatorCG, AssessmentFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
