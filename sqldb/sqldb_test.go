package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/healthregistry/auth"
	"github.com/wansing/healthregistry/core"
)

func TestRebind(t *testing.T) {
	var pg = &DB{Driver: "postgres"}
	assert.Equal(t, "SELECT a FROM b WHERE c = $1 AND (d = $2 OR e = $3)", pg.rebind("SELECT a FROM b WHERE c = ? AND (d = ? OR e = ?)"))

	var lite = &DB{Driver: "sqlite3"}
	assert.Equal(t, "SELECT a FROM b WHERE c = ?", lite.rebind("SELECT a FROM b WHERE c = ?"))
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, "maria%", likePrefix("Maria"))
	assert.Equal(t, "ma%", likePrefix("m%a_"))
	assert.Equal(t, "%", likePrefix(""))
	assert.Equal(t, "álv%", likePrefix("ÁLV"))
}

func openSqlite(t *testing.T) *DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every connection would get its own in-memory database
	t.Cleanup(func() { sqlDB.Close() })
	return New(sqlDB, "sqlite3")
}

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAssessmentDB(t *testing.T) {

	var db = NewAssessmentDB(openSqlite(t))
	var ctx = context.Background()

	var a = &core.Assessment{
		ID:               "a1",
		PatientID:        "p1",
		PatientName:      "José da Silva",
		PatientCPF:       "52998224725",
		Municipality:     "Campo Grande",
		ProfessionalID:   "11144477735",
		ProfessionalName: "Ana",
		Notes:            "first visit",
		Status:           core.Pending,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	a.Questionnaire.IVCF20[2] = "sim"
	a.Questionnaire.IVSF10[9] = "3"
	require.NoError(t, db.InsertAssessment(ctx, a))

	var b = *a
	b.ID = "a2"
	b.CreatedAt = created.Add(time.Hour)
	b.UpdatedAt = b.CreatedAt
	require.NoError(t, db.InsertAssessment(ctx, &b))

	var other = *a
	other.ID = "a3"
	other.Municipality = "Dourados"
	require.NoError(t, db.InsertAssessment(ctx, &other))

	got, err := db.GetAssessment(ctx, "Campo Grande", "a1")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = db.GetAssessment(ctx, "Dourados", "a1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	// decide

	var approved = *a
	approved.Status = core.Approved
	approved.UpdatedAt = created.Add(2 * time.Hour)
	approved.Approval = &core.Decision{By: "04158082196", ByName: "Maria", At: approved.UpdatedAt, Note: "ok"}

	ok, err := db.Decide(ctx, &approved, core.Pending)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = db.GetAssessment(ctx, "Campo Grande", "a1")
	require.NoError(t, err)
	assert.Equal(t, &approved, got)

	// the status is not pending any more
	var rejected = *a
	rejected.Status = core.Rejected
	rejected.Rejection = &core.Decision{By: "04158082196", ByName: "Maria", At: created, Note: "no"}
	ok, err = db.Decide(ctx, &rejected, core.Pending)
	require.NoError(t, err)
	assert.False(t, ok)

	// wrong municipality
	var foreign = rejected
	foreign.ID = "a3"
	foreign.Municipality = "Campo Grande"
	ok, err = db.Decide(ctx, &foreign, core.Pending)
	require.NoError(t, err)
	assert.False(t, ok)

	// list

	all, err := db.GetAssessments(ctx, "Campo Grande", core.AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID)
	assert.Equal(t, "a1", all[1].ID)

	pending, err := db.GetAssessments(ctx, "Campo Grande", core.AssessmentFilter{Status: core.Pending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a2", pending[0].ID)

	none, err := db.GetAssessments(ctx, "Campo Grande", core.AssessmentFilter{PatientID: "p2"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPatientDB(t *testing.T) {

	var db = NewPatientDB(openSqlite(t))
	var ctx = context.Background()

	var p = &core.Patient{
		ID:        "p1",
		Name:      "Maria das Dores",
		CPF:       "52998224725",
		BirthDate: time.Date(1948, 2, 10, 0, 0, 0, 0, time.UTC),
		Sex:       "F",
		Phone:     "67991234567",
		Address: core.Address{
			CEP:      "79002000",
			Street:   "Rua 14 de Julho",
			Number:   "1200",
			District: "Centro",
			City:     "Campo Grande",
			State:    "MS",
		},
		Municipality: "Campo Grande",
		CreatedBy:    "11144477735",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.InsertPatient(ctx, p))

	var q = *p
	q.ID = "p2"
	q.Name = "Bruno"
	q.CPF = "11144477735"
	require.NoError(t, db.InsertPatient(ctx, &q))

	// same CPF in the same municipality
	var duplicate = *p
	duplicate.ID = "p3"
	assert.Error(t, db.InsertPatient(ctx, &duplicate))

	got, err := db.GetPatient(ctx, "Campo Grande", "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	got, err = db.GetPatientByCPF(ctx, "Campo Grande", "11144477735")
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ID)

	_, err = db.GetPatientByCPF(ctx, "Dourados", "11144477735")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	list, err := db.GetPatients(ctx, "Campo Grande", "MAR", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)

	list, err = db.GetPatients(ctx, "Campo Grande", "", 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID) // Bruno, Maria

	count, err := db.CountPatients(ctx, "Campo Grande", "")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	p.Name = "Maria das Dores Souza"
	p.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, db.UpdatePatient(ctx, p))
	got, err = db.GetPatient(ctx, "Campo Grande", "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Municipality = "Dourados"
	assert.True(t, errors.Is(db.UpdatePatient(ctx, p), sql.ErrNoRows))
}

func TestPatientNameAccents(t *testing.T) {

	var db = NewPatientDB(openSqlite(t))
	var ctx = context.Background()

	var p = &core.Patient{
		ID:           "p1",
		Name:         "Álvaro Souza",
		CPF:          "52998224725",
		BirthDate:    time.Date(1950, 5, 1, 0, 0, 0, 0, time.UTC),
		Municipality: "Campo Grande",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.InsertPatient(ctx, p))

	for _, prefix := range []string{"Álvaro", "álvaro", "Álv", "ÁLVARO SOUZA"} {
		list, err := db.GetPatients(ctx, "Campo Grande", prefix, 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1, prefix)

		count, err := db.CountPatients(ctx, "Campo Grande", prefix)
		require.NoError(t, err)
		assert.Equal(t, 1, count, prefix)
	}

	p.Name = "Édson Souza"
	require.NoError(t, db.UpdatePatient(ctx, p))

	list, err := db.GetPatients(ctx, "Campo Grande", "édson", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := db.CountPatients(ctx, "Campo Grande", "Álvaro")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUserDB(t *testing.T) {

	var db = NewUserDB(openSqlite(t))

	var u = &auth.Identity{
		ID:           "52998224725",
		Name:         "Ana",
		Municipality: "Campo Grande",
		Role:         auth.Coordinator,
		Position:     "Enfermeira",
		Registration: "COREN-MS 123456",
		Active:       true,
		CreatedAt:    created,
		CreatedBy:    "init",
	}
	require.NoError(t, db.InsertUser(u))

	got, err := db.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	// no password set yet
	_, err = db.LoginUser(u.ID, "")
	assert.True(t, errors.Is(err, auth.ErrAuth))

	require.NoError(t, db.SetPassword(u.ID, "password1"))
	got, err = db.LoginUser(u.ID, "password1")
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)

	_, err = db.LoginUser(u.ID, "password2")
	assert.True(t, errors.Is(err, auth.ErrAuth))
	_, err = db.LoginUser("11144477735", "password1")
	assert.True(t, errors.Is(err, auth.ErrAuth))

	assert.True(t, errors.Is(db.ChangePassword(u.ID, "wrong", "password2"), auth.ErrAuth))
	require.NoError(t, db.ChangePassword(u.ID, "password1", "password2"))
	_, err = db.LoginUser(u.ID, "password2")
	assert.NoError(t, err)

	require.NoError(t, db.SetActive(u.ID, false))
	got, err = db.GetUser(u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.True(t, errors.Is(db.SetActive("11144477735", false), sql.ErrNoRows))

	var v = *u
	v.ID = "11144477735"
	v.Name = "Bruno"
	v.Municipality = "Dourados"
	require.NoError(t, db.InsertUser(&v))

	all, err := db.GetAllUsers("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Name)

	all, err = db.GetAllUsers("Dourados", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bruno", all[0].Name)
}

func TestDecidePostgres(t *testing.T) {

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assessment").WillReturnResult(sqlmock.NewResult(0, 0))
	var decide = mock.ExpectPrepare(regexp.QuoteMeta("UPDATE assessment SET status = $1, decided_by = $2, decided_by_name = $3, decided = $4, decision_note = $5, updated = $6 WHERE id = $7 AND municipality = $8 AND status = $9"))
	mock.ExpectPrepare(regexp.QuoteMeta("FROM assessment WHERE municipality = $1 AND id = $2"))
	mock.ExpectPrepare(regexp.QuoteMeta("FROM assessment WHERE municipality = $1"))
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO assessment"))

	var db = NewAssessmentDB(New(sqlDB, "postgres"))

	decide.ExpectExec().
		WithArgs("rejected", "04158082196", "Maria", sqlmock.AnyArg(), "duplicate", sqlmock.AnyArg(), "a1", "Campo Grande", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := db.Decide(context.Background(), &core.Assessment{
		ID:           "a1",
		Municipality: "Campo Grande",
		Status:       core.Rejected,
		Rejection:    &core.Decision{By: "04158082196", ByName: "Maria", At: created, Note: "duplicate"},
		UpdatedAt:    created,
	}, core.Pending)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideFailure(t *testing.T) {

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	var decide = mock.ExpectPrepare("UPDATE assessment")
	mock.ExpectPrepare("SELECT")
	mock.ExpectPrepare("SELECT")
	mock.ExpectPrepare("INSERT")

	var db = NewAssessmentDB(New(sqlDB, "mysql"))

	var errConn = errors.New("connection reset")
	decide.ExpectExec().WillReturnError(errConn)

	_, err = db.Decide(context.Background(), &core.Assessment{ID: "a1", Status: core.Approved}, core.Pending)
	assert.True(t, errors.Is(err, errConn))
	assert.NoError(t, mock.ExpectationsWereMet())
}
