package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/wansing/healthregistry/core"
)

const assessmentColumns = "id, patient_id, patient_name, patient_cpf, municipality, professional_id, professional_name, questionnaire, notes, status, decided_by, decided_by_name, decided, decision_note, created, updated"

func scanAssessment(row rowScanner) (*core.Assessment, error) {

	var a = &core.Assessment{}
	var questionnaire, status string
	var decision core.Decision
	var decided, created, updated int64

	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientCPF, &a.Municipality, &a.ProfessionalID, &a.ProfessionalName,
		&questionnaire, &a.Notes, &status, &decision.By, &decision.ByName, &decided, &decision.Note, &created, &updated)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(questionnaire), &a.Questionnaire); err != nil {
		return nil, err
	}

	a.Status = core.Status(status)
	a.CreatedAt = time.Unix(0, created).UTC()
	a.UpdatedAt = time.Unix(0, updated).UTC()

	decision.At = time.Unix(0, decided).UTC()
	switch a.Status {
	case core.Approved:
		a.Approval = &decision
	case core.Rejected:
		a.Rejection = &decision
	}

	return a, nil
}

// decisionColumns returns the values of the shared decision columns.
func decisionColumns(a *core.Assessment) (by, byName string, at int64, note string) {
	if d := a.Decision(); d != nil {
		return d.By, d.ByName, d.At.UnixNano(), d.Note
	}
	return "", "", 0, ""
}

// AssessmentDB stores assessments. Approval and rejection share the decision columns, the status tells which one they are.
type AssessmentDB struct {
	decide *sql.Stmt
	get    *sql.Stmt
	getAll *sql.Stmt
	insert *sql.Stmt
}

func NewAssessmentDB(db *DB) *AssessmentDB {

	db.mustExec(
		`CREATE TABLE IF NOT EXISTS assessment (
			id VARCHAR(36) PRIMARY KEY,
			patient_id VARCHAR(36) NOT NULL,
			patient_name VARCHAR(255) NOT NULL,
			patient_cpf VARCHAR(11) NOT NULL,
			municipality VARCHAR(128) NOT NULL,
			professional_id VARCHAR(11) NOT NULL,
			professional_name VARCHAR(255) NOT NULL,
			questionnaire TEXT NOT NULL,
			notes TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			decided_by VARCHAR(11) NOT NULL,
			decided_by_name VARCHAR(255) NOT NULL,
			decided BIGINT NOT NULL,
			decision_note TEXT NOT NULL,
			created BIGINT NOT NULL,
			updated BIGINT NOT NULL
		)`)

	var assessmentDB = &AssessmentDB{}
	assessmentDB.decide = db.mustPrepare("UPDATE assessment SET status = ?, decided_by = ?, decided_by_name = ?, decided = ?, decision_note = ?, updated = ? WHERE id = ? AND municipality = ? AND status = ?")
	assessmentDB.get = db.mustPrepare("SELECT " + assessmentColumns + " FROM assessment WHERE municipality = ? AND id = ?")
	assessmentDB.getAll = db.mustPrepare("SELECT " + assessmentColumns + " FROM assessment WHERE municipality = ? AND (? = '' OR status = ?) AND (? = '' OR patient_id = ?) ORDER BY created DESC")
	assessmentDB.insert = db.mustPrepare("INSERT INTO assessment (" + assessmentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	return assessmentDB
}

// Decide is a conditional update. It returns false if the stored status is not the expected one.
func (db *AssessmentDB) Decide(ctx context.Context, a *core.Assessment, expected core.Status) (bool, error) {
	by, byName, at, note := decisionColumns(a)
	result, err := db.decide.ExecContext(ctx, string(a.Status), by, byName, at, note, a.UpdatedAt.UnixNano(), a.ID, a.Municipality, string(expected))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (db *AssessmentDB) GetAssessment(ctx context.Context, municipality, id string) (*core.Assessment, error) {
	return scanAssessment(db.get.QueryRowContext(ctx, municipality, id))
}

func (db *AssessmentDB) GetAssessments(ctx context.Context, municipality string, filter core.AssessmentFilter) ([]*core.Assessment, error) {

	var all = []*core.Assessment{}

	var status = string(filter.Status)
	rows, err := db.getAll.QueryContext(ctx, municipality, status, status, filter.PatientID, filter.PatientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}

	return all, rows.Err()
}

func (db *AssessmentDB) InsertAssessment(ctx context.Context, a *core.Assessment) error {
	questionnaire, err := json.Marshal(a.Questionnaire)
	if err != nil {
		return err
	}
	by, byName, at, note := decisionColumns(a)
	_, err = db.insert.ExecContext(ctx,
		a.ID, a.PatientID, a.PatientName, a.PatientCPF, a.Municipality, a.ProfessionalID, a.ProfessionalName,
		string(questionnaire), a.Notes, string(a.Status), by, byName, at, note, a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano())
	return err
}
