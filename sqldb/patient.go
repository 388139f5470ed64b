package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/util"
)

const patientColumns = "id, municipality, cpf, name, birth_date, sex, phone, email, cep, street, addr_number, complement, district, city, state, notes, created_by, created, updated"

func scanPatient(row rowScanner) (*core.Patient, error) {
	var p = &core.Patient{}
	var birthDate string
	var created, updated int64
	err := row.Scan(&p.ID, &p.Municipality, &p.CPF, &p.Name, &birthDate, &p.Sex, &p.Phone, &p.Email,
		&p.Address.CEP, &p.Address.Street, &p.Address.Number, &p.Address.Complement, &p.Address.District, &p.Address.City, &p.Address.State,
		&p.Notes, &p.CreatedBy, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.BirthDate, _ = time.Parse(util.DateLayout, birthDate) // zero if malformed
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}

type PatientDB struct {
	count  *sql.Stmt
	get    *sql.Stmt
	getAll *sql.Stmt
	getCPF *sql.Stmt
	insert *sql.Stmt
	update *sql.Stmt
}

func NewPatientDB(db *DB) *PatientDB {

	db.mustExec(
		`CREATE TABLE IF NOT EXISTS patient (
			id VARCHAR(36) PRIMARY KEY,
			municipality VARCHAR(128) NOT NULL,
			cpf VARCHAR(11) NOT NULL,
			name VARCHAR(255) NOT NULL,
			birth_date VARCHAR(10) NOT NULL,
			sex VARCHAR(1) NOT NULL,
			phone VARCHAR(11) NOT NULL,
			email VARCHAR(255) NOT NULL,
			cep VARCHAR(8) NOT NULL,
			street VARCHAR(255) NOT NULL,
			addr_number VARCHAR(16) NOT NULL,
			complement VARCHAR(255) NOT NULL,
			district VARCHAR(128) NOT NULL,
			city VARCHAR(128) NOT NULL,
			state VARCHAR(2) NOT NULL,
			notes TEXT NOT NULL,
			created_by VARCHAR(11) NOT NULL,
			created BIGINT NOT NULL,
			updated BIGINT NOT NULL,
			name_key VARCHAR(255) NOT NULL,
			UNIQUE (municipality, cpf)
		)`)

	var patientDB = &PatientDB{}
	patientDB.count = db.mustPrepare("SELECT COUNT(*) FROM patient WHERE municipality = ? AND name_key LIKE ?")
	patientDB.get = db.mustPrepare("SELECT " + patientColumns + " FROM patient WHERE municipality = ? AND id = ?")
	patientDB.getAll = db.mustPrepare("SELECT " + patientColumns + " FROM patient WHERE municipality = ? AND name_key LIKE ? ORDER BY name LIMIT ? OFFSET ?")
	patientDB.getCPF = db.mustPrepare("SELECT " + patientColumns + " FROM patient WHERE municipality = ? AND cpf = ?")
	patientDB.insert = db.mustPrepare("INSERT INTO patient (" + patientColumns + ", name_key) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	patientDB.update = db.mustPrepare("UPDATE patient SET name = ?, name_key = ?, birth_date = ?, sex = ?, phone = ?, email = ?, cep = ?, street = ?, addr_number = ?, complement = ?, district = ?, city = ?, state = ?, notes = ?, updated = ? WHERE municipality = ? AND id = ?")
	return patientDB
}

// nameKey is stored next to the name and matched by name searches. SQL LOWER is ASCII-only in sqlite, so the key is lowercased here.
func nameKey(name string) string {
	return strings.ToLower(name)
}

// likePrefix returns a LIKE pattern for name_key. Wildcards in prefix are removed.
func likePrefix(prefix string) string {
	prefix = strings.NewReplacer("%", "", "_", "").Replace(prefix)
	return nameKey(prefix) + "%"
}

func (db *PatientDB) CountPatients(ctx context.Context, municipality, namePrefix string) (int, error) {
	var count int
	err := db.count.QueryRowContext(ctx, municipality, likePrefix(namePrefix)).Scan(&count)
	return count, err
}

func (db *PatientDB) GetPatient(ctx context.Context, municipality, id string) (*core.Patient, error) {
	return scanPatient(db.get.QueryRowContext(ctx, municipality, id))
}

func (db *PatientDB) GetPatientByCPF(ctx context.Context, municipality, cpf string) (*core.Patient, error) {
	return scanPatient(db.getCPF.QueryRowContext(ctx, municipality, cpf))
}

func (db *PatientDB) GetPatients(ctx context.Context, municipality, namePrefix string, limit, offset int) ([]*core.Patient, error) {

	var all = []*core.Patient{}

	rows, err := db.getAll.QueryContext(ctx, municipality, likePrefix(namePrefix), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}

	return all, rows.Err()
}

func (db *PatientDB) InsertPatient(ctx context.Context, p *core.Patient) error {
	_, err := db.insert.ExecContext(ctx,
		p.ID, p.Municipality, p.CPF, p.Name, p.BirthDate.Format(util.DateLayout), p.Sex, p.Phone, p.Email,
		p.Address.CEP, p.Address.Street, p.Address.Number, p.Address.Complement, p.Address.District, p.Address.City, p.Address.State,
		p.Notes, p.CreatedBy, p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano(), nameKey(p.Name))
	return err
}

// UpdatePatient writes the fields which can be changed by users. It returns sql.ErrNoRows if the patient does not exist.
func (db *PatientDB) UpdatePatient(ctx context.Context, p *core.Patient) error {
	return mustAffectOne(db.update.ExecContext(ctx,
		p.Name, nameKey(p.Name), p.BirthDate.Format(util.DateLayout), p.Sex, p.Phone, p.Email,
		p.Address.CEP, p.Address.Street, p.Address.Number, p.Address.Complement, p.Address.District, p.Address.City, p.Address.State,
		p.Notes, p.UpdatedAt.UnixNano(), p.Municipality, p.ID))
}
