package core

import (
	"context"
	"time"

	"github.com/wansing/healthregistry/util"
)

type Address struct {
	CEP        string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
}

type Patient struct {
	ID           string
	Name         string
	CPF          string
	BirthDate    time.Time
	Sex          string
	Phone        string
	Email        string
	Address      Address
	Notes        string
	Municipality string // fixed at creation
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Age returns the age of the patient in completed years.
func (p *Patient) Age(now time.Time) int {
	return util.Age(p.BirthDate, now)
}

// PatientInput contains the fields of a patient which can be entered by a user.
type PatientInput struct {
	Name      string
	CPF       string
	BirthDate time.Time
	Sex       string
	Phone     string
	Email     string
	Address   Address
	Notes     string
}

type PatientDB interface {
	CountPatients(ctx context.Context, municipality, namePrefix string) (int, error)
	// GetPatient returns sql.ErrNoRows if there is no such patient in the municipality.
	GetPatient(ctx context.Context, municipality, id string) (*Patient, error)
	// GetPatientByCPF returns sql.ErrNoRows if there is no such patient in the municipality.
	GetPatientByCPF(ctx context.Context, municipality, cpf string) (*Patient, error)
	// GetPatients returns patients ordered by name.
	GetPatients(ctx context.Context, municipality, namePrefix string, limit, offset int) ([]*Patient, error)
	InsertPatient(ctx context.Context, p *Patient) error
	UpdatePatient(ctx context.Context, p *Patient) error
}
