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

// normalize trims the input and checks the required fields.
func (in *PatientInput) normalize(now time.Time) error {

	in.Name = strings.TrimSpace(in.Name)
	in.CPF = util.Digits(in.CPF)
	in.Sex = strings.ToUpper(strings.TrimSpace(in.Sex))
	in.Phone = util.Digits(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Address.CEP = util.Digits(in.Address.CEP)
	in.Address.Street = strings.TrimSpace(in.Address.Street)
	in.Address.Number = strings.TrimSpace(in.Address.Number)
	in.Address.Complement = strings.TrimSpace(in.Address.Complement)
	in.Address.District = strings.TrimSpace(in.Address.District)
	in.Address.City = strings.TrimSpace(in.Address.City)
	in.Address.State = strings.ToUpper(strings.TrimSpace(in.Address.State))

	switch {
	case in.Name == "":
		return invalidArgument("name is required")
	case len(in.CPF) != 11:
		return invalidArgument("CPF must have 11 digits")
	case in.BirthDate.IsZero():
		return invalidArgument("birth date is required")
	case in.BirthDate.After(now):
		return invalidArgument("birth date is in the future")
	case in.Sex != "" && in.Sex != "F" && in.Sex != "M":
		return invalidArgument("sex must be F or M")
	case len(in.Phone) < 10 || len(in.Phone) > 11:
		return invalidArgument("phone must have 10 or 11 digits including the area code")
	case in.Email != "" && !strings.Contains(in.Email, "@"):
		return invalidArgument("invalid email address")
	case len(in.Address.CEP) != 8:
		return invalidArgument("CEP must have 8 digits")
	case in.Address.Street == "":
		return invalidArgument("street is required")
	case in.Address.Number == "":
		return invalidArgument("number is required")
	case in.Address.District == "":
		return invalidArgument("district is required")
	case in.Address.City == "":
		return invalidArgument("city is required")
	case len(in.Address.State) != 2:
		return invalidArgument("state must be a two-letter code")
	}
	return nil
}

// advisories returns warnings which don't prevent saving the patient.
func advisories(p *Patient, now time.Time) []string {
	var result []string
	if !ValidCPF(p.CPF) {
		result = append(result, fmt.Sprintf("The check digits of CPF %s are invalid.", FormatCPF(p.CPF)))
	}
	if age := p.Age(now); age < ElderlyAge {
		result = append(result, fmt.Sprintf("The patient is %d years old, younger than %d.", age, ElderlyAge))
	}
	return result
}

func (p *Patient) apply(in PatientInput) {
	p.Name = in.Name
	p.BirthDate = in.BirthDate
	p.Sex = in.Sex
	p.Phone = in.Phone
	p.Email = in.Email
	p.Address = in.Address
	p.Notes = in.Notes
}

// CreatePatient registers a patient in the municipality of the identity.
// The returned advisories should be shown to the user.
func (c *CoreDB) CreatePatient(ctx context.Context, identity *auth.Identity, in PatientInput) (*Patient, []string, error) {

	if err := c.require(ctx, identity, auth.CreatePatient); err != nil {
		return nil, nil, err
	}

	var now = c.now()
	if err := in.normalize(now); err != nil {
		return nil, nil, c.fail(ctx, err)
	}

	switch _, err := c.PatientDB.GetPatientByCPF(ctx, identity.Municipality, in.CPF); {
	case err == nil:
		return nil, nil, c.fail(ctx, invalidArgument("a patient with CPF %s already exists", FormatCPF(in.CPF)))
	case !errors.Is(err, sql.ErrNoRows):
		return nil, nil, c.fail(ctx, collaboratorFailure("get patient by CPF", err))
	}

	var p = &Patient{
		ID:           uuid.New().String(),
		CPF:          in.CPF,
		Municipality: identity.Municipality,
		CreatedBy:    identity.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.apply(in)

	if err := c.PatientDB.InsertPatient(ctx, p); err != nil {
		return nil, nil, c.fail(ctx, collaboratorFailure("insert patient", err))
	}

	var warnings = advisories(p, now)
	c.success(ctx, "Patient %s has been registered.", p.Name)
	for _, w := range warnings {
		c.warning(ctx, "%s", w)
	}
	return p, warnings, nil
}

// UpdatePatient changes a patient of the municipality of the identity. CPF and municipality can't be changed.
func (c *CoreDB) UpdatePatient(ctx context.Context, identity *auth.Identity, id string, in PatientInput) (*Patient, []string, error) {

	if err := c.require(ctx, identity, auth.UpdatePatient); err != nil {
		return nil, nil, err
	}

	p, err := c.GetPatient(ctx, identity, id)
	if err != nil {
		return nil, nil, err
	}

	if cpf := util.Digits(in.CPF); cpf != "" && cpf != p.CPF {
		return nil, nil, c.fail(ctx, invalidArgument("the CPF of a patient can't be changed"))
	}
	in.CPF = p.CPF

	var now = c.now()
	if err := in.normalize(now); err != nil {
		return nil, nil, c.fail(ctx, err)
	}

	var updated = *p
	updated.apply(in)
	updated.UpdatedAt = now

	if err := c.PatientDB.UpdatePatient(ctx, &updated); err != nil {
		return nil, nil, c.fail(ctx, collaboratorFailure("update patient", err))
	}

	var warnings = advisories(&updated, now)
	c.success(ctx, "Patient %s has been saved.", updated.Name)
	for _, w := range warnings {
		c.warning(ctx, "%s", w)
	}
	return &updated, warnings, nil
}

func (c *CoreDB) GetPatient(ctx context.Context, identity *auth.Identity, id string) (*Patient, error) {
	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	p, err := c.PatientDB.GetPatient(ctx, identity.Municipality, id)
	if err != nil {
		return nil, c.fail(ctx, lookupFailure("get patient", err))
	}
	if p.Municipality != identity.Municipality {
		return nil, c.fail(ctx, fmt.Errorf("%w: get patient", ErrNotFound))
	}
	return p, nil
}

// FindPatientByCPF is used by the assessment form. Formatting characters in cpf are ignored.
func (c *CoreDB) FindPatientByCPF(ctx context.Context, identity *auth.Identity, cpf string) (*Patient, error) {
	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	cpf = util.Digits(cpf)
	if len(cpf) != 11 {
		return nil, c.fail(ctx, invalidArgument("CPF must have 11 digits"))
	}
	p, err := c.PatientDB.GetPatientByCPF(ctx, identity.Municipality, cpf)
	if err != nil {
		return nil, c.fail(ctx, lookupFailure("get patient by CPF", err))
	}
	return p, nil
}

// ListPatients returns patients of the municipality of the identity whose name starts with namePrefix, ordered by name.
func (c *CoreDB) ListPatients(ctx context.Context, identity *auth.Identity, namePrefix string, limit, offset int) ([]*Patient, error) {
	if identity == nil {
		return nil, c.fail(ctx, ErrUnauthenticated)
	}
	if limit <= 0 || offset < 0 {
		return nil, c.fail(ctx, invalidArgument("invalid page"))
	}
	patients, err := c.PatientDB.GetPatients(ctx, identity.Municipality, strings.TrimSpace(namePrefix), limit, offset)
	if err != nil {
		return nil, c.fail(ctx, collaboratorFailure("get patients", err))
	}
	var result = patients[:0]
	for _, p := range patients {
		if p.Municipality == identity.Municipality {
			result = append(result, p)
		}
	}
	return result, nil
}

func (c *CoreDB) CountPatients(ctx context.Context, identity *auth.Identity, namePrefix string) (int, error) {
	if identity == nil {
		return 0, c.fail(ctx, ErrUnauthenticated)
	}
	count, err := c.PatientDB.CountPatients(ctx, identity.Municipality, strings.TrimSpace(namePrefix))
	if err != nil {
		return 0, c.fail(ctx, collaboratorFailure("count patients", err))
	}
	return count, nil
}
