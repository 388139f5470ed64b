package core

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wansing/healthregistry/auth"
)

// memDB implements PatientDB and AssessmentDB in memory.
type memDB struct {
	sync.Mutex
	patients    map[string]Patient
	assessments map[string]Assessment
	failWith    error // returned by every method if not nil
	beforeCAS   func() // called by Decide before comparing, to simulate concurrent writers
}

func newMemDB() *memDB {
	return &memDB{
		patients:    make(map[string]Patient),
		assessments: make(map[string]Assessment),
	}
}

func (db *memDB) CountPatients(ctx context.Context, municipality, namePrefix string) (int, error) {
	all, err := db.GetPatients(ctx, municipality, namePrefix, 1<<30, 0)
	return len(all), err
}

func (db *memDB) GetPatient(ctx context.Context, municipality, id string) (*Patient, error) {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return nil, db.failWith
	}
	p, ok := db.patients[id]
	if !ok || p.Municipality != municipality {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (db *memDB) GetPatientByCPF(ctx context.Context, municipality, cpf string) (*Patient, error) {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return nil, db.failWith
	}
	for _, p := range db.patients {
		if p.Municipality == municipality && p.CPF == cpf {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (db *memDB) GetPatients(ctx context.Context, municipality, namePrefix string, limit, offset int) ([]*Patient, error) {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return nil, db.failWith
	}
	var all []*Patient
	for _, p := range db.patients {
		p := p
		if p.Municipality == municipality && strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(namePrefix)) {
			all = append(all, &p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (db *memDB) InsertPatient(ctx context.Context, p *Patient) error {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return db.failWith
	}
	db.patients[p.ID] = *p
	return nil
}

func (db *memDB) UpdatePatient(ctx context.Context, p *Patient) error {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return db.failWith
	}
	if _, ok := db.patients[p.ID]; !ok {
		return sql.ErrNoRows
	}
	db.patients[p.ID] = *p
	return nil
}

func (db *memDB) Decide(ctx context.Context, a *Assessment, expected Status) (bool, error) {
	if db.beforeCAS != nil {
		db.beforeCAS()
	}
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return false, db.failWith
	}
	stored, ok := db.assessments[a.ID]
	if !ok || stored.Municipality != a.Municipality || stored.Status != expected {
		return false, nil
	}
	db.assessments[a.ID] = *a
	return true, nil
}

func (db *memDB) GetAssessment(ctx context.Context, municipality, id string) (*Assessment, error) {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return nil, db.failWith
	}
	a, ok := db.assessments[id]
	if !ok || a.Municipality != municipality {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (db *memDB) GetAssessments(ctx context.Context, municipality string, filter AssessmentFilter) ([]*Assessment, error) {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return nil, db.failWith
	}
	var all = []*Assessment{}
	for _, a := range db.assessments {
		a := a
		if a.Municipality == municipality && filter.Match(&a) {
			all = append(all, &a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (db *memDB) InsertAssessment(ctx context.Context, a *Assessment) error {
	db.Lock()
	defer db.Unlock()
	if db.failWith != nil {
		return db.failWith
	}
	db.assessments[a.ID] = *a
	return nil
}

// stored returns a copy of the stored assessment.
func (db *memDB) stored(id string) Assessment {
	db.Lock()
	defer db.Unlock()
	return db.assessments[id]
}

// recorder implements Notifier and EventSink.
type recorder struct {
	sync.Mutex
	notifications []Notification
	events        []Event
	publishErr    error
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.Lock()
	defer r.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.Lock()
	defer r.Unlock()
	if r.publishErr != nil {
		return r.publishErr
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) last() Notification {
	r.Lock()
	defer r.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}
	}
	return r.notifications[len(r.notifications)-1]
}

var errStoreDown = errors.New("connection refused")

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCoreDB() (*CoreDB, *memDB, *recorder) {
	var db = newMemDB()
	var rec = &recorder{}
	var clockMu sync.Mutex
	var clock = testNow
	return &CoreDB{
		AssessmentDB: db,
		PatientDB:    db,
		Notifier:     rec,
		Events:       rec,
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second) // strictly increasing, so the order of creation is the order of CreatedAt
			return clock
		},
	}, db, rec
}

func identity(cpf, name, municipality string, role auth.Role) *auth.Identity {
	return &auth.Identity{
		ID:           cpf,
		Name:         name,
		Municipality: municipality,
		Role:         role,
		Active:       true,
	}
}

var (
	agentCG       = identity("52998224725", "Ana Agente", "Campo Grande", auth.Agent)
	coordinatorCG = identity("11144477735", "Carlos Coordenador", "Campo Grande", auth.Coordinator)
	managerCG     = identity("04158082196", "Maria Gerente", "Campo Grande", auth.Manager)
	adminCG       = identity("39053344705", "Adão Admin", "Campo Grande", auth.Admin)
	managerDO     = identity("28625587887", "Davi Gerente", "Dourados", auth.Manager)
)

// addPatient stores a patient directly, bypassing validation.
func addPatient(db *memDB, id, name, cpf, municipality string) *Patient {
	var p = &Patient{
		ID:           id,
		Name:         name,
		CPF:          cpf,
		BirthDate:    time.Date(1950, 5, 17, 0, 0, 0, 0, time.UTC),
		Municipality: municipality,
	}
	db.patients[id] = *p
	return p
}
