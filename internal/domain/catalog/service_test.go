package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/patientdocs/api/internal/platform/db"
)

type mockRepo struct {
	medications   map[string]*Medication
	usTypes       map[int64]*UltrasoundType
	arTypes       map[int64]*AnalyseRadioType
	usOrders      map[int64]*PatientUltrasound
	arOrders      map[int64]*PatientAnalyseRadio
	nextID        int64
	hasEncounters map[int64]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		medications:   make(map[string]*Medication),
		usTypes:       make(map[int64]*UltrasoundType),
		arTypes:       make(map[int64]*AnalyseRadioType),
		usOrders:      make(map[int64]*PatientUltrasound),
		arOrders:      make(map[int64]*PatientAnalyseRadio),
		nextID:        1,
		hasEncounters: map[int64]bool{1: true},
	}
}

func (m *mockRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepo) AddMedication(_ context.Context, name string) (*Medication, error) {
	if existing, ok := m.medications[name]; ok {
		return existing, nil
	}
	med := &Medication{ID: m.id(), Name: name}
	m.medications[name] = med
	return med, nil
}

func (m *mockRepo) ListMedications(_ context.Context, search string) ([]*Medication, error) {
	var out []*Medication
	for _, med := range m.medications {
		out = append(out, med)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) AddUltrasoundType(_ context.Context, name string) (*UltrasoundType, error) {
	t := &UltrasoundType{ID: m.id(), Name: name}
	m.usTypes[t.ID] = t
	return t, nil
}

func (m *mockRepo) ListUltrasoundTypes(context.Context) ([]*UltrasoundType, error) {
	var out []*UltrasoundType
	for _, t := range m.usTypes {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) AddAnalyseRadioType(_ context.Context, name string) (*AnalyseRadioType, error) {
	t := &AnalyseRadioType{ID: m.id(), Name: name}
	m.arTypes[t.ID] = t
	return t, nil
}

func (m *mockRepo) ListAnalyseRadioTypes(context.Context) ([]*AnalyseRadioType, error) {
	var out []*AnalyseRadioType
	for _, t := range m.arTypes {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) AddPatientUltrasound(_ context.Context, pu *PatientUltrasound) error {
	pu.ID = m.id()
	pu.CreatedAt = time.Now()
	if t, ok := m.usTypes[pu.TypeID]; ok {
		pu.TypeName = t.Name
	}
	m.usOrders[pu.ID] = pu
	return nil
}

func (m *mockRepo) ListPatientUltrasounds(_ context.Context, encounterID int64) ([]*PatientUltrasound, error) {
	var out []*PatientUltrasound
	for id := int64(1); id < m.nextID; id++ {
		if pu, ok := m.usOrders[id]; ok && pu.EncounterID == encounterID {
			out = append(out, pu)
		}
	}
	return out, nil
}

func (m *mockRepo) DeletePatientUltrasound(_ context.Context, id int64) (bool, error) {
	if _, ok := m.usOrders[id]; !ok {
		return false, nil
	}
	delete(m.usOrders, id)
	return true, nil
}

func (m *mockRepo) AddPatientAnalyseRadio(_ context.Context, pa *PatientAnalyseRadio) error {
	pa.ID = m.id()
	pa.CreatedAt = time.Now()
	if t, ok := m.arTypes[pa.TypeID]; ok {
		pa.TypeName = t.Name
	}
	m.arOrders[pa.ID] = pa
	return nil
}

func (m *mockRepo) ListPatientAnalyseRadios(_ context.Context, encounterID int64) ([]*PatientAnalyseRadio, error) {
	var out []*PatientAnalyseRadio
	for id := int64(1); id < m.nextID; id++ {
		if pa, ok := m.arOrders[id]; ok && pa.EncounterID == encounterID {
			out = append(out, pa)
		}
	}
	return out, nil
}

func (m *mockRepo) DeletePatientAnalyseRadio(_ context.Context, id int64) (bool, error) {
	if _, ok := m.arOrders[id]; !ok {
		return false, nil
	}
	delete(m.arOrders, id)
	return true, nil
}

func (m *mockRepo) EncounterHeader(_ context.Context, encounterID int64) (string, time.Time, error) {
	if !m.hasEncounters[encounterID] {
		return "", time.Time{}, db.ErrNotFound
	}
	return "Alice Smith", time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC), nil
}

func TestService_AddMedicationTrimsAndValidates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	med, err := svc.AddMedication(context.Background(), "  Amoxicillin  ")
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}
	if med.Name != "Amoxicillin" {
		t.Errorf("name = %q, want trimmed", med.Name)
	}

	if _, err := svc.AddMedication(context.Background(), "   "); !errors.Is(err, ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}
}

func TestService_AddMedicationIsIdempotent(t *testing.T) {
	svc := NewService(newMockRepo())

	first, err := svc.AddMedication(context.Background(), "Amoxicillin")
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}
	second, err := svc.AddMedication(context.Background(), "Amoxicillin")
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeated add created a new entry: %d vs %d", first.ID, second.ID)
	}
}

func TestService_AddPatientUltrasoundValidates(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.AddPatientUltrasound(context.Background(), &PatientUltrasound{EncounterID: 1})
	if !errors.Is(err, ErrTypeRequired) {
		t.Errorf("err = %v, want ErrTypeRequired", err)
	}
	err = svc.AddPatientUltrasound(context.Background(), &PatientUltrasound{TypeID: 1})
	if !errors.Is(err, ErrEncounterRequired) {
		t.Errorf("err = %v, want ErrEncounterRequired", err)
	}
}

func TestService_UltrasoundPrintData(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ut, err := svc.AddUltrasoundType(context.Background(), "Abdominal")
	if err != nil {
		t.Fatalf("AddUltrasoundType: %v", err)
	}
	if err := svc.AddPatientUltrasound(context.Background(), &PatientUltrasound{
		PatientID: 9, EncounterID: 1, TypeID: ut.ID,
	}); err != nil {
		t.Fatalf("AddPatientUltrasound: %v", err)
	}

	data, err := svc.UltrasoundPrintData(context.Background(), 1)
	if err != nil {
		t.Fatalf("UltrasoundPrintData: %v", err)
	}
	if data.PatientName != "Alice Smith" {
		t.Errorf("patient = %q", data.PatientName)
	}
	if len(data.Items) != 1 || data.Items[0].TypeName != "Abdominal" {
		t.Errorf("items = %+v", data.Items)
	}
}

func TestService_PrintDataMissingEncounter(t *testing.T) {
	svc := NewService(newMockRepo())

	if _, err := svc.AnalyseRadioPrintData(context.Background(), 42); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestService_DeleteOrderMissingReportsFalse(t *testing.T) {
	svc := NewService(newMockRepo())

	ok, err := svc.DeletePatientUltrasound(context.Background(), 5)
	if err != nil {
		t.Fatalf("DeletePatientUltrasound: %v", err)
	}
	if ok {
		t.Error("expected false for missing order")
	}
}
