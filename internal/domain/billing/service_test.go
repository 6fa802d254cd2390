package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/render"
)

type mockRepo struct {
	bills       map[int64]*Bill // keyed by bill id
	byEncounter map[int64]int64
	nextID      int64
	counters    map[int]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		bills:       make(map[int64]*Bill),
		byEncounter: make(map[int64]int64),
		nextID:      1,
		counters:    make(map[int]int),
	}
}

func (m *mockRepo) UpsertBill(_ context.Context, b *Bill) error {
	if id, ok := m.byEncounter[b.EncounterID]; ok {
		existing := m.bills[id]
		existing.Total = b.Total
		existing.Date = b.Date
		existing.UpdatedAt = time.Now()
		*b = *existing
		return nil
	}
	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.bills[b.ID] = b
	m.byEncounter[b.EncounterID] = b.ID
	return nil
}

func (m *mockRepo) ReplaceItems(_ context.Context, billID int64, items []*BillItem) error {
	b, ok := m.bills[billID]
	if !ok {
		return errors.New("no bill")
	}
	for i, item := range items {
		item.ID = int64(i + 1)
		item.BillID = billID
	}
	b.Items = items
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) GetByEncounter(_ context.Context, encounterID int64) (*Bill, error) {
	id, ok := m.byEncounter[encounterID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return m.bills[id], nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) (bool, error) {
	b, ok := m.bills[id]
	if !ok {
		return false, nil
	}
	delete(m.byEncounter, b.EncounterID)
	delete(m.bills, id)
	return true, nil
}

func (m *mockRepo) NextInvoiceNumber(_ context.Context, year int) (string, error) {
	m.counters[year]++
	return fmt.Sprintf("%d-%04d", year, m.counters[year]), nil
}

type recordingMailer struct {
	to      string
	subject string
	body    string
	err     error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.subject = subject
	m.body = htmlBody
	return nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(t *testing.T, repo *mockRepo, mailer *recordingMailer) *Service {
	t.Helper()
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return NewService(repo, renderer, mailer, passthroughTx, "City Clinic")
}

func TestService_SaveComputesAmountsAndTotal(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &recordingMailer{})

	b, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		PatientID:   9,
		Items: []*BillItem{
			{Label: "Consultation", Quantity: 1, UnitPrice: 300, Amount: 9999},
			{Label: "Ultrasound", Quantity: 2, UnitPrice: 150},
		},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if b.Items[0].Amount != 300 {
		t.Errorf("client-sent amount was trusted: %v", b.Items[0].Amount)
	}
	if b.Total != 600 {
		t.Errorf("total = %v, want 600", b.Total)
	}
	if b.InvoiceNumber == "" {
		t.Error("expected assigned invoice number")
	}
}

func TestService_SaveValidates(t *testing.T) {
	svc := newTestService(t, newMockRepo(), &recordingMailer{})

	_, err := svc.Save(context.Background(), &SaveInput{EncounterID: 1})
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("err = %v, want ErrNoItems", err)
	}
	_, err = svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		Items:       []*BillItem{{Label: "X", Quantity: 0}},
	})
	if !errors.Is(err, ErrBadItem) {
		t.Errorf("err = %v, want ErrBadItem", err)
	}
}

func TestService_SaveUpsertsPerEncounter(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &recordingMailer{})

	first, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		Items:       []*BillItem{{Label: "Consultation", Quantity: 1, UnitPrice: 300}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		Items:       []*BillItem{{Label: "Consultation", Quantity: 1, UnitPrice: 350}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second save created a new bill: %d vs %d", second.ID, first.ID)
	}
	if len(repo.bills) != 1 {
		t.Errorf("bills = %d, want 1", len(repo.bills))
	}
	if repo.bills[first.ID].Total != 350 {
		t.Errorf("total = %v, want 350", repo.bills[first.ID].Total)
	}
}

func TestService_InvoiceNumbersIncrementPerYear(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &recordingMailer{})
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1, Date: date,
		Items: []*BillItem{{Label: "A", Quantity: 1, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 2, Date: date,
		Items: []*BillItem{{Label: "B", Quantity: 1, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.InvoiceNumber != "2026-0001" || second.InvoiceNumber != "2026-0002" {
		t.Errorf("numbers = %q, %q", first.InvoiceNumber, second.InvoiceNumber)
	}
}

func TestService_SendInvoice(t *testing.T) {
	repo := newMockRepo()
	mailer := &recordingMailer{}
	svc := newTestService(t, repo, mailer)
	b, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1, PatientID: 9,
		Items: []*BillItem{{Label: "Consultation", Quantity: 1, UnitPrice: 300}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.bills[b.ID].PatientName = "Alice Smith"
	repo.bills[b.ID].PatientEmail = "alice@example.com"

	if err := svc.SendInvoice(context.Background(), b.ID); err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if mailer.to != "alice@example.com" {
		t.Errorf("to = %q", mailer.to)
	}
	if !strings.Contains(mailer.subject, b.InvoiceNumber) {
		t.Errorf("subject = %q, want invoice number", mailer.subject)
	}
	if !strings.Contains(mailer.body, "Alice Smith") || !strings.Contains(mailer.body, "City Clinic") {
		t.Errorf("body missing content: %s", mailer.body)
	}
}

func TestService_SendInvoiceRequiresEmail(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &recordingMailer{})
	b, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		Items:       []*BillItem{{Label: "Consultation", Quantity: 1, UnitPrice: 300}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.SendInvoice(context.Background(), b.ID); !errors.Is(err, ErrNoPatientEmail) {
		t.Errorf("err = %v, want ErrNoPatientEmail", err)
	}
}

func TestService_RenderPopup(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &recordingMailer{})
	b, err := svc.Save(context.Background(), &SaveInput{
		EncounterID: 1,
		Items:       []*BillItem{{Label: "Consultation", Quantity: 1, UnitPrice: 300}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	html, err := svc.RenderPopup(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("RenderPopup: %v", err)
	}
	if !strings.Contains(html, b.InvoiceNumber) || !strings.Contains(html, "300.00") {
		t.Errorf("popup missing content: %s", html)
	}
}
