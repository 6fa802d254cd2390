package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patientdocs/api/internal/platform/mail"
	"github.com/patientdocs/api/internal/platform/render"
)

var (
	ErrEncounterRequired = errors.New("encounter id is required")
	ErrNoItems           = errors.New("bill needs at least one item")
	ErrBadItem           = errors.New("bill items need a label and a positive quantity")
	ErrNoPatientEmail    = errors.New("patient has no email address")
)

// TxRunner executes fn atomically.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo       Repository
	renderer   *render.Renderer
	mailer     mail.Mailer
	runTx      TxRunner
	clinicName string
}

func NewService(repo Repository, renderer *render.Renderer, mailer mail.Mailer, runTx TxRunner, clinicName string) *Service {
	return &Service{repo: repo, renderer: renderer, mailer: mailer, runTx: runTx, clinicName: clinicName}
}

// SaveInput is one bill save request. Items replace whatever the bill held.
type SaveInput struct {
	EncounterID int64       `json:"encounter_id"`
	PatientID   int64       `json:"patient_id"`
	Date        time.Time   `json:"date"`
	Items       []*BillItem `json:"items"`
}

// Save writes the bill header and items in one transaction. Line amounts and
// the total are recomputed here, never trusted from the client.
func (s *Service) Save(ctx context.Context, in *SaveInput) (*Bill, error) {
	if in.EncounterID == 0 {
		return nil, ErrEncounterRequired
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	var total float64
	for _, item := range in.Items {
		if item.Label == "" || item.Quantity <= 0 {
			return nil, ErrBadItem
		}
		item.Amount = float64(item.Quantity) * item.UnitPrice
		total += item.Amount
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var saved *Bill
	err := s.runTx(ctx, func(ctx context.Context) error {
		number, err := s.repo.NextInvoiceNumber(ctx, date.Year())
		if err != nil {
			return err
		}
		b := &Bill{
			EncounterID:   in.EncounterID,
			PatientID:     in.PatientID,
			InvoiceNumber: number,
			Date:          date,
			Total:         total,
		}
		if err := s.repo.UpsertBill(ctx, b); err != nil {
			return err
		}
		if err := s.repo.ReplaceItems(ctx, b.ID, in.Items); err != nil {
			return err
		}
		b.Items = in.Items
		saved = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEncounter(ctx context.Context, encounterID int64) (*Bill, error) {
	return s.repo.GetByEncounter(ctx, encounterID)
}

func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// RenderPopup renders the bill details popup fragment.
func (s *Service) RenderPopup(ctx context.Context, id int64) (string, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer.Render("bill_popup.html", map[string]any{"Bill": b})
}

// SendInvoice renders the invoice email and delivers it to the patient's
// address on file.
func (s *Service) SendInvoice(ctx context.Context, id int64) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.PatientEmail == "" {
		return ErrNoPatientEmail
	}
	body, err := s.renderer.Render("invoice_email.html", map[string]any{
		"PatientName": b.PatientName,
		"Bill":        b,
		"ClinicName":  s.clinicName,
	})
	if err != nil {
		return fmt.Errorf("render invoice email: %w", err)
	}
	subject := "Invoice " + b.InvoiceNumber
	if err := s.mailer.Send(ctx, b.PatientEmail, subject, body); err != nil {
		return fmt.Errorf("send invoice %s: %w", b.InvoiceNumber, err)
	}
	return nil
}
