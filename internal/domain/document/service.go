package document

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/patientdocs/api/internal/platform/upload"
)

var (
	ErrTypeRequired      = errors.New("document type is required")
	ErrEncounterRequired = errors.New("encounter id is required")
	ErrNoDocuments       = errors.New("consultation needs at least one document")
	ErrTemplateName      = errors.New("template name is required")
)

// TxRunner executes fn atomically. Production wires db.WithTx here; tests
// pass the function through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo  Repository
	files upload.Store
	runTx TxRunner
}

func NewService(repo Repository, files upload.Store, runTx TxRunner) *Service {
	return &Service{repo: repo, files: files, runTx: runTx}
}

func (s *Service) Save(ctx context.Context, d *Document) error {
	if d.EncounterID == 0 {
		return ErrEncounterRequired
	}
	if d.DocumentType == "" {
		return ErrTypeRequired
	}
	return s.repo.Upsert(ctx, d)
}

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEncounterAndType(ctx context.Context, encounterID int64, docType string) (*Document, error) {
	return s.repo.GetByEncounterAndType(ctx, encounterID, docType)
}

func (s *Service) ListByEncounter(ctx context.Context, encounterID int64) ([]*Document, error) {
	return s.repo.ListByEncounter(ctx, encounterID)
}

// SaveConsultation writes every document of the input in one transaction,
// closing the encounter at the end when asked. Either all documents land or
// none do.
func (s *Service) SaveConsultation(ctx context.Context, in *ConsultationInput, createdBy int64) ([]*Document, error) {
	if in.EncounterID == 0 {
		return nil, ErrEncounterRequired
	}
	if len(in.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	// Map iteration order is random; sort so retries write in the same order.
	types := make([]string, 0, len(in.Documents))
	for docType := range in.Documents {
		if docType == "" {
			return nil, ErrTypeRequired
		}
		types = append(types, docType)
	}
	sort.Strings(types)

	var saved []*Document
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, docType := range types {
			d := &Document{
				EncounterID:  in.EncounterID,
				DocumentType: docType,
				Content:      in.Documents[docType],
				CreatedBy:    createdBy,
			}
			if err := s.repo.Upsert(ctx, d); err != nil {
				return err
			}
			saved = append(saved, d)
		}
		if in.Close {
			return s.repo.CloseEncounter(ctx, in.EncounterID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) SaveTemplate(ctx context.Context, d *Document) error {
	if d.DocumentType == "" {
		return ErrTypeRequired
	}
	if d.TemplateName == "" {
		return ErrTemplateName
	}
	return s.repo.SaveTemplate(ctx, d)
}

func (s *Service) ListTemplates(ctx context.Context, docType string) ([]*Document, error) {
	return s.repo.ListTemplates(ctx, docType)
}

func (s *Service) DeleteTemplate(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteTemplate(ctx, id)
}

// UploadReport validates and stores the file first, then records the
// metadata row. A rejected file never reaches the store or the database.
func (s *Service) UploadReport(ctx context.Context, encounterID, createdBy int64, fileName, contentType string, content io.Reader) (*MedicalReport, error) {
	if encounterID == 0 {
		return nil, ErrEncounterRequired
	}
	meta, err := s.files.Save(ctx, fileName, contentType, content)
	if err != nil {
		return nil, err
	}
	rep := &MedicalReport{
		EncounterID: encounterID,
		FileID:      meta.ID,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		CreatedBy:   createdBy,
	}
	if err := s.repo.CreateReport(ctx, rep); err != nil {
		// Keep store and table consistent when the row fails.
		_ = s.files.Delete(ctx, meta.ID)
		return nil, err
	}
	return rep, nil
}

func (s *Service) ListReports(ctx context.Context, encounterID int64) ([]*MedicalReport, error) {
	return s.repo.ListReportsByEncounter(ctx, encounterID)
}

// OpenReport streams a stored report file with its metadata row.
func (s *Service) OpenReport(ctx context.Context, id int64) (*MedicalReport, io.ReadCloser, error) {
	rep, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.files.Open(ctx, rep.FileID)
	if err != nil {
		return nil, nil, err
	}
	return rep, rc, nil
}
