package document

import "time"

// Document types written during a consultation.
const (
	TypeConsultation = "consultation"
	TypeObservation  = "observation"
	TypeConclusion   = "conclusion"
	TypeCertificate  = "certificate"
	TypeLetter       = "letter"
)

// Document is a free-text clinical note attached to an encounter. An
// encounter holds at most one document per type; saving again overwrites the
// content. Rows flagged IsTemplate are reusable boilerplate instead, keyed
// by TemplateName and not bound to any encounter.
type Document struct {
	ID           int64     `json:"id"`
	EncounterID  int64     `json:"encounter_id,omitempty"`
	DocumentType string    `json:"document_type"`
	Content      string    `json:"content"`
	IsTemplate   bool      `json:"is_template,omitempty"`
	TemplateName string    `json:"template_name,omitempty"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConsultationInput is one atomic consultation save: several document types
// written together, optionally closing the encounter.
type ConsultationInput struct {
	EncounterID int64             `json:"encounter_id"`
	Documents   map[string]string `json:"documents"`
	Close       bool              `json:"close"`
}

// MedicalReport is an uploaded report file attached to an encounter. The
// binary lives in the file store; the row keeps the metadata.
type MedicalReport struct {
	ID          int64     `json:"id"`
	EncounterID int64     `json:"encounter_id"`
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
