package catalog

import "time"

// Medication is a dictionary entry used to autocomplete prescription lines.
type Medication struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UltrasoundType is a dictionary entry for orderable ultrasound exams.
type UltrasoundType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AnalyseRadioType is a dictionary entry for lab and radiology exams.
type AnalyseRadioType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PatientUltrasound links an ordered ultrasound exam to an encounter.
// TypeName is denormalized from the dictionary at read time.
type PatientUltrasound struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	EncounterID int64     `json:"encounter_id"`
	TypeID      int64     `json:"type_id"`
	TypeName    string    `json:"type_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PatientAnalyseRadio links an ordered lab or radiology exam to an encounter.
type PatientAnalyseRadio struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	EncounterID int64     `json:"encounter_id"`
	TypeID      int64     `json:"type_id"`
	TypeName    string    `json:"type_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PrintData feeds the printable exam request sheet.
type PrintData struct {
	Title       string
	PatientName string
	Date        time.Time
	Items       []PrintItem
}

type PrintItem struct {
	TypeName string
}
