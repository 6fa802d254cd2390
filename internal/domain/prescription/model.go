package prescription

import "time"

// Prescription is one medication line on an encounter. Lines are append
// only: corrections happen by deleting a line and adding a new one, never by
// editing in place.
type Prescription struct {
	ID             int64     `json:"id"`
	EncounterID    int64     `json:"encounter_id"`
	PatientID      int64     `json:"patient_id"`
	MedicationName string    `json:"medication_name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       string    `json:"duration"`
	Instructions   string    `json:"instructions,omitempty"`
	DoctorID       int64     `json:"doctor_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// PrintData carries everything the printable prescription sheet needs.
type PrintData struct {
	PatientName   string          `json:"patient_name"`
	DoctorName    string          `json:"doctor_name"`
	Date          time.Time       `json:"date"`
	Prescriptions []*Prescription `json:"prescriptions"`
}
