package patient

import "time"

// Patient is the demographic record backing the clinical domains.
type Patient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	BirthDate string    `json:"birth_date,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewEncounter is the slim encounter summary shown on the patient page.
type ViewEncounter struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// ViewPrescription is the prescription line shown on the patient page.
type ViewPrescription struct {
	ID             int64  `json:"id"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Duration       string `json:"duration"`
}

// View aggregates everything the patient page needs in one payload: the
// demographics, the most recent encounter and that encounter's prescriptions.
type View struct {
	Patient       *Patient            `json:"patient"`
	Encounter     *ViewEncounter      `json:"encounter,omitempty"`
	Prescriptions []*ViewPrescription `json:"prescriptions"`
}
