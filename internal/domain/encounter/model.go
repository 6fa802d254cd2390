package encounter

import "time"

// Encounter statuses. An encounter is active while the visit is open and
// closed once the clinician signs it off.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Encounter is a single patient visit.
type Encounter struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    int64     `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Appointment is a booked slot. Appointments feed the clinician roster used
// by the access checker and the monthly calendar view.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    int64     `json:"doctor_id"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Date filter modes accepted by encounter lists.
const (
	DateFilterAll    = "all"
	DateFilterToday  = "today"
	DateFilterWeek   = "week"
	DateFilterCustom = "custom"
)

// Filter narrows an encounter list. Zero values mean no constraint; all
// present constraints combine with AND.
type Filter struct {
	Search     string
	DateFilter string
	From       time.Time
	To         time.Time
	Status     string
}
