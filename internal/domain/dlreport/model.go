package dlreport

import "time"

// License categories accepted on driver fitness reports.
const (
	LicenseTypeA = "A"
	LicenseTypeB = "B"
	LicenseTypeC = "C"
	LicenseTypeD = "D"
	LicenseTypeE = "E"
)

// Record is one driver license medical fitness report. FileID points at the
// scanned report in the file store once one is uploaded.
type Record struct {
	ID             int64     `json:"id"`
	OrderNumber    string    `json:"order_number"`
	Date           time.Time `json:"date"`
	PatientName    string    `json:"patient_name"`
	CIN            string    `json:"cin"`
	LicenseType    string    `json:"license_type"`
	InterestStatus string    `json:"interest_status,omitempty"`
	FileID         string    `json:"file_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Named date windows accepted by List, besides an explicit from/to range.
const (
	DateFilterAll    = "all"
	DateFilterToday  = "today"
	DateFilterWeek   = "week"
	DateFilterCustom = "custom"
)

// Filter narrows a report listing. From/To apply with DateFilterCustom, or
// on their own when no named window is requested.
type Filter struct {
	Search     string
	DateFilter string
	From       time.Time
	To         time.Time
}
