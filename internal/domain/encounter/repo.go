package encounter

import "context"

// Repository persists encounters and appointments.
type Repository interface {
	Create(ctx context.Context, enc *Encounter) error
	GetByID(ctx context.Context, id int64) (*Encounter, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Encounter, int, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	ListAppointmentsByMonth(ctx context.Context, year int, month int) ([]*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) (bool, error)

	// ListPatientIDsByDoctor returns the distinct patients a doctor has an
	// appointment with. It backs the access checker's roster.
	ListPatientIDsByDoctor(ctx context.Context, doctorID int64) ([]int64, error)
}
