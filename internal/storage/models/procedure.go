package models

// Procedure is a billable procedure performed with a doctor.
// DoctorID is a lookup key only; the referenced contact may no longer exist.
type Procedure struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Time          string          `json:"time,omitempty"`
	Hospital      string          `json:"hospital,omitempty"`
	DoctorID      string          `json:"doctorId"`
	DoctorName    string          `json:"doctorName"`
	ProcedureType string          `json:"procedureType"`
	PaymentType   PaymentType     `json:"paymentType"`
	Cost          float64         `json:"cost,omitempty"`
	Commission    float64         `json:"commission,omitempty"`
	Technician    string          `json:"technician,omitempty"`
	Notes         string          `json:"notes"`
	Status        ProcedureStatus `json:"status"`
}

// User is the logged-in person held in the session key.
type User struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the user may see every executive's data.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
