package records

import "time"

// HealthRecord es una ficha de salud. La "actual" es la de updated_at más reciente.
type HealthRecord struct {
	ID            int64     `json:"id"`
	AnimalID      int64     `json:"animal_id"`
	Weight        *float64  `json:"weight,omitempty"`
	BodyCondition string    `json:"body_condition"`
	Observations  string    `json:"observations"`
	Allergies     string    `json:"allergies"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Vaccine struct {
	ID              int64      `json:"id"`
	AnimalID        int64      `json:"animal_id"`
	Name            string     `json:"name"`
	ApplicationDate time.Time  `json:"application_date"`
	NextDose        *time.Time `json:"next_dose,omitempty"`
	Batch           string     `json:"batch"`
	VeterinarianID  int64      `json:"veterinarian_id"`
	Observations    string     `json:"observations"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Hospitalization queda abierta mientras ExitDate sea nil.
type Hospitalization struct {
	ID             int64      `json:"id"`
	AnimalID       int64      `json:"animal_id"`
	EntryDate      time.Time  `json:"entry_date"`
	ExitDate       *time.Time `json:"exit_date,omitempty"`
	Reason         string     `json:"reason"`
	Diagnosis      string     `json:"diagnosis"`
	Treatment      string     `json:"treatment"`
	Procedures     string     `json:"procedures"`
	Observations   string     `json:"observations"`
	ExitStatus     string     `json:"exit_status"`
	VeterinarianID int64      `json:"veterinarian_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (h Hospitalization) Open() bool {
	return h.ExitDate == nil
}

type Procedure struct {
	ID             int64     `json:"id"`
	AnimalID       int64     `json:"animal_id"`
	AnimalName     string    `json:"animal_name,omitempty"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Observations   string    `json:"observations"`
	VeterinarianID int64     `json:"veterinarian_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProcedureFilter filtra la agenda de consultas; fechas inclusivas.
type ProcedureFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}
