package pharmacy

import "time"

// Medication es una entrada del inventario. El nombre es único sin distinguir mayúsculas.
type Medication struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	StockQuantity float64   `json:"stock_quantity"`
	Unit          string    `json:"unit"`
	MinStock      float64   `json:"min_stock"`
	CreatedAt     time.Time `json:"created_at"`
}

func (m Medication) LowStock() bool {
	return m.StockQuantity <= m.MinStock
}

// Status de una receta.
// @Enum active, suspended, completed
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusActive, StatusSuspended, StatusCompleted}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended || s == StatusCompleted
}

// Prescription (receita) vincula un animal con un medicamento.
type Prescription struct {
	ID             int64      `json:"id"`
	AnimalID       int64      `json:"animal_id"`
	MedicationID   int64      `json:"medication_id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	Frequency      string     `json:"frequency"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         Status     `json:"status"`
	Observations   string     `json:"observations"`
	PrescribedBy   int64      `json:"prescribed_by"`
	CreatedAt      time.Time  `json:"created_at"`
}
