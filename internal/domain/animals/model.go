package animals

import "time"

// Status es el estado del animal en el refugio.
// @Enum shelter, clinic, hospital, adopted, deceased
type Status string

const (
	StatusShelter  Status = "shelter"
	StatusClinic   Status = "clinic"
	StatusHospital Status = "hospital"
	StatusAdopted  Status = "adopted"
	StatusDeceased Status = "deceased"
)

var Statuses = []Status{StatusShelter, StatusClinic, StatusHospital, StatusAdopted, StatusDeceased}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active: sigue a cargo del refugio (no adoptado ni fallecido).
func (s Status) Active() bool {
	return s.Valid() && s != StatusAdopted && s != StatusDeceased
}

// Sex define el sexo del animal.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

var Sexes = []Sex{SexMale, SexFemale, SexUnknown}

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

// DefaultPhotoMimetype se usa para fotos legacy guardadas sin tipo.
const DefaultPhotoMimetype = "image/jpeg"

// Animal es la ficha base. La foto principal no viaja en el struct; ver Photo.
type Animal struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Species         string    `json:"species"`
	Breed           string    `json:"breed"`
	Age             *int      `json:"age,omitempty"`
	Sex             Sex       `json:"sex"`
	ChipID          *string   `json:"chip_id,omitempty"`
	Status          Status    `json:"status"`
	Description     string    `json:"description"`
	Characteristics string    `json:"characteristics"`
	HasPhoto        bool      `json:"has_photo"`
	EntryDate       time.Time `json:"entry_date"`
	UpdatedAt       time.Time `json:"updated_at"`
	CreatedBy       int64     `json:"created_by,omitempty"`
}

// Summary es la fila del dashboard veterinario.
type Summary struct {
	Animal
	RecordsCount  int `json:"records_count"`
	VaccinesCount int `json:"vaccines_count"`
}

// Photo es la foto principal (blob en la misma fila del animal).
type Photo struct {
	Data     []byte
	Mimetype string
}

type SearchFilter struct {
	Query   string
	Species string
	Status  Status
	Limit   int
}
