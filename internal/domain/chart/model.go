package chart

import (
	"time"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/media"
	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/domain/records"
)

// VetChart es la ficha clínica completa. HealthRecords solo se llena en el historial.
type VetChart struct {
	Animal           animals.Animal            `json:"animal"`
	Current          *records.HealthRecord     `json:"current_health_record"`
	HealthRecords    []records.HealthRecord    `json:"health_records,omitempty"`
	Vaccines         []records.Vaccine         `json:"vaccines"`
	Hospitalizations []records.Hospitalization `json:"hospitalizations"`
	Procedures       []records.Procedure       `json:"procedures"`
	Prescriptions    []pharmacy.Prescription   `json:"prescriptions"`
	Medications      []pharmacy.Medication     `json:"medications"`
	Documents        []media.Item              `json:"documents"`
	Photos           []media.Item              `json:"photos"`
}

// ViewerChart es lo que ve el rol de lectura.
type ViewerChart struct {
	Animal  animals.Animal        `json:"animal"`
	Current *records.HealthRecord `json:"current_health_record"`
	Photos  []media.Item          `json:"photos"`
}

// EntryKind clasifica los registros firmados por un usuario.
type EntryKind string

const (
	EntryHealthRecord    EntryKind = "health_record"
	EntryVaccine         EntryKind = "vaccine"
	EntryHospitalization EntryKind = "hospitalization"
	EntryProcedure       EntryKind = "procedure"
	EntryPrescription    EntryKind = "prescription"
	EntryDocument        EntryKind = "document"
	EntryPhoto           EntryKind = "photo"
)

var EntryKinds = []EntryKind{
	EntryHealthRecord,
	EntryVaccine,
	EntryHospitalization,
	EntryProcedure,
	EntryPrescription,
	EntryDocument,
	EntryPhoto,
}

type AuthoredEntry struct {
	Kind       EntryKind `json:"kind"`
	ID         int64     `json:"id"`
	AnimalID   int64     `json:"animal_id"`
	AnimalName string    `json:"animal_name"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
}

// Authored agrupa por tipo; cada lista va más reciente primero.
type Authored map[EntryKind][]AuthoredEntry

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type OpenHospitalization struct {
	ID         int64     `json:"id"`
	AnimalID   int64     `json:"animal_id"`
	AnimalName string    `json:"animal_name"`
	EntryDate  time.Time `json:"entry_date"`
	Reason     string    `json:"reason"`
}

type DueVaccine struct {
	ID         int64     `json:"id"`
	AnimalID   int64     `json:"animal_id"`
	AnimalName string    `json:"animal_name"`
	Name       string    `json:"name"`
	NextDose   time.Time `json:"next_dose"`
}

type Report struct {
	ByStatus             []Count               `json:"by_status"`
	BySpecies            []Count               `json:"by_species"`
	OpenHospitalizations []OpenHospitalization `json:"open_hospitalizations"`
	LowStock             []pharmacy.Medication `json:"low_stock"`
	VaccinesDue          []DueVaccine          `json:"vaccines_due"`
	GeneratedAt          time.Time             `json:"generated_at"`
}
