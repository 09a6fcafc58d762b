package sqlstore

import (
	"context"
	"fmt"
	"time"

	"shelter-clinical-records/internal/domain/chart"
	"shelter-clinical-records/internal/domain/pharmacy"
)

type ChartRepo struct {
	db *DB
}

func NewChartRepo(db *DB) *ChartRepo {
	return &ChartRepo{db: db}
}

// authoredQueries: id, animal_id, nombre del animal, título y fecha, filtrado por autor.
var authoredQueries = map[chart.EntryKind]string{
	chart.EntryHealthRecord: `
		SELECT x.id, x.animal_id, a.name, x.body_condition, x.updated_at
		FROM health_records x JOIN animals a ON a.id = x.animal_id
		WHERE x.created_by = ?
		ORDER BY x.updated_at DESC, x.id DESC`,
	chart.EntryVaccine: `
		SELECT x.id, x.animal_id, a.name, x.name, x.application_date
		FROM vaccines x JOIN animals a ON a.id = x.animal_id
		WHERE x.veterinarian_id = ?
		ORDER BY x.application_date DESC, x.id DESC`,
	chart.EntryHospitalization: `
		SELECT x.id, x.animal_id, a.name, x.reason, x.entry_date
		FROM hospitalizations x JOIN animals a ON a.id = x.animal_id
		WHERE x.veterinarian_id = ?
		ORDER BY x.entry_date DESC, x.id DESC`,
	chart.EntryProcedure: `
		SELECT x.id, x.animal_id, a.name, x.name, x.procedure_date
		FROM procedures x JOIN animals a ON a.id = x.animal_id
		WHERE x.veterinarian_id = ?
		ORDER BY x.procedure_date DESC, x.id DESC`,
	chart.EntryPrescription: `
		SELECT x.id, x.animal_id, a.name, m.name, x.start_date
		FROM animal_medications x
		JOIN animals a ON a.id = x.animal_id
		JOIN medications m ON m.id = x.medication_id
		WHERE x.prescribed_by = ?
		ORDER BY x.start_date DESC, x.id DESC`,
	chart.EntryDocument: `
		SELECT x.id, x.animal_id, a.name, COALESCE(x.filename, x.description), x.uploaded_at
		FROM animal_documents x JOIN animals a ON a.id = x.animal_id
		WHERE x.uploaded_by = ?
		ORDER BY x.uploaded_at DESC, x.id DESC`,
	chart.EntryPhoto: `
		SELECT x.id, x.animal_id, a.name, COALESCE(x.filename, x.description), x.uploaded_at
		FROM animal_photos x JOIN animals a ON a.id = x.animal_id
		WHERE x.uploaded_by = ?
		ORDER BY x.uploaded_at DESC, x.id DESC`,
}

func (r *ChartRepo) Authored(ctx context.Context, userID int64, kind chart.EntryKind, limit int) ([]chart.AuthoredEntry, error) {
	q, ok := authoredQueries[kind]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unknown entry kind %q", kind)
	}
	rows, err := r.db.conn().query(ctx, q+` LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chart.AuthoredEntry, 0)
	for rows.Next() {
		e := chart.AuthoredEntry{Kind: kind}
		if err := rows.Scan(&e.ID, &e.AnimalID, &e.AnimalName, &e.Title, &e.Date); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ChartRepo) CountAnimalsByStatus(ctx context.Context) ([]chart.Count, error) {
	return r.counts(ctx, `
		SELECT status, COUNT(*) FROM animals
		GROUP BY status
		ORDER BY COUNT(*) DESC, status
	`)
}

func (r *ChartRepo) CountAnimalsBySpecies(ctx context.Context) ([]chart.Count, error) {
	return r.counts(ctx, `
		SELECT species, COUNT(*) FROM animals
		GROUP BY species
		ORDER BY COUNT(*) DESC, species
	`)
}

func (r *ChartRepo) counts(ctx context.Context, q string) ([]chart.Count, error) {
	rows, err := r.db.conn().query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chart.Count, 0)
	for rows.Next() {
		var c chart.Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChartRepo) OpenHospitalizations(ctx context.Context) ([]chart.OpenHospitalization, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT h.id, h.animal_id, a.name, h.entry_date, h.reason
		FROM hospitalizations h
		JOIN animals a ON a.id = h.animal_id
		WHERE h.exit_date IS NULL
		ORDER BY h.entry_date DESC, h.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chart.OpenHospitalization, 0)
	for rows.Next() {
		var h chart.OpenHospitalization
		if err := rows.Scan(&h.ID, &h.AnimalID, &h.AnimalName, &h.EntryDate, &h.Reason); err != nil {
			return nil, err
		}
		h.EntryDate = h.EntryDate.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *ChartRepo) LowStockMedications(ctx context.Context) ([]pharmacy.Medication, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE stock_quantity <= min_stock
		ORDER BY name_key, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMedications(rows)
}

func (r *ChartRepo) VaccinesDue(ctx context.Context, from, to time.Time) ([]chart.DueVaccine, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT v.id, v.animal_id, a.name, v.name, v.next_dose
		FROM vaccines v
		JOIN animals a ON a.id = v.animal_id
		WHERE v.next_dose IS NOT NULL AND v.next_dose >= ? AND v.next_dose <= ?
		ORDER BY v.next_dose ASC, v.id ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chart.DueVaccine, 0)
	for rows.Next() {
		var d chart.DueVaccine
		if err := rows.Scan(&d.ID, &d.AnimalID, &d.AnimalName, &d.Name, &d.NextDose); err != nil {
			return nil, err
		}
		d.NextDose = d.NextDose.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
