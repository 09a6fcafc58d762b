package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"shelter-clinical-records/internal/domain/pharmacy"
	"shelter-clinical-records/internal/platform/apperr"
)

type PharmacyRepo struct {
	db *DB
}

func NewPharmacyRepo(db *DB) *PharmacyRepo {
	return &PharmacyRepo{db: db}
}

const medicationColumns = `id, name, stock_quantity, unit, min_stock, created_at`

// Prescribe hace find-or-create del medicamento e inserta la receta en una transacción.
// El índice único sobre name_key resuelve la carrera entre dos altas simultáneas:
// la que pierde no inserta y relee la fila ganadora.
func (r *PharmacyRepo) Prescribe(ctx context.Context, medicationName string, rx pharmacy.Prescription) (pharmacy.Prescription, bool, error) {
	var created bool
	err := r.db.inTx(ctx, func(c conn) error {
		med, isNew, err := findOrCreateMedication(ctx, c, pharmacy.Medication{Name: medicationName, CreatedAt: rx.CreatedAt})
		if err != nil {
			return err
		}
		created = isNew
		rx.MedicationID = med.ID
		rx.MedicationName = med.Name

		rx.ID, err = c.insert(ctx, `
			INSERT INTO animal_medications (
				animal_id, medication_id, dosage, frequency, start_date, end_date,
				status, observations, prescribed_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			rx.AnimalID,
			rx.MedicationID,
			rx.Dosage,
			rx.Frequency,
			rx.StartDate.UTC(),
			toNullTime(rx.EndDate),
			string(rx.Status),
			rx.Observations,
			rx.PrescribedBy,
			rx.CreatedAt.UTC(),
		)
		return err
	})
	if err != nil {
		return pharmacy.Prescription{}, false, err
	}
	return rx, created, nil
}

func (r *PharmacyRepo) GetPrescription(ctx context.Context, animalID, id int64) (pharmacy.Prescription, error) {
	row := r.db.conn().queryRow(ctx, prescriptionSelect+`
		WHERE am.id = ? AND am.animal_id = ?
	`, id, animalID)
	rx, err := scanPrescription(row)
	if err != nil {
		return pharmacy.Prescription{}, mapErr(err)
	}
	return rx, nil
}

func (r *PharmacyRepo) SetPrescriptionStatus(ctx context.Context, animalID, id int64, status pharmacy.Status) error {
	res, err := r.db.conn().exec(ctx, `
		UPDATE animal_medications SET status = ? WHERE id = ? AND animal_id = ?
	`, string(status), id, animalID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PharmacyRepo) ListPrescriptions(ctx context.Context, animalID int64) ([]pharmacy.Prescription, error) {
	rows, err := r.db.conn().query(ctx, prescriptionSelect+`
		WHERE am.animal_id = ?
		ORDER BY am.start_date DESC, am.id DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pharmacy.Prescription, 0)
	for rows.Next() {
		rx, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rx)
	}
	return out, rows.Err()
}

func (r *PharmacyRepo) ListMedications(ctx context.Context) ([]pharmacy.Medication, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		ORDER BY name_key, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMedications(rows)
}

func (r *PharmacyRepo) UpsertMedication(ctx context.Context, m pharmacy.Medication) (pharmacy.Medication, error) {
	var out pharmacy.Medication
	err := r.db.inTx(ctx, func(c conn) error {
		med, _, err := findOrCreateMedication(ctx, c, m)
		if err != nil {
			return err
		}
		if _, err := c.exec(ctx, `
			UPDATE medications SET stock_quantity = ?, unit = ?, min_stock = ? WHERE id = ?
		`, m.StockQuantity, m.Unit, m.MinStock, med.ID); err != nil {
			return err
		}
		med.StockQuantity = m.StockQuantity
		med.Unit = m.Unit
		med.MinStock = m.MinStock
		out = med
		return nil
	})
	if err != nil {
		return pharmacy.Medication{}, err
	}
	return out, nil
}

// findOrCreateMedication busca por name_key; si no existe inserta sólo el nombre.
// ON CONFLICT DO NOTHING evita abortar la transacción en Postgres si otra la creó antes.
func findOrCreateMedication(ctx context.Context, c conn, m pharmacy.Medication) (pharmacy.Medication, bool, error) {
	med, err := medicationByName(ctx, c, m.Name)
	if err == nil {
		return med, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return pharmacy.Medication{}, false, err
	}

	id, err := c.insert(ctx, `
		INSERT INTO medications (name, name_key, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id
	`, m.Name, foldKey(m.Name), m.CreatedAt.UTC())
	switch {
	case err == nil:
		return pharmacy.Medication{ID: id, Name: m.Name, CreatedAt: m.CreatedAt.UTC()}, true, nil
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrDuplicate):
		med, err := medicationByName(ctx, c, m.Name)
		return med, false, err
	default:
		return pharmacy.Medication{}, false, err
	}
}

func medicationByName(ctx context.Context, c conn, name string) (pharmacy.Medication, error) {
	row := c.queryRow(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE name_key = ?
		ORDER BY id
		LIMIT 1
	`, foldKey(name))
	m, err := scanMedication(row)
	if err != nil {
		return pharmacy.Medication{}, mapErr(err)
	}
	return m, nil
}

const prescriptionSelect = `
	SELECT am.id, am.animal_id, am.medication_id, m.name, am.dosage, am.frequency,
		am.start_date, am.end_date, am.status, am.observations, am.prescribed_by, am.created_at
	FROM animal_medications am
	JOIN medications m ON m.id = am.medication_id`

func scanPrescription(s scanner) (pharmacy.Prescription, error) {
	var rx pharmacy.Prescription
	var end sql.NullTime
	var status string
	if err := s.Scan(
		&rx.ID,
		&rx.AnimalID,
		&rx.MedicationID,
		&rx.MedicationName,
		&rx.Dosage,
		&rx.Frequency,
		&rx.StartDate,
		&end,
		&status,
		&rx.Observations,
		&rx.PrescribedBy,
		&rx.CreatedAt,
	); err != nil {
		return pharmacy.Prescription{}, err
	}
	rx.StartDate = rx.StartDate.UTC()
	rx.EndDate = fromNullTime(end)
	rx.Status = pharmacy.Status(status)
	rx.CreatedAt = rx.CreatedAt.UTC()
	return rx, nil
}

func scanMedication(s scanner) (pharmacy.Medication, error) {
	var m pharmacy.Medication
	if err := s.Scan(
		&m.ID,
		&m.Name,
		&m.StockQuantity,
		&m.Unit,
		&m.MinStock,
		&m.CreatedAt,
	); err != nil {
		return pharmacy.Medication{}, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func scanMedications(rows *sql.Rows) ([]pharmacy.Medication, error) {
	out := make([]pharmacy.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
