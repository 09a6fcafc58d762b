package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/domain/records"
)

type RecordsRepo struct {
	db *DB
}

func NewRecordsRepo(db *DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

// --- health records ---

const healthRecordColumns = `id, animal_id, weight, body_condition, observations, allergies, created_by, created_at, updated_at`

func (r *RecordsRepo) AddHealthRecord(ctx context.Context, h records.HealthRecord) (int64, error) {
	return r.db.conn().insert(ctx, `
		INSERT INTO health_records (
			animal_id, weight, body_condition, observations, allergies,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		h.AnimalID,
		toNullFloat(h.Weight),
		h.BodyCondition,
		h.Observations,
		h.Allergies,
		h.CreatedBy,
		h.CreatedAt.UTC(),
		h.UpdatedAt.UTC(),
	)
}

func (r *RecordsRepo) CurrentHealthRecord(ctx context.Context, animalID int64) (records.HealthRecord, error) {
	row := r.db.conn().queryRow(ctx, `
		SELECT `+healthRecordColumns+`
		FROM health_records
		WHERE animal_id = ?
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`, animalID)
	h, err := scanHealthRecord(row)
	if err != nil {
		return records.HealthRecord{}, mapErr(err)
	}
	return h, nil
}

func (r *RecordsRepo) ListHealthRecords(ctx context.Context, animalID int64) ([]records.HealthRecord, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT `+healthRecordColumns+`
		FROM health_records
		WHERE animal_id = ?
		ORDER BY updated_at DESC, id DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.HealthRecord, 0)
	for rows.Next() {
		h, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHealthRecord(s scanner) (records.HealthRecord, error) {
	var h records.HealthRecord
	var weight sql.NullFloat64
	if err := s.Scan(
		&h.ID,
		&h.AnimalID,
		&weight,
		&h.BodyCondition,
		&h.Observations,
		&h.Allergies,
		&h.CreatedBy,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return records.HealthRecord{}, err
	}
	h.Weight = fromNullFloat(weight)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return h, nil
}

// --- vaccines ---

func (r *RecordsRepo) AddVaccine(ctx context.Context, v records.Vaccine) (int64, error) {
	return r.db.conn().insert(ctx, `
		INSERT INTO vaccines (
			animal_id, name, application_date, next_dose, batch,
			veterinarian_id, observations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		v.AnimalID,
		v.Name,
		v.ApplicationDate.UTC(),
		toNullTime(v.NextDose),
		v.Batch,
		v.VeterinarianID,
		v.Observations,
		v.CreatedAt.UTC(),
	)
}

func (r *RecordsRepo) ListVaccines(ctx context.Context, animalID int64) ([]records.Vaccine, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT id, animal_id, name, application_date, next_dose, batch,
			veterinarian_id, observations, created_at
		FROM vaccines
		WHERE animal_id = ?
		ORDER BY application_date DESC, id DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Vaccine, 0)
	for rows.Next() {
		var v records.Vaccine
		var next sql.NullTime
		if err := rows.Scan(
			&v.ID,
			&v.AnimalID,
			&v.Name,
			&v.ApplicationDate,
			&next,
			&v.Batch,
			&v.VeterinarianID,
			&v.Observations,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		v.ApplicationDate = v.ApplicationDate.UTC()
		v.NextDose = fromNullTime(next)
		v.CreatedAt = v.CreatedAt.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- hospitalizations ---

const hospitalizationColumns = `id, animal_id, entry_date, exit_date, reason, diagnosis, treatment,
	procedures, observations, exit_status, veterinarian_id, created_at`

// Admit inserta la internación y fuerza el status en la misma transacción.
func (r *RecordsRepo) Admit(ctx context.Context, h records.Hospitalization) (int64, error) {
	var id int64
	err := r.db.inTx(ctx, func(c conn) error {
		res, err := c.exec(ctx, `UPDATE animals SET status = ?, updated_at = ? WHERE id = ?`,
			string(animals.StatusHospital), h.CreatedAt.UTC(), h.AnimalID)
		if err != nil {
			return err
		}
		if err := expectOne(res); err != nil {
			return err
		}

		id, err = c.insert(ctx, `
			INSERT INTO hospitalizations (
				animal_id, entry_date, exit_date, reason, diagnosis, treatment,
				procedures, observations, exit_status, veterinarian_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`,
			h.AnimalID,
			h.EntryDate.UTC(),
			toNullTime(h.ExitDate),
			h.Reason,
			h.Diagnosis,
			h.Treatment,
			h.Procedures,
			h.Observations,
			h.ExitStatus,
			h.VeterinarianID,
			h.CreatedAt.UTC(),
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *RecordsRepo) GetHospitalization(ctx context.Context, animalID, id int64) (records.Hospitalization, error) {
	row := r.db.conn().queryRow(ctx, `
		SELECT `+hospitalizationColumns+`
		FROM hospitalizations
		WHERE id = ? AND animal_id = ?
	`, id, animalID)
	h, err := scanHospitalization(row)
	if err != nil {
		return records.Hospitalization{}, mapErr(err)
	}
	return h, nil
}

func (r *RecordsRepo) Discharge(ctx context.Context, h records.Hospitalization) error {
	res, err := r.db.conn().exec(ctx, `
		UPDATE hospitalizations
		SET exit_date = ?, exit_status = ?, observations = ?
		WHERE id = ? AND animal_id = ? AND exit_date IS NULL
	`,
		toNullTime(h.ExitDate),
		h.ExitStatus,
		h.Observations,
		h.ID,
		h.AnimalID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *RecordsRepo) ListHospitalizations(ctx context.Context, animalID int64) ([]records.Hospitalization, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT `+hospitalizationColumns+`
		FROM hospitalizations
		WHERE animal_id = ?
		ORDER BY entry_date DESC, id DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Hospitalization, 0)
	for rows.Next() {
		h, err := scanHospitalization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHospitalization(s scanner) (records.Hospitalization, error) {
	var h records.Hospitalization
	var exit sql.NullTime
	if err := s.Scan(
		&h.ID,
		&h.AnimalID,
		&h.EntryDate,
		&exit,
		&h.Reason,
		&h.Diagnosis,
		&h.Treatment,
		&h.Procedures,
		&h.Observations,
		&h.ExitStatus,
		&h.VeterinarianID,
		&h.CreatedAt,
	); err != nil {
		return records.Hospitalization{}, err
	}
	h.EntryDate = h.EntryDate.UTC()
	h.ExitDate = fromNullTime(exit)
	h.CreatedAt = h.CreatedAt.UTC()
	return h, nil
}

// --- procedures ---

func (r *RecordsRepo) AddProcedure(ctx context.Context, p records.Procedure) (int64, error) {
	return r.db.conn().insert(ctx, `
		INSERT INTO procedures (
			animal_id, name, procedure_date, description, observations,
			veterinarian_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		p.AnimalID,
		p.Name,
		p.Date.UTC(),
		p.Description,
		p.Observations,
		p.VeterinarianID,
		p.CreatedAt.UTC(),
	)
}

func (r *RecordsRepo) ListProcedures(ctx context.Context, animalID int64) ([]records.Procedure, error) {
	return r.listProcedures(ctx, `WHERE p.animal_id = ?`, []any{animalID}, 0)
}

// ListRecentProcedures es la agenda de consultas: todos los animales, rango opcional.
func (r *RecordsRepo) ListRecentProcedures(ctx context.Context, f records.ProcedureFilter) ([]records.Procedure, error) {
	var where []string
	var args []any
	if f.From != nil {
		where = append(where, `p.procedure_date >= ?`)
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, `p.procedure_date <= ?`)
		args = append(args, f.To.UTC())
	}
	clause := ""
	if len(where) > 0 {
		clause = `WHERE ` + strings.Join(where, ` AND `)
	}
	return r.listProcedures(ctx, clause, args, f.Limit)
}

func (r *RecordsRepo) listProcedures(ctx context.Context, where string, args []any, limit int) ([]records.Procedure, error) {
	q := `
		SELECT p.id, p.animal_id, a.name, p.name, p.procedure_date, p.description,
			p.observations, p.veterinarian_id, p.created_at
		FROM procedures p
		JOIN animals a ON a.id = p.animal_id
		` + where + `
		ORDER BY p.procedure_date DESC, p.id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.conn().query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Procedure, 0)
	for rows.Next() {
		var p records.Procedure
		if err := rows.Scan(
			&p.ID,
			&p.AnimalID,
			&p.AnimalName,
			&p.Name,
			&p.Date,
			&p.Description,
			&p.Observations,
			&p.VeterinarianID,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Date = p.Date.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
