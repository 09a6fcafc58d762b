package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"shelter-clinical-records/internal/domain/animals"
	"shelter-clinical-records/internal/platform/apperr"
)

type AnimalsRepo struct {
	db *DB
}

func NewAnimalsRepo(db *DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `
	a.id, a.name, a.species, a.breed, a.age, a.sex, a.chip_id, a.status,
	a.description, a.characteristics, (a.photo IS NOT NULL), a.entry_date, a.updated_at, a.created_by`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal, photo *animals.Photo) (int64, error) {
	var data []byte
	var mt sql.NullString
	if photo != nil {
		data = photo.Data
		mt = sql.NullString{String: photo.Mimetype, Valid: photo.Mimetype != ""}
	}

	return r.db.conn().insert(ctx, `
		INSERT INTO animals (
			name, name_key, species, breed, age, sex, chip_id, status,
			photo, photo_mimetype, description, characteristics,
			entry_date, updated_at, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		a.Name,
		foldKey(a.Name),
		a.Species,
		a.Breed,
		toNullInt(a.Age),
		string(a.Sex),
		toNullString(a.ChipID),
		string(a.Status),
		data,
		mt,
		a.Description,
		a.Characteristics,
		a.EntryDate.UTC(),
		a.UpdatedAt.UTC(),
		toNullID(a.CreatedBy),
	)
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.conn().exec(ctx, `
		UPDATE animals
		SET
			name = ?,
			name_key = ?,
			species = ?,
			breed = ?,
			age = ?,
			sex = ?,
			chip_id = ?,
			status = ?,
			description = ?,
			characteristics = ?,
			entry_date = ?,
			updated_at = ?
		WHERE id = ?
	`,
		a.Name,
		foldKey(a.Name),
		a.Species,
		a.Breed,
		toNullInt(a.Age),
		string(a.Sex),
		toNullString(a.ChipID),
		string(a.Status),
		a.Description,
		a.Characteristics,
		a.EntryDate.UTC(),
		a.UpdatedAt.UTC(),
		a.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(res)
}

func (r *AnimalsRepo) SetPhoto(ctx context.Context, id int64, p animals.Photo) error {
	res, err := r.db.conn().exec(ctx, `
		UPDATE animals SET photo = ?, photo_mimetype = ? WHERE id = ?
	`, p.Data, sql.NullString{String: p.Mimetype, Valid: p.Mimetype != ""}, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	row := r.db.conn().queryRow(ctx, `SELECT `+animalColumns+` FROM animals a WHERE a.id = ?`, id)
	a, err := scanAnimal(row)
	if err != nil {
		return animals.Animal{}, mapErr(err)
	}
	return a, nil
}

func (r *AnimalsRepo) GetPhoto(ctx context.Context, id int64) (animals.Photo, error) {
	var data []byte
	var mt sql.NullString
	err := r.db.conn().queryRow(ctx, `SELECT photo, photo_mimetype FROM animals WHERE id = ?`, id).Scan(&data, &mt)
	if err != nil {
		return animals.Photo{}, mapErr(err)
	}
	if len(data) == 0 {
		return animals.Photo{}, apperr.ErrNotFound
	}
	return animals.Photo{Data: data, Mimetype: mt.String}, nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn().exec(ctx, `DELETE FROM animals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *AnimalsRepo) ListActive(ctx context.Context) ([]animals.Summary, error) {
	rows, err := r.db.conn().query(ctx, `
		SELECT `+animalColumns+`,
			(SELECT COUNT(*) FROM health_records h WHERE h.animal_id = a.id),
			(SELECT COUNT(*) FROM vaccines v WHERE v.animal_id = a.id)
		FROM animals a
		WHERE a.status NOT IN (?, ?)
		ORDER BY a.entry_date DESC, a.id DESC
	`, string(animals.StatusAdopted), string(animals.StatusDeceased))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Summary, 0)
	for rows.Next() {
		var s animals.Summary
		a, err := scanAnimal(rows, &s.RecordsCount, &s.VaccinesCount)
		if err != nil {
			return nil, err
		}
		s.Animal = a
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Search(ctx context.Context, f animals.SearchFilter) ([]animals.Animal, error) {
	var where []string
	var args []any
	if f.Query != "" {
		where = append(where, `a.name_key LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Query))
	}
	if f.Species != "" {
		where = append(where, `a.species = ?`)
		args = append(args, strings.ToLower(f.Species))
	}
	if f.Status != "" {
		where = append(where, `a.status = ?`)
		args = append(args, string(f.Status))
	}

	q := `SELECT ` + animalColumns + ` FROM animals a`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY a.entry_date DESC, a.id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.conn().query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAnimal lee animalColumns y, a continuación, las columnas extra.
func scanAnimal(s scanner, extra ...any) (animals.Animal, error) {
	var a animals.Animal
	var age sql.NullInt64
	var chip sql.NullString
	var sex, status string
	var createdBy sql.NullInt64

	dest := []any{
		&a.ID,
		&a.Name,
		&a.Species,
		&a.Breed,
		&age,
		&sex,
		&chip,
		&status,
		&a.Description,
		&a.Characteristics,
		&a.HasPhoto,
		&a.EntryDate,
		&a.UpdatedAt,
		&createdBy,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return animals.Animal{}, err
	}

	a.Age = fromNullInt(age)
	a.ChipID = fromNullString(chip)
	a.Sex = animals.Sex(sex)
	a.Status = animals.Status(status)
	a.EntryDate = a.EntryDate.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	a.CreatedBy = createdBy.Int64
	return a, nil
}
