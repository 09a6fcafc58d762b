package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"shelter-clinical-records/internal/domain/media"
)

type MediaRepo struct {
	db *DB
}

func NewMediaRepo(db *DB) *MediaRepo {
	return &MediaRepo{db: db}
}

func mediaTable(kind media.Kind) (string, error) {
	switch kind {
	case media.KindPhoto:
		return "animal_photos", nil
	case media.KindDocument:
		return "animal_documents", nil
	default:
		return "", fmt.Errorf("sqlstore: unknown media kind %q", kind)
	}
}

const mediaColumns = `f.id, f.animal_id, f.description, f.mimetype, f.filename, f.size_bytes, f.uploaded_by, f.uploaded_at`

func (r *MediaRepo) Add(ctx context.Context, b media.Blob) (int64, error) {
	table, err := mediaTable(b.Kind)
	if err != nil {
		return 0, err
	}
	return r.db.conn().insert(ctx, `
		INSERT INTO `+table+` (
			animal_id, data, description, mimetype, filename, search_key, size_bytes, uploaded_by, uploaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		b.AnimalID,
		b.Data,
		b.Description,
		toNullString(b.Mimetype),
		toNullString(b.Filename),
		mediaSearchKey(b.Item),
		b.SizeBytes,
		b.UploadedBy,
		b.UploadedAt.UTC(),
	)
}

func (r *MediaRepo) Get(ctx context.Context, kind media.Kind, animalID, id int64) (media.Blob, error) {
	table, err := mediaTable(kind)
	if err != nil {
		return media.Blob{}, err
	}
	row := r.db.conn().queryRow(ctx, `
		SELECT `+mediaColumns+`, f.data
		FROM `+table+` f
		WHERE f.id = ? AND f.animal_id = ?
	`, id, animalID)

	var b media.Blob
	item, err := scanMediaItem(row, kind, &b.Data)
	if err != nil {
		return media.Blob{}, mapErr(err)
	}
	b.Item = item
	return b, nil
}

func (r *MediaRepo) List(ctx context.Context, kind media.Kind, animalID int64) ([]media.Item, error) {
	table, err := mediaTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.conn().query(ctx, `
		SELECT `+mediaColumns+`
		FROM `+table+` f
		WHERE f.animal_id = ?
		ORDER BY f.uploaded_at DESC, f.id DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]media.Item, 0)
	for rows.Next() {
		item, err := scanMediaItem(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Library lista documentos de todos los animales; q matchea filename o descripción.
func (r *MediaRepo) Library(ctx context.Context, f media.LibraryFilter) ([]media.LibraryEntry, error) {
	q := `
		SELECT ` + mediaColumns + `, a.name
		FROM animal_documents f
		JOIN animals a ON a.id = f.animal_id`
	var args []any
	if f.Query != "" {
		q += ` WHERE f.search_key LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Query))
	}
	q += ` ORDER BY f.uploaded_at DESC, f.id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.conn().query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]media.LibraryEntry, 0)
	for rows.Next() {
		var e media.LibraryEntry
		item, err := scanMediaItem(rows, media.KindDocument, &e.AnimalName)
		if err != nil {
			return nil, err
		}
		e.Item = item
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanMediaItem(s scanner, kind media.Kind, extra ...any) (media.Item, error) {
	var it media.Item
	var mt, name sql.NullString
	dest := []any{
		&it.ID,
		&it.AnimalID,
		&it.Description,
		&mt,
		&name,
		&it.SizeBytes,
		&it.UploadedBy,
		&it.UploadedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return media.Item{}, err
	}
	it.Kind = kind
	it.Mimetype = fromNullString(mt)
	it.Filename = fromNullString(name)
	it.UploadedAt = it.UploadedAt.UTC()
	return it, nil
}

// mediaSearchKey junta filename y descripción plegados; el salto de línea evita
// matches que crucen de un campo al otro.
func mediaSearchKey(it media.Item) string {
	name := ""
	if it.Filename != nil {
		name = *it.Filename
	}
	return foldKey(name) + "\n" + foldKey(it.Description)
}
