package media

import "time"

type Kind string

const (
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

const (
	// DefaultPhotoMimetype aplica a fotos cargadas antes de guardar el tipo.
	DefaultPhotoMimetype    = "image/jpeg"
	DefaultDocumentMimetype = "application/octet-stream"
)

// Item es la metadata de un archivo, sin el contenido.
type Item struct {
	ID          int64     `json:"id"`
	AnimalID    int64     `json:"animal_id"`
	Kind        Kind      `json:"kind"`
	Description string    `json:"description"`
	Mimetype    *string   `json:"mimetype,omitempty"`
	Filename    *string   `json:"filename,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  int64     `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Blob es un archivo completo.
type Blob struct {
	Item
	Data []byte `json:"-"`
}

// LibraryEntry es un documento en la biblioteca general.
type LibraryEntry struct {
	Item
	AnimalName string `json:"animal_name"`
}

// LibraryFilter busca por nombre de archivo o descripción.
type LibraryFilter struct {
	Query string
	Limit int
}
