package domain

import "time"

// Aviso is a classified ad. Fotos holds the thumbnail paths returned by a
// prior upload call; the repository does not verify they exist on disk.
type Aviso struct {
	ID          string    `json:"id"`
	Titulo      string    `json:"titulo"`
	Telefono    string    `json:"telefono"`
	Descripcion string    `json:"descripcion"`
	Categoria   string    `json:"categoria"`
	Etiqueta    string    `json:"etiqueta"`
	Precio      float64   `json:"precio"`
	Fotos       []string  `json:"fotos"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadedFile is the transient input to the ingestion pipeline. It is
// consumed once and never persisted as-is.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// StoredImage pairs the relative paths assigned to one accepted file.
type StoredImage struct {
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
}

// Manifest is the ordered result of one ingestion call, one entry per
// accepted file, in input order.
type Manifest []StoredImage
