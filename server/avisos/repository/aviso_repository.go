package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xdie/clasificados/server/avisos/domain"
)

type AvisoRepository struct {
	pool *pgxpool.Pool
}

func NewAvisoRepository(pool *pgxpool.Pool) *AvisoRepository {
	return &AvisoRepository{pool: pool}
}

// EnsureSchema provisions the avisos table. Run once at startup.
func (r *AvisoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS avisos(
			seq         BIGSERIAL,
			id          UUID PRIMARY KEY,
			titulo      TEXT NOT NULL,
			telefono    TEXT NOT NULL,
			descripcion TEXT NOT NULL,
			categoria   TEXT NOT NULL,
			etiqueta    TEXT NOT NULL DEFAULT '',
			precio      DOUBLE PRECISION NOT NULL DEFAULT 0,
			fotos       TEXT[] NOT NULL DEFAULT '{}',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure avisos schema: %w", err)
	}
	return nil
}

func (r *AvisoRepository) Create(ctx context.Context, item domain.Aviso) (domain.Aviso, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO avisos(id, titulo, telefono, descripcion, categoria, etiqueta, precio, fotos)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, item.ID, item.Titulo, item.Telefono, item.Descripcion, item.Categoria, item.Etiqueta, item.Precio, item.Fotos).Scan(&item.CreatedAt)
	if err != nil {
		return domain.Aviso{}, fmt.Errorf("%w: insert aviso: %v", domain.ErrPersistence, err)
	}
	return item, nil
}

// List returns every aviso in insertion order. No pagination.
func (r *AvisoRepository) List(ctx context.Context) ([]domain.Aviso, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, titulo, telefono, descripcion, categoria, etiqueta, precio, fotos, created_at
		FROM avisos
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list avisos: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	items := make([]domain.Aviso, 0)
	for rows.Next() {
		var item domain.Aviso
		if err := rows.Scan(&item.ID, &item.Titulo, &item.Telefono, &item.Descripcion, &item.Categoria, &item.Etiqueta, &item.Precio, &item.Fotos, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan aviso: %v", domain.ErrPersistence, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list avisos: %v", domain.ErrPersistence, err)
	}
	return items, nil
}
