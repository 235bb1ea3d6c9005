package repository

import (
	"database/sql"
	"errors"

	"github.com/maplewood-pta/carpool-manager/backend/internal/config"
)

// ErrNotFound is returned when a requested record does not exist, regardless
// of the backing store.
var ErrNotFound = errors.New("record not found")

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
