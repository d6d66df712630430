package domain

import "errors"

var (
	// ErrEmptyBatch is returned when an ingestion call carries no files.
	ErrEmptyBatch = errors.New("empty upload batch")
	// ErrStorage covers directory provisioning and file write failures.
	ErrStorage = errors.New("storage failure")
	// ErrDerivation is returned when the source bytes are not a decodable image.
	ErrDerivation = errors.New("thumbnail derivation failure")
	// ErrIngestion wraps the first storage or derivation failure in a batch.
	ErrIngestion = errors.New("ingestion failure")
	// ErrValidation is returned when a required listing field is missing.
	ErrValidation = errors.New("validation failure")
	// ErrPersistence covers repository write failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)
