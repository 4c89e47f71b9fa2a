package models

import "errors"

var (
	// ErrValidation marks incomplete user input. Nothing has been sent to a backend.
	ErrValidation = errors.New("validation error")

	// ErrExtraction marks a document no text could be extracted from.
	ErrExtraction = errors.New("extraction failure")

	// ErrBackendUnavailable marks an embedding, vector store or LLM call that failed.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
