package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends so callers can classify
// outcomes without knowing which backend is behind the interface.
var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = goerr.New("record not found")

	// ErrQuestionExists is returned by QuestionRepository.Create when the
	// same message was already ingested. Callers treat it as a duplicate
	// delivery, not a failure.
	ErrQuestionExists = goerr.New("question already exists")
)
