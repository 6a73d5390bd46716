package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// ErrorUnknownFrequency is returned when a recurring rule carries a
	// frequency value the generator does not recognize. Callers must not
	// advance the rule's schedule in that case.
	ErrorUnknownFrequency = errors.New("unknown recurrence frequency")

	// ErrorArchivedAccount rejects postings against archived accounts.
	ErrorArchivedAccount = errors.New("account is archived")
)
