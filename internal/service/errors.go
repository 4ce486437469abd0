package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a stored document does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFileType is returned when a loaded file is neither JSON nor CSV
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrInvalidDocument is returned when file content is not a quote document
	ErrInvalidDocument = errors.New("file content is not in a valid quote format")

	// ErrNoStrategy is returned when the current product has no pricing strategy
	ErrNoStrategy = errors.New("product strategy not provided")

	// ErrDistributionMismatch is returned when distributed quantities do not add up to the total
	ErrDistributionMismatch = errors.New("distribution does not match total")

	// ErrInvalidQuantity is returned for negative distribution quantities
	ErrInvalidQuantity = errors.New("quantities must be positive numbers")

	// ErrNothingToSave is returned when the quote holds no user data
	ErrNothingToSave = errors.New("quote has no data to save")

	// ErrConfirmationRequired is returned when an operation would discard data and was not confirmed
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrDualOddCount is returned when an odd number of rows carry a dual bracket
	ErrDualOddCount = errors.New("the total count of Dual Brackets (D) must be an even number")

	// ErrDualNotAdjacent is returned when dual brackets are not set on adjacent rows
	ErrDualNotAdjacent = errors.New("dual Brackets (D) must be set on adjacent items")

	// ErrInvalidChain is returned for chain lengths that are not positive integers
	ErrInvalidChain = errors.New("only positive integers are allowed")

	// ErrNoTarget is returned when an input is committed without a target cell
	ErrNoTarget = errors.New("no target cell selected")
)
