package booking

import "fmt"

// FetchError is a failed read of a preload list. Callers degrade to an empty list.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("booking: load %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Stage string

const (
	StageCustomer   Stage = "customer"
	StageJob        Stage = "job"
	StageQuote      Stage = "quote"
	StageQuoteItems Stage = "quote_items"
)

// WriteError is a failed create in the submission chain. Stage names the write that failed;
// every later write was skipped.
type WriteError struct {
	Stage Stage
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("booking: create %s: %v", e.Stage, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
