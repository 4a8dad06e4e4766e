package pipeline

import "fmt"

// ErrorKind classifies a stage failure. Only KindSourceUnreachable aborts a
// batch; every other kind degrades to a per-record failure.
type ErrorKind string

const (
	KindSourceUnreachable      ErrorKind = "source_unreachable"
	KindRecordMalformed        ErrorKind = "record_malformed"
	KindValidationFailed       ErrorKind = "validation_failed"
	KindEnhancementUnavailable ErrorKind = "enhancement_unavailable"
	KindPersistenceConflict    ErrorKind = "persistence_conflict"
	KindSystemFailure          ErrorKind = "system_failure"
)

// StageError is a classified failure tied to a pipeline stage and, when
// known, a record.
type StageError struct {
	Kind   ErrorKind
	Stage  string
	DataID string
	Err    error
}

func (e *StageError) Error() string {
	if e.DataID != "" {
		return fmt.Sprintf("%s [%s] %s: %v", e.Stage, e.Kind, e.DataID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(kind ErrorKind, stage, dataID string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, DataID: dataID, Err: err}
}
