package services

import "errors"

var (
	// ErrUnparsableRecord marks an audit description or timestamp that does
	// not match the expected shape. Hydration skips the record and continues.
	ErrUnparsableRecord = errors.New("unparsable transaction record")

	// ErrUnknownState rejects a state change referencing a state id absent
	// from the canonical list. No writes are performed.
	ErrUnknownState = errors.New("unknown state")

	// ErrInvalidArgument rejects malformed caller input before any store
	// access, such as a workflow instance id that is not a UUID.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrHistoryWriteFailed reports a partially applied state change: the
	// current-state write succeeded but the audit append failed. Callers
	// reconcile via AppendMissingHistory rather than retrying the whole change.
	ErrHistoryWriteFailed = errors.New("state updated, history write failed")
)
