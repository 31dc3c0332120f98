package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSweepID is the standardized structured logging key for sweep run identifiers.
	FieldSweepID = "sweep_id"
	// FieldIdentifier is the standardized structured logging key for application identifiers.
	FieldIdentifier = "identifier"
)
