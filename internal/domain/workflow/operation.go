package workflow

// OperationType names one production stage a template step can require.
type OperationType string

const (
	OpForging       OperationType = "FORGING"
	OpHeatTreatment OperationType = "HEAT_TREATMENT"
	OpMachining     OperationType = "MACHINING"
	OpInspection    OperationType = "INSPECTION"
	OpDispatch      OperationType = "DISPATCH"
)

// KnownOperationTypes lists every operation a template may reference, in
// conventional production order.
func KnownOperationTypes() []OperationType {
	return []OperationType{OpForging, OpHeatTreatment, OpMachining, OpInspection, OpDispatch}
}

func (op OperationType) Valid() bool {
	switch op {
	case OpForging, OpHeatTreatment, OpMachining, OpInspection, OpDispatch:
		return true
	}
	return false
}

// Status is the lifecycle state of an item workflow.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether no further steps may be recorded.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// StepOutcome is the pass/fail result of a recorded workflow step.
type StepOutcome string

const (
	OutcomePass StepOutcome = "PASS"
	OutcomeFail StepOutcome = "FAIL"
)

// ScopeKind distinguishes the one-per-item workflow from the many-per-item
// batch workflows. The two levels coexist; each is unique within its scope.
type ScopeKind string

const (
	ScopeItem  ScopeKind = "ITEM"
	ScopeBatch ScopeKind = "BATCH"
)

// Scope is the tagged variant replacing the nullable identifier column the
// callers would otherwise null-check everywhere. Identifier is empty exactly
// when Kind is ScopeItem.
type Scope struct {
	Kind       ScopeKind
	Identifier string
}

func ItemScope() Scope { return Scope{Kind: ScopeItem} }

func BatchScope(identifier string) Scope {
	return Scope{Kind: ScopeBatch, Identifier: identifier}
}

func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeItem:
		return s.Identifier == ""
	case ScopeBatch:
		return s.Identifier != ""
	}
	return false
}
