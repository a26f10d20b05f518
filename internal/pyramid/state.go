package pyramid

import "fmt"

// --- State machine for the analysis pipeline ---

// Stage is an operation that changes a record's status.
type Stage string

const (
	StageEvidence   Stage = "evidence"
	StageSynthesize Stage = "synthesize"
	StageCritique   Stage = "critique"
	StageFinalize   Stage = "finalize"
	StageRevise     Stage = "revise"
)

// allowedFrom lists the statuses each stage may start from.
var allowedFrom = map[Stage][]Status{
	StageEvidence:   {StatusPlanned, StatusEvidenceCollected},
	StageSynthesize: {StatusEvidenceCollected, StatusSynthesized, StatusCritiqued},
	StageCritique:   {StatusSynthesized, StatusCritiqued},
	StageFinalize:   {StatusCritiqued},
	StageRevise:     {StatusPlanned, StatusEvidenceCollected, StatusSynthesized, StatusCritiqued},
}

// resultOf is the status a record reaches when a stage completes.
var resultOf = map[Stage]Status{
	StageEvidence:   StatusEvidenceCollected,
	StageSynthesize: StatusSynthesized,
	StageCritique:   StatusCritiqued,
	StageFinalize:   StatusFinalized,
	StageRevise:     StatusPlanned,
}

// TransitionError reports a stage that cannot run in the record's status.
type TransitionError struct {
	RunID  string
	Stage  Stage
	Status Status
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("run %q cannot %s while %s: %s", e.RunID, e.Stage, e.Status, e.Reason)
}

// CanEnter returns an error if the stage cannot start from the record's status.
func CanEnter(rec *Record, stage Stage) error {
	allowed, ok := allowedFrom[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	for _, s := range allowed {
		if rec.Status == s {
			return nil
		}
	}
	return &TransitionError{
		RunID:  rec.ID,
		Stage:  stage,
		Status: rec.Status,
		Reason: fmt.Sprintf("requires one of %v", allowed),
	}
}

// CheckGate returns an error unless the record's latest critique passed.
func CheckGate(rec *Record) error {
	if rec.Critique == nil {
		return &TransitionError{RunID: rec.ID, Stage: StageFinalize, Status: rec.Status, Reason: "no critique recorded"}
	}
	if !rec.Critique.Passed {
		return &TransitionError{
			RunID:  rec.ID,
			Stage:  StageFinalize,
			Status: rec.Status,
			Reason: fmt.Sprintf("critique did not pass (overall %.2f)", rec.Critique.OverallScore),
		}
	}
	return nil
}

// Complete records that a stage finished. Forward stages never lower the
// status; revise resets it to planned.
func Complete(rec *Record, stage Stage) error {
	if err := CanEnter(rec, stage); err != nil {
		return err
	}
	next := resultOf[stage]
	if stage == StageRevise || statusRank[next] > statusRank[rec.Status] {
		rec.Status = next
	}
	rec.UpdatedAt = timeNow().UTC()
	return nil
}

// IsTerminal reports whether no further stage can run.
func (s Status) IsTerminal() bool {
	return s == StatusFinalized
}

// NextStep suggests the operation to call next for a status.
func NextStep(s Status) string {
	if s.IsTerminal() {
		return ""
	}
	switch s {
	case StatusPlanned:
		return "run_evidence"
	case StatusEvidenceCollected:
		return "synthesize"
	case StatusSynthesized:
		return "critique"
	case StatusCritiqued:
		return "finalize (or revise if the critique failed)"
	default:
		return ""
	}
}
