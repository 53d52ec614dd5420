package spec

// Error codes shared across the core packages.
//
// Ranges follow the CLI taxonomy:
//
//	E1xx - spec ID and stage-gate validation
//	E2xx - not found (spec files, delta files, tracker records)
//	E3xx - delta spec validation
//	E4xx - QA report validation
const (
	// Spec and stage-gate validation errors (E101-E119)
	ErrInvalidSpecID    = "E101" // spec ID does not match SPEC-YYYYMMDD-NNN
	ErrDuplicateSpecID  = "E102" // create with an ID already registered
	ErrInvalidStage     = "E103" // unknown stage name
	ErrStageGate        = "E110" // transition precondition failed
	ErrWrongPredecessor = "E111" // transition attempted from the wrong stage

	// Not-found errors (E201-E219)
	ErrSpecNotFound     = "E201" // spec ID not registered / file missing
	ErrSpecFileNotFound = "E202" // base spec markdown file missing
	ErrNoDeltaFiles     = "E203" // no delta files for the base spec
	ErrRequirementMiss  = "E204" // requirement ID not present in document
)
