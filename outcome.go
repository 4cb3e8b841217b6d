package tempo

// Outcome classifies how a job body finished. Every executor returns an
// Outcome alongside its error so the worker can record the result to
// structured observability instead of relying on log text alone.
type Outcome string

const (
	// OutcomeCompleted means the job performed its action.
	OutcomeCompleted Outcome = "completed"
	// OutcomeSkipped means the job found nothing to do — the target
	// entity was gone or already in the desired state. A successful no-op.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeExhausted means a reconciliation job used all its retry
	// attempts without converging. The job ends without error.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeErrored means the job body failed unexpectedly.
	OutcomeErrored Outcome = "errored"
)
