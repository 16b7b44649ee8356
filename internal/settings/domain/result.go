package domain

// State is where a settings request ended up in the pipeline.
type State string

const (
	StateValidate State = "validate"
	StateLoad     State = "load"
	StateMutate   State = "mutate"
	StatePersist  State = "persist"
	StateSuccess  State = "success"
	StateRejected State = "rejected"
)

// Result collects the outcome of one settings request. The HTTP layer turns
// it into flash messages and a redirect.
type Result struct {
	State      State
	Errors     []string
	Messages   []string
	Redirect   string
	IncidentID string
}

func NewResult(redirect string) *Result {
	return &Result{State: StateValidate, Redirect: redirect}
}

func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Result) AddErrors(msgs []string) {
	r.Errors = append(r.Errors, msgs...)
}

func (r *Result) AddMessage(msg string) {
	r.Messages = append(r.Messages, msg)
}

func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Enter moves the request to state.
func (r *Result) Enter(state State) {
	r.State = state
}

// Reject ends the request, appending msgs when given.
func (r *Result) Reject(msgs ...string) *Result {
	r.AddErrors(msgs)
	r.State = StateRejected
	return r
}

// Succeed ends the request, appending msg when given.
func (r *Result) Succeed(msg string) *Result {
	if msg != "" {
		r.AddMessage(msg)
	}
	r.State = StateSuccess
	return r
}

func (r *Result) Rejected() bool {
	return r.State == StateRejected
}
