package harness

// Result is the outcome of running a suite.
type Result struct {
	// Pass is true when every vector matched.
	Pass bool `json:"pass"`

	// Cases holds one entry per vector, in suite order.
	Cases []CaseResult `json:"cases"`

	// Errors contains one message per failed vector.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult is the observed outcome of one vector.
type CaseResult struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Pass bool   `json:"pass"`

	// Got is the produced hex or fingerprint. Empty when the vector failed
	// to produce output.
	Got string `json:"got,omitempty"`

	// Error is the observed error kind, if any.
	Error string `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed counts the cases that did not match.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Cases {
		if !c.Pass {
			n++
		}
	}
	return n
}
