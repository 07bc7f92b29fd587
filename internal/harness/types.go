package harness

import "github.com/roach88/recall/internal/trial"

// Result is the outcome of running one scenario.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Metrics holds what the engine produced. Both fields are nil when
	// scoring failed.
	Metrics trial.Metrics `json:"metrics"`

	// ScoreError is the scoring failure, if any.
	ScoreError string `json:"score_error,omitempty"`

	// Errors contains one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult(name string) *Result {
	return &Result{Name: name, Pass: true, Errors: []string{}}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Summary aggregates the results of a scenario directory.
type Summary struct {
	Total   int       `json:"total"`
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Results []*Result `json:"results"`
}
