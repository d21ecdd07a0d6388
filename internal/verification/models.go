// Package verification runs the layered admission pipeline for candidate
// credentials: issuer authorization, content authenticity, content-address
// availability. Layers run strictly in order and a failed layer
// short-circuits the rest, so a denied outcome may carry fewer than three
// layer results.
package verification

import "time"

// Layer identifies one verification layer.
type Layer string

const (
	LayerIssuer         Layer = "ISSUER"
	LayerAuthenticity   Layer = "AUTHENTICITY"
	LayerContentAddress Layer = "CONTENT_ADDRESS"
)

// State is the orchestrator's position in the evaluation sequence.
type State string

const (
	StatePending              State = "PENDING"
	StateCheckingIssuer       State = "CHECKING_ISSUER"
	StateCheckingAuthenticity State = "CHECKING_AUTHENTICITY"
	StateCheckingContent      State = "CHECKING_CONTENT_ADDRESS"
	StateAdmitted             State = "ADMITTED"
	StateDenied               State = "DENIED"
)

// LayerResult records one layer's verdict. Confidence is only set by the
// authenticity layer; the other layers leave it nil.
type LayerResult struct {
	Layer      Layer
	Passed     bool
	Reason     string
	Confidence *float64
}

// Outcome is the full evaluation verdict. Admitted is true exactly when
// Layers has three entries and every one of them passed.
type Outcome struct {
	Layers      []LayerResult
	Admitted    bool
	Diagnostic  string
	State       State
	EvaluatedAt time.Time
}

// FailedLayers returns the results that denied the request.
func (o Outcome) FailedLayers() []LayerResult {
	var failed []LayerResult
	for _, lr := range o.Layers {
		if !lr.Passed {
			failed = append(failed, lr)
		}
	}
	return failed
}
