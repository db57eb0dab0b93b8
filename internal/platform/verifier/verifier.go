// Package verifier integrates the external payment-proof verification
// service. A pending deposit is only credited after the verifier confirms
// the submitted proof and extracts a reference token from it.
package verifier

import "context"

// Proof is the evidence submitted to confirm a pending deposit
type Proof struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	ImageData     string `json:"image_data"` // Base64-encoded receipt image
	ContentType   string `json:"content_type"`
}

// Result is the verifier's verdict on a submitted proof
type Result struct {
	Success        bool   `json:"success"`
	Confidence     int    `json:"confidence"` // 0-100
	ReferenceToken string `json:"extracted_reference_id"`
	Reason         string `json:"reason,omitempty"`
}

// Verifier checks payment proofs. Implementations must fail closed: any
// transport or decoding error is a rejection, never a pass.
type Verifier interface {
	Verify(ctx context.Context, proof Proof) (*Result, error)
}
