package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/growthvault-ledger/internal/config"
)

// HTTPVerifier calls the verification service over HTTP
type HTTPVerifier struct {
	logger *slog.Logger
	client *http.Client
	url    string
}

// NewHTTPVerifier creates a verifier client with a request timeout
func NewHTTPVerifier(logger *slog.Logger, cfg *config.VerifierConfig) *HTTPVerifier {
	return &HTTPVerifier{
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
	}
}

// Verify submits the proof and decodes the verdict. Any transport failure or
// non-200 response is returned as an error so callers treat it as a
// rejection.
func (v *HTTPVerifier) Verify(ctx context.Context, proof Proof) (*Result, error) {
	payload, err := json.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("Verification request failed", "url", v.url, "error", err)
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read verification response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("Verification service returned non-OK status",
			"url", v.url,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}

	v.logger.Debug("Verification verdict received",
		"transaction_id", proof.TransactionID,
		"success", result.Success,
		"confidence", result.Confidence,
	)

	return &result, nil
}
