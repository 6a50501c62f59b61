package captcha

import (
	"Supernova-Backend/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Verifier validates CAPTCHA tokens from the client against the third-party
// verification service.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// HTTPVerifier posts tokens to a siteverify-style endpoint (reCAPTCHA and
// hCaptcha share the same form-encoded protocol and `success` response field).
type HTTPVerifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	log        *zap.Logger
}

// verifyResponse is the subset of the siteverify response we care about.
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// NewHTTPVerifier creates a verifier from configuration. The request timeout
// bounds how long a suspicious click can be held up by the external service.
func NewHTTPVerifier(cfg *config.Captcha, log *zap.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		secret:     cfg.Secret,
		verifyURL:  cfg.VerifyURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Verify checks a token with the verification service. Any transport or
// decoding failure returns an error; callers treat that as a failed
// verification so that suspicious traffic stays blocked when the service is
// unreachable.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (bool, error) {
	if v.secret == "" {
		v.log.Error("CAPTCHA secret key not configured")
		return false, fmt.Errorf("captcha secret not configured")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.log.Warn("captcha verification request failed", zap.Error(err))
		return false, fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.log.Warn("failed to decode captcha response", zap.Error(err))
		return false, fmt.Errorf("failed to decode captcha response: %w", err)
	}

	if !result.Success {
		v.log.Debug("captcha verification rejected", zap.Strings("error_codes", result.ErrorCodes))
	}

	return result.Success, nil
}
