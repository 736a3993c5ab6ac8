package errors

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestProperty_ErrorCode_MatchesHTTPStatus tests that every predefined error's
// numeric code prefix agrees with its HTTP status class.
func TestProperty_ErrorCode_MatchesHTTPStatus(t *testing.T) {
	predefined := []*APIError{
		ErrInvalidCredentialsError,
		ErrTokenExpiredError,
		ErrForbiddenError,
		ErrRequestNotFoundError,
		ErrTemplateNotFoundError,
		ErrNoReviewsFoundError,
		ErrInvalidTrackingTokenError,
		ErrReconnectRequiredError,
		ErrInternalServerError,
		ErrMailRelayFailureError,
		ErrPlatformAPIFailureError,
	}

	for _, e := range predefined {
		code := string(e.Code)
		if len(code) != 5 {
			t.Fatalf("error code %q should be 5 digits", code)
		}
		prefix, err := strconv.Atoi(code[:3])
		if err != nil {
			t.Fatalf("error code %q should be numeric: %v", code, err)
		}
		// 502xx and 503xx codes share the 5xx status class with 500.
		if prefix/100 != e.HTTPStatus/100 {
			t.Errorf("error code %q status class does not match HTTP status %d", code, e.HTTPStatus)
		}
	}
}

// TestProperty_ValidationError_PreservesDetails tests that validation errors
// carry arbitrary details through to the response body.
func TestProperty_ValidationError_PreservesDetails(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		details := rapid.StringMatching(`[a-zA-Z0-9 .,]{1,80}`).Draw(rt, "details")

		apiErr := NewValidationError(details)

		if apiErr.HTTPStatus != http.StatusBadRequest {
			t.Fatalf("validation error should be 400, got %d", apiErr.HTTPStatus)
		}
		if apiErr.Details != details {
			t.Fatalf("details not preserved: got %v", apiErr.Details)
		}
		if apiErr.Error() == "" {
			t.Fatal("validation error should have a message")
		}
	})
}

// TestProperty_InvalidRequestError_MessagePassthrough tests that invalid
// request errors surface the caller's message unchanged.
func TestProperty_InvalidRequestError_MessagePassthrough(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		message := rapid.StringMatching(`[a-zA-Z0-9 .,!?]{5,100}`).Draw(rt, "message")

		apiErr := NewInvalidRequestError(message)

		if apiErr.Error() != message {
			t.Fatalf("message not preserved: got %q want %q", apiErr.Error(), message)
		}
		if apiErr.HTTPStatus != http.StatusBadRequest {
			t.Fatalf("invalid request error should be 400, got %d", apiErr.HTTPStatus)
		}
		if !strings.HasPrefix(string(apiErr.Code), "400") {
			t.Fatalf("invalid request error should carry a 400xx code, got %s", apiErr.Code)
		}
	})
}
