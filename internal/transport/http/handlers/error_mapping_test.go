package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/infra/security"
)

func runMapped(t *testing.T, err error, cases []ErrorCase) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "something went wrong")
	return rr
}

func TestRespondWithMappedErrorMatchesSentinel(t *testing.T) {
	sentinel := errors.New("session revoked")
	cases := []ErrorCase{
		{Err: sentinel, Status: http.StatusUnauthorized, Message: "session revoked"},
	}

	rr := runMapped(t, fmt.Errorf("login: %w", sentinel), cases)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "session revoked" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestRespondWithMappedErrorFallsBack(t *testing.T) {
	rr := runMapped(t, errors.New("connection reset"), []ErrorCase{
		{Err: errors.New("other"), Status: http.StatusConflict, Message: "conflict"},
	})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", rr.Code)
	}
}

func TestRespondWithMappedErrorSurfacesPolicyViolation(t *testing.T) {
	verr := &security.PasswordValidationError{
		Code:    "pattern",
		Message: "password must be 3 to 25 characters",
	}

	rr := runMapped(t, fmt.Errorf("change password: %w", verr), nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for policy violation, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != verr.Message {
		t.Fatalf("expected policy message %q, got %q", verr.Message, resp.Message)
	}
}
