package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/oceanml-backend/internal/services"
)

func TestToAPIErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: bad", services.ErrInvalidFormat), http.StatusBadRequest, "invalid_format"},
		{services.ErrTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
		{services.ErrConflict, http.StatusConflict, "conflict"},
		{services.ErrNotLeaseHolder, http.StatusConflict, "not_lease_holder"},
		{services.ErrIdentityRequired, http.StatusUnauthorized, "identity_required"},
		{&services.StoreError{Op: "load video", Err: errors.New("dial tcp: refused")}, http.StatusInternalServerError, "store_error"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		got := toAPIError(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%v: want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
}

func TestToAPIErrorHidesStoreCause(t *testing.T) {
	got := toAPIError(&services.StoreError{Op: "upload annotation", Err: errors.New("secret bucket path")})
	if strings.Contains(got.Error(), "secret") {
		t.Fatalf("store cause leaked: %q", got.Error())
	}
	if got.Error() != "upload annotation failed" {
		t.Fatalf("message: want=%q got=%q", "upload annotation failed", got.Error())
	}
}
