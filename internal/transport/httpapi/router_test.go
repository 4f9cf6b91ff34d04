package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Leganyst/reserveme/internal/auth"
	"github.com/Leganyst/reserveme/internal/clock"
	"github.com/Leganyst/reserveme/internal/model"
	"github.com/Leganyst/reserveme/internal/repository"
	"github.com/Leganyst/reserveme/internal/service"
	"github.com/Leganyst/reserveme/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.NewSQLite(t)

	identity := service.NewIdentityService(
		repository.NewGormUserRepository(db),
		repository.NewGormRefreshTokenRepository(db),
		repository.NewGormTxManager(db),
		auth.NewTokenManager("http-test-secret-http-test-secret", time.Hour, nil),
		auth.NewPasswordHasher(bcrypt.MinCost),
		24*time.Hour,
		nil,
		nil,
	)
	booking := service.NewBookingService(
		repository.NewGormSlotRepository(db),
		repository.NewGormReservationRepository(db),
		repository.NewGormUserRepository(db),
		repository.NewGormTxManager(db),
		nil,
		service.WithAuditLog(repository.NewGormEventRepository(db)),
		service.WithClock(clock.NewStepping(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)),
	)
	return NewRouter(booking, identity, nil)
}

func do(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerUser(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/auth/register", "", `{"email":"`+email+`","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	return decode[authResponse](t, rec).AccessToken
}

func TestRouter_BookingFlow(t *testing.T) {
	r := newTestRouter(t)
	a := registerUser(t, r, "a@example.com")
	b := registerUser(t, r, "b@example.com")
	c := registerUser(t, r, "c@example.com")

	rec := do(t, r, http.MethodPost, "/api/slots", a, `{"startTime":"2025-01-01T10:00:00Z","endTime":"2025-01-01T11:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create slot: %d %s", rec.Code, rec.Body.String())
	}
	slot := decode[slotResponse](t, rec)

	rec = do(t, r, http.MethodPost, "/api/slots", a, `{"startTime":"2025-01-01T10:00:00Z","endTime":"2025-01-01T10:00:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty range, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, "/api/reservations", b, `{"slotId":"`+slot.ID.String()+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[reservationResponse](t, rec)
	if res.Status != "ACTIVE" || res.Slot == nil || res.Slot.ID != slot.ID {
		t.Fatalf("unexpected reservation: %+v", res)
	}

	rec = do(t, r, http.MethodPost, "/api/reservations", c, `{"slotId":"`+slot.ID.String()+`"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if e := decode[errorResponse](t, rec); e.Code != "conflict" || e.Error != "slot already reserved" {
		t.Fatalf("unexpected error body: %+v", e)
	}

	path := "/api/reservations/" + res.ID.String()
	if rec = do(t, r, http.MethodPut, path+"/confirm", b, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for requester confirm, got %d", rec.Code)
	}
	rec = do(t, r, http.MethodPut, path+"/confirm", a, "")
	if rec.Code != http.StatusOK || decode[reservationResponse](t, rec).Status != "CONFIRMED" {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/api/reservations/mine", a, "")
	if mine := decode[[]reservationResponse](t, rec); len(mine) != 1 || mine[0].ID != res.ID {
		t.Fatalf("unexpected mine: %+v", mine)
	}

	if rec = do(t, r, http.MethodDelete, "/api/slots/"+slot.ID.String(), a, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting reserved slot, got %d", rec.Code)
	}
	if rec = do(t, r, http.MethodDelete, path, c, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger delete, got %d", rec.Code)
	}
	if rec = do(t, r, http.MethodDelete, path, b, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, r, http.MethodGet, path, b, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after cancel, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, path+"/events", a, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("events: %d %s", rec.Code, rec.Body.String())
	}
	if events := decode[[]eventResponse](t, rec); len(events) != 3 || events[2].Details["reason"] != model.DeleteReasonCancelled {
		t.Fatalf("unexpected events: %+v", events)
	}

	if rec = do(t, r, http.MethodDelete, "/api/slots/"+slot.ID.String(), a, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete slot: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Auth(t *testing.T) {
	r := newTestRouter(t)

	if rec := do(t, r, http.MethodGet, "/api/slots", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/api/slots", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	rec := do(t, r, http.MethodPost, "/api/auth/register", "", `{"email":"a@example.com","password":"pw","displayName":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}
	tokens := decode[authResponse](t, rec)

	if rec := do(t, r, http.MethodPost, "/api/auth/register", "", `{"email":"A@example.com","password":"pw"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"nope"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, "/api/users/me", tokens.AccessToken, "")
	if me := decode[userResponse](t, rec); me.Email != "a@example.com" || me.DisplayName != "Alice" {
		t.Fatalf("unexpected me: %+v", me)
	}

	rec = do(t, r, http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+tokens.RefreshToken+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+tokens.RefreshToken+`"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused refresh token, got %d", rec.Code)
	}
}

func TestRouter_Healthz(t *testing.T) {
	r := NewRouter(nil, nil, nil)
	rec := do(t, r, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
}

// fakeIdentity пропускает любой токен, равный uuid пользователя.
type fakeIdentity struct{ Identity }

func (fakeIdentity) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, service.ErrInvalidToken
	}
	return id, nil
}

type fakeBooking struct {
	Booking
	err error
}

func (f fakeBooking) DeleteSlot(context.Context, uuid.UUID, uuid.UUID) error { return f.err }

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", service.ErrSlotNotFound, http.StatusNotFound, "not_found"},
		{"forbidden", service.ErrNotSlotOwner, http.StatusForbidden, "forbidden"},
		{"conflict", service.ErrSlotHasReservation, http.StatusConflict, "conflict"},
		{"validation", service.ErrInvalidTimeRange, http.StatusBadRequest, "validation_error"},
		{"unauthenticated", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(fakeBooking{err: tt.err}, fakeIdentity{}, nil)
			rec := do(t, r, http.MethodDelete, "/api/slots/"+uuid.NewString(), uuid.NewString(), "")
			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected %d, got %d", tt.expectedStatus, rec.Code)
			}
			body := decode[errorResponse](t, rec)
			if body.Code != tt.expectedCode {
				t.Fatalf("expected code %q, got %q", tt.expectedCode, body.Code)
			}
			if tt.expectedStatus == http.StatusInternalServerError && body.Error != "internal error" {
				t.Fatalf("internal details leaked: %q", body.Error)
			}
		})
	}
}

func TestRouter_InvalidIDs(t *testing.T) {
	r := NewRouter(fakeBooking{}, fakeIdentity{}, nil)
	token := uuid.NewString()

	for _, path := range []string{"/api/slots/not-a-uuid", "/api/slots/byOwner?ownerId=x", "/api/reservations/bySlot"} {
		if rec := do(t, r, http.MethodGet, path, token, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}
