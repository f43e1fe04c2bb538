package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"medagenda/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/v1"}, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := New(Config{BaseURL: "ftp://example.com"}, nil); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestLogin_PostsCredentialsAndReadsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/login" {
			t.Errorf("request = %s %s, want POST /v1/login", r.Method, r.URL.Path)
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Email != "doc@example.com" || body.Password != "secret" {
			t.Errorf("body = %+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})

	tok, err := c.Login(context.Background(), "doc@example.com", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if tok != "tok" {
		t.Fatalf("token = %q, want %q", tok, "tok")
	}
}

func TestGetAppointments_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		_, _ = w.Write([]byte(`[
			{"id": 7, "customer_id": 3, "init_date": "2026-01-05", "init_time": "09:00:00",
			 "title": "Checkup", "attendance": false, "absent": false,
			 "customer": {"id": 3, "card": "0102", "name": "Ana", "phone": "555", "gender": "F"}}
		]`))
	})

	appts, err := c.GetAppointments(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetAppointments error: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("len(appts) = %d, want 1", len(appts))
	}
	a := appts[0]
	if a.ID != 7 || a.CustomerID != 3 || a.InitDate != "2026-01-05" || a.Title == nil || *a.Title != "Checkup" {
		t.Fatalf("appointment = %+v", a)
	}
	if a.Customer == nil || a.Customer.Name != "Ana" {
		t.Fatalf("customer = %+v", a.Customer)
	}
}

func TestValidateCustomer_UsesQueryParameter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/api/ae" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("identificacion"); got != "0102030405" {
			t.Errorf("identificacion = %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"nombre":"ANA PEREZ","tipoIdentificacion":"C","situacion":{"estado":"ACTIVO","mensaje":"ok"}}`))
	})

	v, err := c.ValidateCustomer(context.Background(), "0102030405")
	if err != nil {
		t.Fatalf("ValidateCustomer error: %v", err)
	}
	want := domain.CustomerValidation{Name: "ANA PEREZ", IdentificationType: "C", TaxStatus: domain.TaxStatus{State: "ACTIVO", Message: "ok"}}
	if v != want {
		t.Fatalf("validation = %+v, want %+v", v, want)
	}
}

func TestUpdateAppointment_PutsByID(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody domain.Appointment
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpdateAppointment(context.Background(), "tok", domain.Appointment{ID: 42, Attendance: true})
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/v1/appointments/42" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody.ID != 42 || !gotBody.Attendance {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestStatusError_CarriesMessageAndUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	})

	_, err := c.GetAppointments(context.Background(), "tok")
	var sErr *StatusError
	if !errors.As(err, &sErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if sErr.StatusCode != http.StatusUnauthorized || sErr.Message != "token expired" {
		t.Fatalf("status error = %+v", sErr)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected errors.Is(err, ErrUnauthorized)")
	}
}

func TestStatusError_ServerErrorIsNotUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.CreateAppointment(context.Background(), "tok", domain.CreateAppointmentRequest{CustomerID: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("500 must not match ErrUnauthorized")
	}
	var sErr *StatusError
	if !errors.As(err, &sErr) || sErr.Message != "boom" {
		t.Fatalf("err = %v", err)
	}
}

func TestPing_AnyStatusIsReachable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
}
