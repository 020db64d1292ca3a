package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, map[string]string{"key": "value"})

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusCreated, map[string][]string{"zones": {"1", "2"}})

		var got map[string][]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if len(got["zones"]) != 2 {
			t.Errorf("zones = %v; want 2 entries", got["zones"])
		}
	})
}

func TestWriteError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusBadGateway} {
		w := httptest.NewRecorder()
		WriteError(w, status, "something went wrong")

		if w.Code != status {
			t.Errorf("Code = %d; want %d", w.Code, status)
		}
		var got map[string]any
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["error"] != http.StatusText(status) {
			t.Errorf("error = %q; want %q", got["error"], http.StatusText(status))
		}
		if got["message"] != "something went wrong" {
			t.Errorf("message = %q", got["message"])
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{in: "", def: false, want: false},
		{in: "", def: true, want: true},
		{in: "on", want: true},
		{in: "1", want: true},
		{in: " TRUE ", want: true},
		{in: "yes", want: true},
		{in: "off", def: true, want: false},
		{in: "0", def: true, want: false},
		{in: "maybe", def: true, want: true},
	}
	for _, tt := range tests {
		if got := ParseBool(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseBool(%q, %v) = %v; want %v", tt.in, tt.def, got, tt.want)
		}
	}
}
