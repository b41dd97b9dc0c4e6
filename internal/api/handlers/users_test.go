package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/model"
	"github.com/ndewijer/Finance-Ledger-Backend/internal/testutil"
)

func TestUserHandler(t *testing.T) {
	setupHandler := func(t *testing.T) *UserHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		return NewUserHandler(testutil.NewTestUserService(t, db))
	}

	t.Run("create then get", func(t *testing.T) {
		handler := setupHandler(t)

		w := httptest.NewRecorder()
		handler.CreateUser(w, testutil.NewJSONRequest(http.MethodPost, "/api/users", `{"name":"Asha"}`, nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		var created model.User
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&created)

		w = httptest.NewRecorder()
		handler.GetUser(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/users/"+created.ID,
			map[string]string{"uuid": created.ID}))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var loaded model.User
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&loaded)
		if loaded.Name != "Asha" {
			t.Errorf("Expected Asha, got %q", loaded.Name)
		}
	})

	t.Run("returns 400 for an empty name", func(t *testing.T) {
		handler := setupHandler(t)

		w := httptest.NewRecorder()
		handler.CreateUser(w, testutil.NewJSONRequest(http.MethodPost, "/api/users", `{"name":"  "}`, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 when deleting an unknown user", func(t *testing.T) {
		handler := setupHandler(t)
		id := testutil.MakeID()

		w := httptest.NewRecorder()
		handler.DeleteUser(w, testutil.NewRequestWithURLParams(http.MethodDelete, "/api/users/"+id,
			map[string]string{"uuid": id}))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
