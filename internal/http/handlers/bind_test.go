package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/http/handlers"
	"github.com/geocoder89/eventprint/internal/http/middlewares"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func bindRouter(newReq func() interface{}) *gin.Engine {
	r := gin.New()
	r.POST("/bind", middlewares.MaxBodyBytes(256), func(ctx *gin.Context) {
		if !handlers.BindJSON(ctx, newReq()) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postBind(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, bindErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp bindErrorResponse
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}
	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &station.CreateStationRequest{} })

	w, resp := postBind(t, r, `{"name":"a","ticketTypeIds":["nope"]}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	wantRules := map[string]string{
		"templateId":       "required",
		"name":             "min",
		"ticketTypeIds[0]": "uuid",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_NestedFieldPath(t *testing.T) {
	r := bindRouter(func() interface{} { return &handlers.PrintRequest{} })

	w, resp := postBind(t, r, `{"registrationId":"6f1c7a1e-0000-4000-8000-000000000001","printer":{"ip":"printer.local"}}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields[0].Field != "printer.ip" || resp.Error.Details.Fields[0].Rule != "ip" {
		t.Fatalf("unexpected field errors %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := bindRouter(func() interface{} { return &station.CreateStationRequest{} })

	w, resp := postBind(t, r, `{"templateId":"6f1c7a1e-0000-4000-8000-000000000001","name":"Door","requireCheckedIn":"yes"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "requireCheckedIn" {
		t.Fatalf("expected detail field requireCheckedIn, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	r := bindRouter(func() interface{} { return &station.CreateStationRequest{} })

	w, resp := postBind(t, r, `{"name":"`+strings.Repeat("x", 400)+`"}`)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if resp.Error.Code != "payload_too_large" {
		t.Fatalf("unexpected code %s", resp.Error.Code)
	}
}
