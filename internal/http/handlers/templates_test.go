package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/http/handlers"
)

const fixedTemplateID = "7a0c54f6-1d59-4a57-9a0e-0d1f5f9f3b21"

func TestActiveTemplateHandler_ETag(t *testing.T) {
	eventID := newUUID()
	templates := &fakeTemplates{activeFn: func(ctx context.Context, id string, kind template.Kind) (template.Template, error) {
		if kind != template.KindCertificate {
			return template.Template{}, template.ErrNotFound
		}
		return template.Template{
			ID:         fixedTemplateID,
			EventID:    id,
			Kind:       kind,
			OutputSize: "A4-landscape",
			UpdatedAt:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		}, nil
	}}

	h := handlers.NewTemplatesHandler(templates, templates)
	r := setupRouter(http.MethodGet, "/events/:id/templates/active", h.Active)
	url := "/events/" + eventID + "/templates/active?kind=certificate"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", "W/"+etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body on 304, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/templates/active", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing badge template, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+eventID+"/templates/active?kind=poster", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", w.Code)
	}
}

func TestRefreshTemplateHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name       string
		path       string
		invalidate func(ctx context.Context, eventID string, kind template.Kind) error
		wantStatus int
		wantKind   template.Kind
	}{
		{name: "default kind", path: "/events/" + eventID + "/templates/refresh", wantStatus: http.StatusNoContent, wantKind: template.KindBadge},
		{name: "certificate", path: "/events/" + eventID + "/templates/refresh?kind=certificate", wantStatus: http.StatusNoContent, wantKind: template.KindCertificate},
		{name: "bad event id", path: "/events/abc/templates/refresh", wantStatus: http.StatusBadRequest},
		{
			name: "cache failure",
			path: "/events/" + eventID + "/templates/refresh",
			invalidate: func(ctx context.Context, eventID string, kind template.Kind) error {
				return errors.New("redis down")
			},
			wantStatus: http.StatusInternalServerError,
			wantKind:   template.KindBadge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKind template.Kind
			cache := &fakeTemplates{invalidateFn: func(ctx context.Context, id string, kind template.Kind) error {
				gotKind = kind
				if tt.invalidate != nil {
					return tt.invalidate(ctx, id, kind)
				}
				return nil
			}}

			h := handlers.NewTemplatesHandler(cache, cache)
			r := setupRouter(http.MethodPost, "/events/:id/templates/refresh", h.Refresh)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if gotKind != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, gotKind)
			}
		})
	}
}
