package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/eventprint/internal/domain/event"
	"github.com/geocoder89/eventprint/internal/domain/registration"
	"github.com/geocoder89/eventprint/internal/domain/station"
	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

type fakeEvents struct {
	getFn func(ctx context.Context, id string) (event.Event, error)
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (event.Event, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return event.Event{ID: id, Title: "GopherCon", StartAt: time.Date(2026, 7, 7, 9, 0, 0, 0, time.UTC)}, nil
}

type fakeRegistrations struct {
	getFn     func(ctx context.Context, id string) (registration.Registration, error)
	byTokenFn func(ctx context.Context, token string) (registration.Registration, error)
}

func (f *fakeRegistrations) GetByID(ctx context.Context, id string) (registration.Registration, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return registration.Registration{}, registration.ErrNotFound
}

func (f *fakeRegistrations) GetByCheckinToken(ctx context.Context, token string) (registration.Registration, error) {
	if f.byTokenFn != nil {
		return f.byTokenFn(ctx, token)
	}
	return registration.Registration{}, registration.ErrNotFound
}

type fakeTemplates struct {
	getFn        func(ctx context.Context, id string) (template.Template, error)
	activeFn     func(ctx context.Context, eventID string, kind template.Kind) (template.Template, error)
	invalidateFn func(ctx context.Context, eventID string, kind template.Kind) error
}

func (f *fakeTemplates) GetByID(ctx context.Context, id string) (template.Template, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return template.Template{}, template.ErrNotFound
}

func (f *fakeTemplates) GetActive(ctx context.Context, eventID string, kind template.Kind) (template.Template, error) {
	if f.activeFn != nil {
		return f.activeFn(ctx, eventID, kind)
	}
	return template.Template{}, template.ErrNotFound
}

func (f *fakeTemplates) Invalidate(ctx context.Context, eventID string, kind template.Kind) error {
	if f.invalidateFn != nil {
		return f.invalidateFn(ctx, eventID, kind)
	}
	return nil
}

type fakeRenderer struct {
	renderFn func(ctx context.Context, req render.Request) (render.Result, error)
	last     render.Request
}

func (f *fakeRenderer) Render(ctx context.Context, req render.Request) (render.Result, error) {
	f.last = req
	if f.renderFn != nil {
		return f.renderFn(ctx, req)
	}
	if req.Kind == render.KindPrinterCommand {
		return render.Result{Kind: req.Kind, ContentType: render.ContentTypeZPL, Bytes: []byte("^XA\n^XZ\n")}, nil
	}
	return render.Result{Kind: req.Kind, ContentType: render.ContentTypePDF, Bytes: []byte("%PDF-1.3")}, nil
}

type fakeStations struct {
	createFn func(ctx context.Context, req station.CreateStationRequest) (station.Station, error)
	revokeFn func(ctx context.Context, id string) (station.Station, error)
}

func (f *fakeStations) Create(ctx context.Context, req station.CreateStationRequest) (station.Station, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return station.NewFromCreateRequest(req), nil
}

func (f *fakeStations) Revoke(ctx context.Context, id string) (station.Station, error) {
	if f.revokeFn != nil {
		return f.revokeFn(ctx, id)
	}
	return station.Station{}, station.ErrNotFound
}

type fakeTokens struct {
	generateFn func(stationID, eventID string) (string, time.Time, error)
}

func (f *fakeTokens) GenerateStationToken(stationID, eventID string) (string, time.Time, error) {
	if f.generateFn != nil {
		return f.generateFn(stationID, eventID)
	}
	return "station-token", time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), nil
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h...)
	return r
}
