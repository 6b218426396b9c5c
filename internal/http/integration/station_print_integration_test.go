package integration__test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/eventprint/internal/auth"
	"github.com/geocoder89/eventprint/internal/config"
	"github.com/geocoder89/eventprint/internal/db"
	apphttp "github.com/geocoder89/eventprint/internal/http"
	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/render"
	"github.com/geocoder89/eventprint/internal/repo/cached"
	"github.com/geocoder89/eventprint/internal/repo/postgres"
)

type apiErrorResponse struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

type testEnv struct {
	router *gin.Engine
	pool   *pgxpool.Pool
	tokens *auth.Manager
}

func setupTestRouter(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	pool, err := db.NewPool(context.Background(), dsn, 4)
	if err != nil {
		t.Fatalf("pg pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// already at the latest version
	if err := db.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	resetDB(t, pool)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewManager("test-secret-key", time.Hour, time.Hour)
	templates := postgres.NewTemplatesRepo(pool, nil)

	cfg := config.Config{Env: "test", PrinterDefaultPort: printer.DefaultPort, RateLimitPerMinute: 0}
	router := apphttp.NewRouter(cfg, apphttp.Deps{
		Events:        postgres.NewEventsRepo(pool, nil),
		Registrations: postgres.NewRegistrationsRepo(pool, nil),
		Templates:     cached.NewTemplates(templates, time.Minute, cached.WithLogger(logger)),
		Stations:      postgres.NewStationsRepo(pool, nil),
		Engine: render.NewEngine(render.Deps{
			Sender: printer.NewProtectedSender(printer.NewTransport(2*time.Second), printer.ProtectedSenderConfig{}),
			Log:    logger,
		}),
		Tokens: tokens,
	})

	return testEnv{router: router, pool: pool, tokens: tokens}
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE stations, templates, registrations, events CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

type seeded struct {
	eventID, regID, templateID string
}

func seed(t *testing.T, pool *pgxpool.Pool, checkedIn bool) seeded {
	t.Helper()
	ctx := context.Background()
	s := seeded{eventID: uuid.NewString(), regID: uuid.NewString(), templateID: uuid.NewString()}

	_, err := pool.Exec(ctx, `INSERT INTO events (id, title, start_at) VALUES ($1, 'GopherCon', now())`, s.eventID)
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}

	var checkedInAt *time.Time
	if checkedIn {
		now := time.Now().UTC()
		checkedInAt = &now
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO registrations (id, event_id, first_name, last_name, email, checkin_token, checked_in_at)
		VALUES ($1, $2, 'Jane', 'Doe', 'jane@example.com', $3, $4)`,
		s.regID, s.eventID, "tok-"+s.regID[:8], checkedInAt)
	if err != nil {
		t.Fatalf("insert registration: %v", err)
	}

	def := `{"output_size":"4x6","elements":[{"type":"text","content":"{{name}}","x":0,"y":0,"width":300,"height":40}]}`
	_, err = pool.Exec(ctx, `
		INSERT INTO templates (id, event_id, kind, is_active, definition) VALUES ($1, $2, 'badge', true, $3)`,
		s.templateID, s.eventID, def)
	if err != nil {
		t.Fatalf("insert template: %v", err)
	}
	return s
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createStation(t *testing.T, env testEnv, s seeded, requireCheckedIn bool) string {
	t.Helper()
	admin, err := env.tokens.GenerateAccessToken(uuid.NewString(), "admin@example.com", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	body := `{"templateId":"` + s.templateID + `","name":"Front desk","requireCheckedIn":` + strconv.FormatBool(requireCheckedIn) + `}`
	w := do(env.router, http.MethodPost, "/events/"+s.eventID+"/stations", admin, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create station got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Token
}

func TestStationPrint_SendsLabelToPrinter(t *testing.T) {
	env := setupTestRouter(t)
	s := seed(t, env.pool, true)
	token := createStation(t, env, s, true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	body := `{"registrationId":"` + s.regID + `","printer":{"ip":"127.0.0.1","port":` + strconv.Itoa(port) + `}}`
	w := do(env.router, http.MethodPost, "/station/print", token, body)

	if w.Code != http.StatusOK {
		t.Fatalf("print got %d body=%s", w.Code, w.Body.String())
	}

	select {
	case data := <-received:
		if !strings.Contains(string(data), "^FDJane Doe^FS") {
			t.Fatalf("unexpected label %q", data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("printer never received the label")
	}
}

func TestStationPrint_RequiresCheckIn(t *testing.T) {
	env := setupTestRouter(t)
	s := seed(t, env.pool, false)
	token := createStation(t, env, s, true)

	w := do(env.router, http.MethodPost, "/station/print", token, `{"registrationId":"`+s.regID+`"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", w.Code, w.Body.String())
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "not_checked_in" {
		t.Fatalf("expected not_checked_in, got %s", resp.Error.Code)
	}
	if resp.Error.RequestID == "" {
		t.Fatalf("expected request id in error envelope")
	}
}

func TestStationPrint_UnreachablePrinterKeepsPreview(t *testing.T) {
	env := setupTestRouter(t)
	s := seed(t, env.pool, true)
	token := createStation(t, env, s, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	body := `{"registrationId":"` + s.regID + `","printer":{"ip":"127.0.0.1","port":` + strconv.Itoa(port) + `}}`
	w := do(env.router, http.MethodPost, "/station/print", token, body)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Preview string `json:"preview"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || !strings.HasPrefix(resp.Preview, "^XA") {
		t.Fatalf("unexpected response %+v", resp)
	}
}
