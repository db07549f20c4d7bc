package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/oumpowerman/thaoshare/events"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/middlewares"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/providers/local"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/oumpowerman/thaoshare/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const secret = "routes-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t     *testing.T
	app   *fiber.App
	store *repository.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.MigrateModels...))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewMemoryBus()
	store := repository.New(db, bus).WithLogger(logger)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	uploads := t.TempDir()
	disk, err := local.New(uploads, "/uploads")
	require.NoError(t, err)

	notifications := services.NewNotificationService(store, m, logger)
	reports := services.NewReportService(store, m, logger)
	reports.Watch(bus)

	app := fiber.New()
	Setup(app, Deps{
		JWTSecret:     secret,
		Members:       store,
		Health:        store,
		Gatherer:      reg,
		UploadDir:     uploads,
		UploadURL:     "/uploads",
		Circles:       services.NewCircleService(store, m, logger),
		MemberSvc:     services.NewMemberService(store, logger),
		Settlement:    services.NewSettlementService(store, notifications, m, logger),
		Payments:      services.NewPaymentService(store, disk, m, logger),
		Reports:       reports,
		Notifications: notifications,
	})
	return &harness{t: t, app: app, store: store}
}

func (h *harness) seed(name string, role models.Role) (models.Member, string) {
	h.t.Helper()
	m := &models.Member{Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
	require.NoError(h.t, h.store.CreateMember(context.Background(), m))
	tok, err := middlewares.IssueToken(secret, *m, time.Hour)
	require.NoError(h.t, err)
	return *m, tok
}

func (h *harness) do(method, path, token string, body any) (int, envelope) {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return h.send(req, token)
}

func (h *harness) send(req *http.Request, token string) (int, envelope) {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	status, env := h.do("GET", "/health", "", nil)
	assert.Equal(t, 200, status)
	assert.True(t, env.Success)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "thaoshare_settlement_duration_seconds")
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	_, userTok := h.seed("Nok", models.RoleParticipant)

	status, env := h.do("GET", "/api/circles", "", nil)
	assert.Equal(t, 401, status)
	assert.Equal(t, "TOKEN_REQUIRED", env.Message)

	status, env = h.do("POST", "/api/circles", userTok, map[string]any{})
	assert.Equal(t, 403, status)
	assert.Equal(t, "ADMIN_ONLY", env.Message)
}

func TestCircleSettlementFlow(t *testing.T) {
	h := newHarness(t)
	_, adminTok := h.seed("Admin", models.RoleAdmin)

	ids := make([]string, 0, 3)
	toks := make([]string, 0, 3)
	for _, n := range []string{"Anan", "Busaba", "Chai"} {
		status, env := h.do("POST", "/api/members", adminTok, map[string]any{"name": n, "email": strings.ToLower(n) + "@example.com"})
		require.Equal(t, 201, status, env.Message)
		m := decode[models.Member](t, env.Data)
		ids = append(ids, m.ID)
		tok, err := middlewares.IssueToken(secret, m, time.Hour)
		require.NoError(t, err)
		toks = append(toks, tok)
	}

	status, env := h.do("POST", "/api/circles", adminTok, map[string]any{
		"name":        "Market share",
		"principal":   "1,000",
		"total_slots": 4,
		"type":        "interest_deducted",
		"start_date":  "2024-01-31",
		"member_ids":  ids,
	})
	require.Equal(t, 201, status, env.Detail)
	created := decode[struct {
		ID          string `json:"id"`
		VacantSlots []int  `json:"vacant_slots"`
		OpenRound   *int   `json:"open_round"`
	}](t, env.Data)
	assert.Equal(t, []int{4}, created.VacantSlots)
	require.NotNil(t, created.OpenRound)
	assert.Equal(t, 1, *created.OpenRound)
	base := "/api/circles/" + created.ID

	// members only see their circles
	status, env = h.do("GET", "/api/circles", toks[0], nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)
	_, outsiderTok := h.seed("Outsider", models.RoleParticipant)
	status, _ = h.do("GET", base, outsiderTok, nil)
	assert.Equal(t, 403, status)

	status, env = h.do("POST", base+"/preview", adminTok, map[string]any{"winner_id": ids[1], "bid": 150})
	require.Equal(t, 200, status, env.Detail)
	preview := decode[struct {
		TotalPot string `json:"total_pot"`
	}](t, env.Data)
	assert.Equal(t, "2700", preview.TotalPot)

	status, env = h.do("POST", base+"/settle", adminTok, map[string]any{"winner_id": ids[1], "bid": 150, "expected_pot": "9999"})
	assert.Equal(t, 409, status)
	assert.Equal(t, "POT_MISMATCH", env.Message)

	status, env = h.do("POST", base+"/settle", adminTok, map[string]any{"winner_id": ids[1], "bid": 150, "expected_pot": preview.TotalPot})
	require.Equal(t, 200, status, env.Detail)
	res := decode[struct {
		Round    int  `json:"round"`
		Finished bool `json:"finished"`
	}](t, env.Data)
	assert.Equal(t, 1, res.Round)
	assert.False(t, res.Finished)

	status, env = h.do("POST", base+"/settle", adminTok, map[string]any{"winner_id": ids[1], "bid": 10})
	assert.Equal(t, 422, status)
	assert.Equal(t, "INELIGIBLE_WINNER", env.Message)

	status, env = h.do("POST", base+"/settle", adminTok, map[string]any{"winner_id": ids[0], "bid": -5})
	assert.Equal(t, 422, status)
	assert.Equal(t, "INVALID_BID", env.Message)

	// winner's view
	status, env = h.do("GET", "/api/me/summary", toks[1], nil)
	require.Equal(t, 200, status)
	report := decode[struct {
		Summary struct {
			WonCount      int    `json:"won_count"`
			TotalReceived string `json:"total_received"`
		} `json:"summary"`
	}](t, env.Data)
	assert.Equal(t, 1, report.Summary.WonCount)
	assert.Equal(t, "2700", report.Summary.TotalReceived)

	status, env = h.do("GET", "/api/members/"+ids[1]+"/wins", toks[0], nil)
	assert.Equal(t, 403, status)
	status, env = h.do("GET", "/api/members/"+ids[1]+"/wins", toks[1], nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	status, env = h.do("GET", "/api/notifications", toks[1], nil)
	require.Equal(t, 200, status)
	notes := decode[struct {
		Items  []models.Notification `json:"items"`
		Unread int                   `json:"unread"`
	}](t, env.Data)
	require.Len(t, notes.Items, 1)
	assert.Equal(t, models.NotifySuccess, notes.Items[0].Type)
	assert.Equal(t, 1, notes.Unread)

	status, env = h.do("POST", "/api/notifications/read", toks[1], nil)
	require.Equal(t, 200, status)

	status, env = h.do("GET", "/api/reports/dashboard", adminTok, nil)
	require.Equal(t, 200, status)
	dash := decode[struct {
		DeadHands   int `json:"dead_hands"`
		AliveHands  int `json:"alive_hands"`
		VacantSlots int `json:"vacant_slots"`
	}](t, env.Data)
	assert.Equal(t, 1, dash.DeadHands)
	assert.Equal(t, 2, dash.AliveHands)
	assert.Equal(t, 1, dash.VacantSlots)

	status, env = h.do("GET", base+"/rounds/1/reconciliation", adminTok, nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 3)
	status, _ = h.do("GET", base+"/rounds/9/reconciliation", adminTok, nil)
	assert.Equal(t, 404, status)

	status, _ = h.do("DELETE", base, adminTok, nil)
	assert.Equal(t, 200, status)
	status, env = h.do("GET", base, adminTok, nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", env.Message)
}

func TestPaymentSubmission(t *testing.T) {
	h := newHarness(t)
	_, adminTok := h.seed("Admin", models.RoleAdmin)
	a, aTok := h.seed("Anan", models.RoleParticipant)
	b, bTok := h.seed("Busaba", models.RoleParticipant)

	status, env := h.do("POST", "/api/circles", adminTok, map[string]any{
		"name":        "Pay test",
		"principal":   500,
		"total_slots": 2,
		"type":        "INTEREST_DEFERRED",
		"period":      "weekly",
		"start_date":  time.Now().UTC().Format("2006-01-02"),
		"member_ids":  []string{a.ID, b.ID},
	})
	require.Equal(t, 201, status, env.Detail)
	circleID := decode[models.Circle](t, env.Data).ID

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("amount", "500"))
	fw, err := w.CreateFormFile("slip", "slip.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/circles/"+circleID+"/payments", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, env = h.send(req, aTok)
	require.Equal(t, 201, status, env.Detail)
	tx := decode[models.Transaction](t, env.Data)
	assert.Equal(t, models.PaymentPaid, tx.Status)
	assert.Equal(t, 1, tx.RoundNumber)
	assert.True(t, strings.HasPrefix(tx.SlipURL, "/uploads/slips/"+circleID+"/1/"), tx.SlipURL)

	assert.True(t, strings.HasSuffix(tx.SlipURL, ".png"), tx.SlipURL)

	resp, err := h.app.Test(httptest.NewRequest("GET", tx.SlipURL, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// markup is refused whatever the filename claims
	buf.Reset()
	w = multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("amount", "500"))
	fw, err = w.CreateFormFile("slip", "slip.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("<script>alert(document.cookie)</script>"))
	require.NoError(t, w.Close())
	req = httptest.NewRequest("POST", "/api/circles/"+circleID+"/payments", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, env = h.send(req, aTok)
	assert.Equal(t, 415, status)
	assert.Equal(t, "INVALID_SLIP", env.Message)

	// participants cannot pay on someone else's behalf
	form := strings.NewReader("amount=100&member_id=" + a.ID)
	req = httptest.NewRequest("POST", "/api/circles/"+circleID+"/payments", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, env = h.send(req, bTok)
	assert.Equal(t, 403, status)

	form = strings.NewReader("amount=100")
	req = httptest.NewRequest("POST", "/api/circles/"+circleID+"/payments", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, env = h.send(req, bTok)
	require.Equal(t, 201, status)
	assert.Equal(t, models.PaymentPending, decode[models.Transaction](t, env.Data).Status)

	status, env = h.do("GET", "/api/transactions", bTok, nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.Transaction](t, env.Data), 1)

	status, env = h.do("GET", "/api/transactions", adminTok, nil)
	require.Equal(t, 200, status)
	assert.Len(t, decode[[]models.Transaction](t, env.Data), 2)

	status, env = h.do("GET", "/api/circles/"+circleID+"/collection", adminTok, nil)
	require.Equal(t, 200, status)
	col := decode[struct {
		Paid  int `json:"paid"`
		Total int `json:"total"`
	}](t, env.Data)
	assert.Equal(t, 1, col.Paid)
	assert.Equal(t, 2, col.Total)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	_, tok := h.seed("Nok", models.RoleParticipant)

	status, env := h.do("PUT", "/api/me", tok, map[string]any{"prompt_pay": "0812345678", "bank_name": "SCB"})
	require.Equal(t, 200, status, env.Detail)

	status, env = h.do("GET", "/api/me", tok, nil)
	require.Equal(t, 200, status)
	me := decode[models.Member](t, env.Data)
	assert.Equal(t, "0812345678", me.PromptPay)
	assert.Equal(t, "SCB", me.BankName)

	status, env = h.do("GET", "/api/me/upcoming", tok, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "[]", string(env.Data))
}
