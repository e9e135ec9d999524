package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/server/handlers"
	"github.com/loomworks/loomledger/internal/server/router"
	ledgersvc "github.com/loomworks/loomledger/internal/service/ledger"
	productionsvc "github.com/loomworks/loomledger/internal/service/production"
	registrysvc "github.com/loomworks/loomledger/internal/service/registry"
	reportingsvc "github.com/loomworks/loomledger/internal/service/reporting"
	"github.com/loomworks/loomledger/internal/testutil"
)

type env struct {
	engine    *gin.Engine
	entries   *testutil.Productions
	takas     *testutil.Takas
	machines  *testutil.Machines
	workers   *testutil.Workers
	qualities *testutil.Qualities

	machine models.Machine
	worker  models.Worker
	quality models.QualityGrade
	taka    models.Taka
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		entries:   testutil.NewProductions(),
		takas:     testutil.NewTakas(),
		machines:  testutil.NewMachines(),
		workers:   testutil.NewWorkers(),
		qualities: testutil.NewQualities(),
	}
	e.machine = e.machines.Seed(models.Machine{MachineCode: "M-01", MachineName: "Loom 1", Status: models.MachineActive, IsActive: true})
	e.worker = e.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "Ramesh", IsActive: true})
	e.quality = e.qualities.Seed(models.QualityGrade{Name: "Cotton 60s", RatePerMeter: 10, IsActive: true})
	e.taka = e.takas.Seed(models.Taka{
		TakaNumber:   "T001",
		Machine:      e.machine.ID,
		QualityGrade: e.quality.ID,
		RatePerMeter: 10,
		Status:       models.LotActive,
	})

	bus := events.NewBus(nil)
	ledger := ledgersvc.NewService(e.takas, bus, nil)
	recorder := productionsvc.NewService(e.entries, e.takas, e.machines, e.workers, e.qualities, ledger, nil)
	reporter := reportingsvc.NewService(e.entries, e.takas, e.machines, e.workers, e.qualities, recorder, nil, nil)
	registry := registrysvc.NewService(e.machines, e.workers, e.qualities, e.takas, e.entries, ledger, recorder, nil)
	bus.SubscribeLotClosed(registry.HandleLotClosed)

	e.engine = router.New(router.Handlers{
		Productions: handlers.NewProductionHandler(recorder, reporter, nil),
		Takas:       handlers.NewTakaHandler(registry, ledger, nil),
		Machines:    handlers.NewMachineHandler(registry, nil),
		Workers:     handlers.NewWorkerHandler(registry, nil),
		Qualities:   handlers.NewQualityHandler(registry, nil),
		Dashboard:   handlers.NewDashboardHandler(reporter, nil),
		Reports:     handlers.NewReportHandler(reporter, "Salary!A:G", nil),
	}, nil)
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func (e *env) createEntryBody(meters float64) map[string]any {
	return map[string]any{
		"date":           time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"machine":        e.machine.ID.Hex(),
		"worker":         e.worker.ID.Hex(),
		"taka":           e.taka.ID.Hex(),
		"qualityType":    e.quality.ID.Hex(),
		"shift":          "Day",
		"metersProduced": meters,
	}
}

func TestCreateProduction(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(50))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if env["success"] != true {
		t.Fatalf("success = %v", env["success"])
	}
	data := env["data"].(map[string]any)
	if data["earnings"].(float64) != 500 {
		t.Fatalf("earnings = %v, want 500", data["earnings"])
	}

	taka, _ := e.takas.FindByNumber(nil, "T001")
	if taka.TotalMeters != 50 || taka.TotalEarnings != 500 {
		t.Fatalf("ledger = %v/%v, want 50/500", taka.TotalMeters, taka.TotalEarnings)
	}
}

func TestCreateProductionMissingFields(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/productions", map[string]any{"shift": "Day"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env := decodeEnvelope(t, w); env["success"] != false {
		t.Fatalf("success = %v, want false", env["success"])
	}
}

func TestCreateProductionUnknownWorker(t *testing.T) {
	e := newEnv(t)

	body := e.createEntryBody(10)
	body["worker"] = "64ffffffffffffffffffffff"
	w := e.do(t, http.MethodPost, "/api/productions", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateProductionAgainstClosedLot(t *testing.T) {
	e := newEnv(t)
	if _, err := e.takas.Transition(nil, e.taka.ID, models.LotCompleted, time.Now()); err != nil {
		t.Fatalf("transition: %v", err)
	}

	w := e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(10))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestGetProductionNotFound(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/productions/64ffffffffffffffffffffff", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/productions/nonsense", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: status = %d, want 400", w.Code)
	}
}

func TestListProductionsCount(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(50))
	e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(30))

	w := e.do(t, http.MethodGet, "/api/productions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", env["count"])
	}
}

func TestProductionSummaryByWorker(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(50))
	e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(30))

	w := e.do(t, http.MethodGet, "/api/productions/summary?groupBy=worker", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	buckets := env["data"].([]any)
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	b := buckets[0].(map[string]any)
	if b["count"].(float64) != 2 || b["totalMeters"].(float64) != 80 {
		t.Fatalf("bucket = %+v", b)
	}

	w = e.do(t, http.MethodGet, "/api/productions/summary?groupBy=loom", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad groupBy: status = %d, want 400", w.Code)
	}
}

func TestCompleteTaka(t *testing.T) {
	e := newEnv(t)
	path := fmt.Sprintf("/api/takas/%s/complete", e.taka.ID.Hex())

	w := e.do(t, http.MethodPut, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	data := env["data"].(map[string]any)
	if data["status"] != "Completed" {
		t.Fatalf("status = %v", data["status"])
	}

	// Completing again conflicts.
	w = e.do(t, http.MethodPut, path, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second complete: status = %d, want 409", w.Code)
	}
}

func TestCompleteTakaClearsMachineReference(t *testing.T) {
	e := newEnv(t)
	if err := e.machines.SetCurrentTaka(nil, e.machine.ID, e.taka.ID); err != nil {
		t.Fatalf("seed current taka: %v", err)
	}

	w := e.do(t, http.MethodPut, fmt.Sprintf("/api/takas/%s/complete", e.taka.ID.Hex()), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	m, _ := e.machines.FindByID(nil, e.machine.ID)
	if m.CurrentTaka != nil {
		t.Fatal("machine still references the completed taka")
	}
}

func TestDeleteQualityInUse(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/productions", e.createEntryBody(50))

	w := e.do(t, http.MethodDelete, "/api/qualities/"+e.quality.ID.Hex(), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestCreateMachineDuplicateCode(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/machines", map[string]any{
		"machineCode": "M-01",
		"machineName": "Loom 1 again",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}
