package registry

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loomworks/loomledger/internal/domain/errs"
	"github.com/loomworks/loomledger/internal/domain/models"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/service/ledger"
	"github.com/loomworks/loomledger/internal/service/production"
	"github.com/loomworks/loomledger/internal/testutil"
)

type fixture struct {
	svc       *Service
	machines  *testutil.Machines
	workers   *testutil.Workers
	qualities *testutil.Qualities
	takas     *testutil.Takas
	entries   *testutil.Productions

	machine models.Machine
	worker  models.Worker
	quality models.QualityGrade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		machines:  testutil.NewMachines(),
		workers:   testutil.NewWorkers(),
		qualities: testutil.NewQualities(),
		takas:     testutil.NewTakas(),
		entries:   testutil.NewProductions(),
	}
	f.machine = f.machines.Seed(models.Machine{MachineCode: "M-01", MachineName: "Loom 1", Status: models.MachineActive, IsActive: true})
	f.worker = f.workers.Seed(models.Worker{WorkerCode: "W-01", Name: "Ramesh", IsActive: true})
	f.quality = f.qualities.Seed(models.QualityGrade{Name: "Cotton 60s", RatePerMeter: 10, IsActive: true})

	bus := events.NewBus(nil)
	led := ledger.NewService(f.takas, bus, nil)
	recorder := production.NewService(f.entries, f.takas, f.machines, f.workers, f.qualities, led, nil)
	f.svc = NewService(f.machines, f.workers, f.qualities, f.takas, f.entries, led, recorder, nil)
	bus.SubscribeLotClosed(f.svc.HandleLotClosed)
	return f
}

func TestCreateTakaSnapshotsRate(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateTaka(context.Background(), TakaCreateRequest{
		TakaNumber: "T001",
		MachineID:  f.machine.ID.Hex(),
		QualityID:  f.quality.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTaka: %v", err)
	}
	if d.RatePerMeter != 10 {
		t.Errorf("RatePerMeter = %v, want the grade's rate 10", d.RatePerMeter)
	}
	if d.Status != models.LotActive {
		t.Errorf("Status = %s, want Active", d.Status)
	}

	// The machine now points at the fresh lot.
	m, err := f.machines.FindByID(context.Background(), f.machine.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if m.CurrentTaka == nil || *m.CurrentTaka != d.ID {
		t.Error("machine does not reference the new taka")
	}
}

func TestCreateTakaDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	req := TakaCreateRequest{TakaNumber: "T001", MachineID: f.machine.ID.Hex(), QualityID: f.quality.ID.Hex()}

	if _, err := f.svc.CreateTaka(context.Background(), req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.CreateTaka(context.Background(), req)
	if !errs.IsConflict(err) {
		t.Fatalf("duplicate number: err = %v, want conflict", err)
	}
}

func TestCreateTakaUnknownMachine(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTaka(context.Background(), TakaCreateRequest{
		TakaNumber: "T001",
		MachineID:  primitive.NewObjectID().Hex(),
		QualityID:  f.quality.ID.Hex(),
	})
	if !errs.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateTakaNegativeTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTaka(context.Background(), TakaCreateRequest{
		TakaNumber:   "T001",
		MachineID:    f.machine.ID.Hex(),
		QualityID:    f.quality.ID.Hex(),
		TargetMeters: -5,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestDeleteTakaClearsMachineReference(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.CreateTaka(context.Background(), TakaCreateRequest{
		TakaNumber: "T001",
		MachineID:  f.machine.ID.Hex(),
		QualityID:  f.quality.ID.Hex(),
	})
	if err != nil {
		t.Fatalf("CreateTaka: %v", err)
	}

	if err := f.svc.DeleteTaka(context.Background(), d.ID); err != nil {
		t.Fatalf("DeleteTaka: %v", err)
	}

	if _, err := f.takas.FindByID(context.Background(), d.ID); !errs.IsNotFound(err) {
		t.Fatalf("taka still present: %v", err)
	}
	m, _ := f.machines.FindByID(context.Background(), f.machine.ID)
	if m.CurrentTaka != nil {
		t.Error("machine still references the deleted taka")
	}
}

func TestUpdateTakaLeavesLedgerFields(t *testing.T) {
	f := newFixture(t)

	seeded := f.takas.Seed(models.Taka{
		TakaNumber:    "T001",
		Machine:       f.machine.ID,
		QualityGrade:  f.quality.ID,
		RatePerMeter:  10,
		TotalMeters:   40,
		TotalEarnings: 400,
		Status:        models.LotActive,
	})

	notes := "urgent order"
	got, err := f.svc.UpdateTaka(context.Background(), seeded.ID, TakaUpdateRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateTaka: %v", err)
	}
	if got.Notes != "urgent order" {
		t.Errorf("Notes = %q", got.Notes)
	}
	if got.TotalMeters != 40 || got.TotalEarnings != 400 {
		t.Errorf("ledger fields changed: %v/%v, want 40/400", got.TotalMeters, got.TotalEarnings)
	}
}

func TestCreateQualityRequiresNonNegativeRate(t *testing.T) {
	f := newFixture(t)

	rate := -1.0
	_, err := f.svc.CreateQuality(context.Background(), QualityCreateRequest{Name: "Silk 20s", RatePerMeter: &rate})
	if !errs.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateQualityDuplicateName(t *testing.T) {
	f := newFixture(t)

	rate := 15.0
	_, err := f.svc.CreateQuality(context.Background(), QualityCreateRequest{Name: "Cotton 60s", RatePerMeter: &rate})
	if !errs.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDeleteQualityReferencedByEntries(t *testing.T) {
	f := newFixture(t)

	f.entries.Seed(models.Production{
		Date:           time.Now(),
		Machine:        f.machine.ID,
		Worker:         f.worker.ID,
		QualityGrade:   f.quality.ID,
		Shift:          models.ShiftDay,
		MetersProduced: 10,
		Earnings:       100,
	})

	if err := f.svc.DeleteQuality(context.Background(), f.quality.ID); !errs.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestDeleteQualityUnreferenced(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.DeleteQuality(context.Background(), f.quality.ID); err != nil {
		t.Fatalf("DeleteQuality: %v", err)
	}
	q, err := f.qualities.FindByID(context.Background(), f.quality.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if q.IsActive {
		t.Error("grade still live after delete")
	}
}

func TestCreateMachineDuplicateCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateMachine(context.Background(), MachineCreateRequest{
		MachineCode: "M-01",
		MachineName: "Loom 1 again",
	})
	if !errs.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestAssignWorker(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.AssignWorker(context.Background(), f.machine.ID, AssignWorkerRequest{
		WorkerID: f.worker.ID.Hex(),
		Shift:    models.ShiftNight,
	})
	if err != nil {
		t.Fatalf("AssignWorker: %v", err)
	}
	if m.NightShiftWorker == nil || *m.NightShiftWorker != f.worker.ID {
		t.Error("night slot not bound to the worker")
	}

	_, err = f.svc.AssignWorker(context.Background(), f.machine.ID, AssignWorkerRequest{
		WorkerID: f.worker.ID.Hex(),
		Shift:    "Evening",
	})
	if !errs.IsValidation(err) {
		t.Fatalf("bad shift: err = %v, want validation", err)
	}
}

func TestCreateWorkerDuplicateCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWorker(context.Background(), WorkerCreateRequest{WorkerCode: "W-01", Name: "Suresh"})
	if !errs.IsConflict(err) {
		t.Fatalf("err = %v, want conflict", err)
	}
}
