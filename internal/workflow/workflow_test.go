package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
)

func setupService(t *testing.T) (*Service, *repository.EnquiryRepository) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a := store.NewAdapter(store.NewMemory(0), logger)
	repo := repository.NewEnquiryRepository(a, nil)
	return NewService(repo, logger), repo
}

func TestTransition_AddThenPickupScenario(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	e, err := repo.Add(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StageEnquiry})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != 1 {
		t.Fatalf("id = %d, want 1", e.ID)
	}
	ok, err := svc.TransitionToStage(ctx, 1, models.StagePickup)
	if err != nil || !ok {
		t.Fatalf("transition: ok=%v err=%v", ok, err)
	}
	pickup, _ := svc.GetByStage(ctx, models.StagePickup)
	if len(pickup) != 1 || pickup[0].ID != 1 {
		t.Errorf("pickup list = %+v", pickup)
	}
	enquiries, err := svc.GetByStage(ctx, models.StageEnquiry)
	if err != nil {
		t.Fatal(err)
	}
	if enquiries == nil || len(enquiries) != 0 {
		t.Errorf("expected empty (non-nil) enquiry list, got %#v", enquiries)
	}
}

func TestTransition_MissingIDReturnsFalse(t *testing.T) {
	svc, _ := setupService(t)
	ok, err := svc.TransitionToStage(context.Background(), 42, models.StagePickup)
	if err != nil || ok {
		t.Fatalf("expected false,nil got %v,%v", ok, err)
	}
}

func TestTransition_IllegalRejected(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	e, _ := repo.Add(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StageEnquiry})

	ok, err := svc.TransitionToStage(ctx, e.ID, models.StageBilling)
	if ok || !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got ok=%v err=%v", ok, err)
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.From != models.StageEnquiry || te.To != models.StageBilling {
		t.Errorf("unexpected error detail %#v", err)
	}
	got, _ := repo.Get(ctx, e.ID)
	if got.CurrentStage != models.StageEnquiry || len(got.StageHistory) != 0 {
		t.Errorf("rejected transition changed the enquiry: %+v", got)
	}
}

func TestTransition_UnknownStage(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	e, _ := repo.Add(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StageEnquiry})
	if _, err := svc.TransitionToStage(ctx, e.ID, "archived"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("err = %v, want ErrUnknownStage", err)
	}
	if _, err := svc.GetByStage(ctx, "archived"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("GetByStage err = %v, want ErrUnknownStage", err)
	}
}

func TestAdvance_WalksWholeChain(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	e, _ := repo.Create(ctx, models.Enquiry{CustomerName: "A"})

	for i := 1; i < len(models.Stages); i++ {
		ok, err := svc.Advance(ctx, e.ID)
		if err != nil || !ok {
			t.Fatalf("advance %d: ok=%v err=%v", i, ok, err)
		}
	}
	got, _ := repo.Get(ctx, e.ID)
	if got.CurrentStage != models.StageCompleted {
		t.Fatalf("stage = %s, want completed", got.CurrentStage)
	}
	if len(got.StageHistory) != len(models.Stages)-1 {
		t.Errorf("history length = %d", len(got.StageHistory))
	}
	if h := got.StageHistory[0]; h.From != models.StageEnquiry || h.To != models.StagePickup {
		t.Errorf("first history entry = %+v", h)
	}
	if got.Status != models.StatusConverted {
		t.Errorf("status = %s, want converted after pickup", got.Status)
	}
	if got.DeliveryDetails == nil || got.DeliveryDetails.Status != models.DeliveryReady {
		t.Errorf("delivery record not prepared: %+v", got.DeliveryDetails)
	}

	if _, err := svc.Advance(ctx, e.ID); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("advance past completed err = %v", err)
	}
}

func TestGetByStage_PreservesOrder(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	stages := []models.Stage{models.StageService, models.StageEnquiry, models.StageService, models.StageBilling, models.StageService}
	for i, st := range stages {
		_, _ = repo.Add(ctx, models.Enquiry{CustomerName: string(rune('A' + i)), CurrentStage: st})
	}
	got, _ := svc.GetByStage(ctx, models.StageService)
	if len(got) != 3 {
		t.Fatalf("got %d, want 3", len(got))
	}
	for i, want := range []int{1, 3, 5} {
		if got[i].ID != want {
			t.Errorf("position %d id = %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestCountByStage(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	_, _ = repo.Add(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StagePickup})
	_, _ = repo.Add(ctx, models.Enquiry{CustomerName: "B", CurrentStage: models.StagePickup})
	_, _ = repo.Add(ctx, models.Enquiry{CustomerName: "C", CurrentStage: models.StageDelivery})

	counts, err := svc.CountByStage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != len(models.Stages) {
		t.Errorf("expected every stage present, got %v", counts)
	}
	if counts[models.StagePickup] != 2 || counts[models.StageDelivery] != 1 || counts[models.StageEnquiry] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.Stage
		want     bool
	}{
		{models.StageEnquiry, models.StagePickup, true},
		{models.StageDelivery, models.StageCompleted, true},
		{models.StagePickup, models.StageEnquiry, false},
		{models.StageEnquiry, models.StageEnquiry, false},
		{models.StageCompleted, models.StageEnquiry, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if next := AllowedNext(models.StageCompleted); len(next) != 0 {
		t.Errorf("completed should be terminal, got %v", next)
	}
}

func TestStageActions_AdvanceWhenAtStage(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()
	e, _ := repo.Create(ctx, models.Enquiry{CustomerName: "A", CurrentStage: models.StagePickup})

	got, err := svc.Receive(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStage != models.StageService || got.PickupDetails.Status != models.PickupReceived {
		t.Errorf("after receive: stage=%s pickup=%+v", got.CurrentStage, got.PickupDetails)
	}

	got, err = svc.CompleteService(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStage != models.StageBilling || got.ServiceDetails.CompletedAt == nil {
		t.Errorf("after complete: %+v", got)
	}

	if _, err := svc.Deliver(ctx, e.ID, "", "", ""); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("deliver from billing err = %v", err)
	}
	if got, _ := repo.Get(ctx, e.ID); got.DeliveryDetails != nil {
		t.Errorf("rejected deliver must not touch the record: %+v", got.DeliveryDetails)
	}

	_, _ = svc.Advance(ctx, e.ID)
	got, err = svc.Deliver(ctx, e.ID, "", "sig", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentStage != models.StageCompleted || got.DeliveryDetails.Status != models.DeliveryDelivered {
		t.Errorf("after deliver: %+v", got)
	}

	if got, err := svc.Receive(ctx, 999); got != nil || err != nil {
		t.Errorf("missing id: %v, %v", got, err)
	}
}
