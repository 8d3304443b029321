// Package workflow moves enquiries along the stage chain
// enquiry → pickup → service → billing → delivery → completed.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/sirupsen/logrus"
)

var (
	ErrIllegalTransition = errors.New("illegal stage transition")
	ErrUnknownStage      = errors.New("unknown stage")
)

var allowedNext = map[models.Stage][]models.Stage{
	models.StageEnquiry:   {models.StagePickup},
	models.StagePickup:    {models.StageService},
	models.StageService:   {models.StageBilling},
	models.StageBilling:   {models.StageDelivery},
	models.StageDelivery:  {models.StageCompleted},
	models.StageCompleted: {},
}

// AllowedNext lists the stages reachable from s in one step.
func AllowedNext(s models.Stage) []models.Stage {
	next := allowedNext[s]
	out := make([]models.Stage, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to models.Stage) bool {
	for _, s := range allowedNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError describes a rejected move. It matches ErrIllegalTransition.
type TransitionError struct {
	ID   int
	From models.Stage
	To   models.Stage
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("invalid transition: enquiry %d has no stage after '%s'", e.ID, e.From)
	}
	return fmt.Sprintf("invalid transition: enquiry %d cannot move from '%s' to '%s'", e.ID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrIllegalTransition }

type Service struct {
	repo *repository.EnquiryRepository
	log  *logrus.Logger
	now  func() time.Time
}

func NewService(repo *repository.EnquiryRepository, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// GetByStage returns the enquiries currently at stage, in stored order.
func (s *Service) GetByStage(ctx context.Context, stage models.Stage) ([]models.Enquiry, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	return s.repo.Filter(ctx, func(e *models.Enquiry) bool { return e.CurrentStage == stage })
}

// TransitionToStage moves enquiry id to stage to. It returns false with a
// nil error when id does not exist, and an error matching
// ErrIllegalTransition when to is not reachable from the current stage.
func (s *Service) TransitionToStage(ctx context.Context, id int, to models.Stage) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownStage, to)
	}
	var from models.Stage
	updated, err := s.repo.Mutate(ctx, id, func(e *models.Enquiry) error {
		from = e.CurrentStage
		if !CanTransition(from, to) {
			return &TransitionError{ID: id, From: from, To: to}
		}
		now := s.now()
		enter(e, to)
		e.CurrentStage = to
		e.StageHistory = append(e.StageHistory, models.StageChange{From: from, To: to, At: now})
		e.UpdatedAt = now
		return nil
	})
	log := s.log.WithFields(logrus.Fields{"module": "workflow", "id": id, "from": from, "to": to})
	if err != nil {
		log.WithError(err).Warn("stage transition rejected")
		return false, err
	}
	if updated == nil {
		return false, nil
	}
	log.Info("stage transition")
	return true, nil
}

// enter prepares the record the new stage works on.
func enter(e *models.Enquiry, to models.Stage) {
	switch to {
	case models.StagePickup:
		if e.Status.IsOpen() {
			e.Status = models.StatusConverted
		}
	case models.StageService:
		if e.ServiceDetails == nil {
			e.ServiceDetails = &models.ServiceDetails{}
		}
	case models.StageDelivery:
		if e.DeliveryDetails == nil {
			e.DeliveryDetails = &models.DeliveryDetails{Status: models.DeliveryReady}
		}
	}
}

// Advance moves id to its single next stage.
func (s *Service) Advance(ctx context.Context, id int) (bool, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil || e == nil {
		return false, err
	}
	next := allowedNext[e.CurrentStage]
	if len(next) == 0 {
		return false, &TransitionError{ID: id, From: e.CurrentStage}
	}
	return s.TransitionToStage(ctx, id, next[0])
}

// Receive marks a collected item as received at the shop and moves it
// from pickup to service.
func (s *Service) Receive(ctx context.Context, id int) (*models.Enquiry, error) {
	return s.finish(ctx, id, models.StagePickup, func(ctx context.Context) error {
		_, err := s.repo.MarkReceived(ctx, id)
		return err
	})
}

// CompleteService marks every service line done and moves the enquiry
// to billing.
func (s *Service) CompleteService(ctx context.Context, id int) (*models.Enquiry, error) {
	return s.finish(ctx, id, models.StageService, func(ctx context.Context) error {
		_, err := s.repo.CompleteService(ctx, id)
		return err
	})
}

// Deliver records the hand-over and completes the enquiry.
func (s *Service) Deliver(ctx context.Context, id int, photo, signature, notes string) (*models.Enquiry, error) {
	return s.finish(ctx, id, models.StageDelivery, func(ctx context.Context) error {
		_, err := s.repo.MarkDelivered(ctx, id, photo, signature, notes)
		return err
	})
}

// finish runs the closing action of stage at and then advances. The
// enquiry must currently be at stage at. Returns nil when id does not exist.
func (s *Service) finish(ctx context.Context, id int, at models.Stage, mark func(ctx context.Context) error) (*models.Enquiry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	next := allowedNext[at][0]
	if e.CurrentStage != at {
		return nil, &TransitionError{ID: id, From: e.CurrentStage, To: next}
	}
	if err := mark(ctx); err != nil {
		return nil, err
	}
	if _, err := s.TransitionToStage(ctx, id, next); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// CountByStage returns how many enquiries sit at each stage. Every stage
// is present in the result.
func (s *Service) CountByStage(ctx context.Context) (map[models.Stage]int, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Counts(all), nil
}

// Counts tallies enquiries per stage.
func Counts(enquiries []models.Enquiry) map[models.Stage]int {
	counts := make(map[models.Stage]int, len(models.Stages))
	for _, st := range models.Stages {
		counts[st] = 0
	}
	for _, e := range enquiries {
		counts[e.CurrentStage]++
	}
	return counts
}
