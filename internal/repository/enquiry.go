package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/cobbler-crm/internal/images"
	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrNoBill          = errors.New("enquiry has no bill")
	ErrInvalidPayment  = errors.New("payment amount must be positive")
	ErrUnknownService  = errors.New("unknown service type")
	ErrInvalidDelivery = errors.New("invalid delivery method")
)

// EnquiryRepository is the enquiry collection plus the per-stage
// "mark" operations that set a status field and its timestamp.
type EnquiryRepository struct {
	*Collection[models.Enquiry, *models.Enquiry]
	images *images.Store
	now    func() time.Time
}

// NewEnquiryRepository builds the repository. imgs may be nil, in which
// case photos stay embedded in the enquiry.
func NewEnquiryRepository(a *store.Adapter, imgs *images.Store) *EnquiryRepository {
	return &EnquiryRepository{
		Collection: NewCollection[models.Enquiry](a, store.KeyEnquiries),
		images:     imgs,
		now:        time.Now,
	}
}

// Create fills defaults (status new, stage enquiry, timestamps) and adds e.
func (r *EnquiryRepository) Create(ctx context.Context, e models.Enquiry) (models.Enquiry, error) {
	now := r.now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = models.StatusNew
	}
	if e.CurrentStage == "" {
		e.CurrentStage = models.StageEnquiry
	}
	return r.Add(ctx, e)
}

// Delete removes the enquiry and its side-store images.
func (r *EnquiryRepository) Delete(ctx context.Context, id int) (bool, error) {
	found, err := r.Collection.Delete(ctx, id)
	if err != nil || !found || r.images == nil {
		return found, err
	}
	if _, err := r.images.DeleteForEnquiry(ctx, id); err != nil {
		return true, err
	}
	return true, nil
}

// Search filters by customer name, phone or product.
func (r *EnquiryRepository) Search(ctx context.Context, q string) ([]models.Enquiry, error) {
	return r.Filter(ctx, func(e *models.Enquiry) bool { return e.Matches(q) })
}

func (r *EnquiryRepository) mutate(ctx context.Context, id int, fn func(e *models.Enquiry, now time.Time) error) (*models.Enquiry, error) {
	return r.Mutate(ctx, id, func(e *models.Enquiry) error {
		now := r.now()
		if err := fn(e, now); err != nil {
			return err
		}
		e.UpdatedAt = now
		return nil
	})
}

func (r *EnquiryRepository) photo(ctx context.Context, id int, stage models.Stage, kind, value string) (string, error) {
	if r.images == nil {
		return value, nil
	}
	return r.images.Externalize(ctx, id, stage, kind, value)
}

func (r *EnquiryRepository) SetStatus(ctx context.Context, id int, status models.EnquiryStatus) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, _ time.Time) error {
		e.Status = status
		return nil
	})
}

func pickup(e *models.Enquiry) *models.PickupDetails {
	if e.PickupDetails == nil {
		e.PickupDetails = &models.PickupDetails{}
	}
	return e.PickupDetails
}

func (r *EnquiryRepository) SchedulePickup(ctx context.Context, id int, at time.Time, notes string) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, _ time.Time) error {
		p := pickup(e)
		p.Status = models.PickupScheduled
		p.ScheduledAt = &at
		if notes != "" {
			p.Notes = notes
		}
		return nil
	})
}

func (r *EnquiryRepository) AssignPickup(ctx context.Context, id int, staff string) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, _ time.Time) error {
		p := pickup(e)
		p.Status = models.PickupAssigned
		p.AssignedTo = staff
		return nil
	})
}

func (r *EnquiryRepository) MarkCollected(ctx context.Context, id int, photo, notes string) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		ref, err := r.photo(ctx, id, models.StagePickup, "collection", photo)
		if err != nil {
			return err
		}
		p := pickup(e)
		p.Status = models.PickupCollected
		p.CollectedAt = &now
		if ref != "" {
			p.CollectionPhoto = ref
		}
		if notes != "" {
			p.Notes = notes
		}
		return nil
	})
}

func (r *EnquiryRepository) MarkReceived(ctx context.Context, id int) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		p := pickup(e)
		p.Status = models.PickupReceived
		p.ReceivedAt = &now
		return nil
	})
}

// ServiceItemUpdate changes one service line. Zero fields are left alone.
type ServiceItemUpdate struct {
	ServiceType string
	Status      models.ServiceStatus
	BeforePhoto string
	AfterPhoto  string
	Cost        *decimal.Decimal
}

// UpdateServiceItem creates or updates a service line and keeps the
// aggregate costs and start/completion timestamps in step.
func (r *EnquiryRepository) UpdateServiceItem(ctx context.Context, id int, u ServiceItemUpdate) (*models.Enquiry, error) {
	if u.ServiceType == "" {
		return nil, ErrUnknownService
	}
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		before, err := r.photo(ctx, id, models.StageService, u.ServiceType+"_before", u.BeforePhoto)
		if err != nil {
			return err
		}
		after, err := r.photo(ctx, id, models.StageService, u.ServiceType+"_after", u.AfterPhoto)
		if err != nil {
			return err
		}
		if e.ServiceDetails == nil {
			e.ServiceDetails = &models.ServiceDetails{}
		}
		sd := e.ServiceDetails
		item := sd.Item(u.ServiceType)
		if item == nil {
			sd.Items = append(sd.Items, models.ServiceItem{ServiceType: u.ServiceType, Status: models.ServicePending})
			item = &sd.Items[len(sd.Items)-1]
		}
		if u.Status != "" {
			item.Status = u.Status
		}
		if before != "" {
			item.BeforePhoto = before
		}
		if after != "" {
			item.AfterPhoto = after
		}
		if u.Cost != nil {
			item.Cost = *u.Cost
		}
		item.UpdatedAt = &now

		if sd.StartedAt == nil && item.Status != models.ServicePending {
			sd.StartedAt = &now
		}
		sd.ActualCost = sd.TotalCost()
		if sd.AllDone() {
			if sd.CompletedAt == nil {
				sd.CompletedAt = &now
			}
		} else {
			sd.CompletedAt = nil
		}
		return nil
	})
}

// SetBilling stores the bill and copies its total into FinalAmount.
func (r *EnquiryRepository) SetBilling(ctx context.Context, id int, b models.BillingDetails) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		if e.ServiceDetails == nil {
			e.ServiceDetails = &models.ServiceDetails{}
		}
		if b.GeneratedAt == nil {
			b.GeneratedAt = &now
		}
		if b.PaymentStatus == "" {
			b.PaymentStatus = models.PaymentPending
		}
		e.ServiceDetails.BillingDetails = &b
		e.FinalAmount = b.Total
		return nil
	})
}

// BillFunc builds the bill of e. all is the whole collection as read under
// the collection lock.
type BillFunc func(e *models.Enquiry, all []models.Enquiry, now time.Time) (models.BillingDetails, error)

// GenerateBill builds and stores the bill of id in one locked step, so the
// invoice sequence and any recorded payments are read from the same
// snapshot that gets written back. Returns nil when id does not exist.
func (r *EnquiryRepository) GenerateBill(ctx context.Context, id int, build BillFunc) (*models.Enquiry, error) {
	return r.MutateWith(ctx, id, func(e *models.Enquiry, all []models.Enquiry) error {
		now := r.now()
		b, err := build(e, all, now)
		if err != nil {
			return err
		}
		if b.GeneratedAt == nil {
			b.GeneratedAt = &now
		}
		if b.PaymentStatus == "" {
			b.PaymentStatus = models.PaymentPending
		}
		if e.ServiceDetails == nil {
			e.ServiceDetails = &models.ServiceDetails{}
		}
		e.ServiceDetails.BillingDetails = &b
		e.FinalAmount = b.Total
		e.UpdatedAt = now
		return nil
	})
}

// RecordPayment adds amount to the bill and moves it to partial or paid.
func (r *EnquiryRepository) RecordPayment(ctx context.Context, id int, amount decimal.Decimal, method string) (*models.Enquiry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPayment
	}
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		b := e.Billing()
		if b == nil {
			return ErrNoBill
		}
		b.PaidAmount = b.PaidAmount.Add(amount)
		if method != "" {
			b.PaymentMethod = method
		}
		if b.PaidAmount.GreaterThanOrEqual(b.Total) {
			b.PaymentStatus = models.PaymentPaid
			b.PaidAt = &now
		} else {
			b.PaymentStatus = models.PaymentPartial
		}
		return nil
	})
}

func delivery(e *models.Enquiry) *models.DeliveryDetails {
	if e.DeliveryDetails == nil {
		e.DeliveryDetails = &models.DeliveryDetails{Status: models.DeliveryReady}
	}
	return e.DeliveryDetails
}

// ScheduleDelivery records how and when the item goes back. A zero at
// means the item is ready and waiting.
func (r *EnquiryRepository) ScheduleDelivery(ctx context.Context, id int, method models.DeliveryMethod, at time.Time) (*models.Enquiry, error) {
	if !method.Valid() {
		return nil, ErrInvalidDelivery
	}
	return r.mutate(ctx, id, func(e *models.Enquiry, _ time.Time) error {
		d := delivery(e)
		d.Method = method
		if at.IsZero() {
			d.Status = models.DeliveryReady
			d.ScheduledAt = nil
		} else {
			d.Status = models.DeliveryScheduled
			d.ScheduledAt = &at
		}
		return nil
	})
}

func (r *EnquiryRepository) MarkOutForDelivery(ctx context.Context, id int) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, _ time.Time) error {
		d := delivery(e)
		d.Status = models.DeliveryOutForDelivery
		if d.Method == "" {
			d.Method = models.DeliveryHomeDelivery
		}
		return nil
	})
}

func (r *EnquiryRepository) MarkDelivered(ctx context.Context, id int, photo, signature, notes string) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		ref, err := r.photo(ctx, id, models.StageDelivery, "proof", photo)
		if err != nil {
			return err
		}
		sig, err := r.photo(ctx, id, models.StageDelivery, "signature", signature)
		if err != nil {
			return err
		}
		d := delivery(e)
		d.Status = models.DeliveryDelivered
		d.DeliveredAt = &now
		if ref != "" {
			d.DeliveryPhoto = ref
		}
		if sig != "" {
			d.Signature = sig
		}
		if notes != "" {
			d.Notes = notes
		}
		return nil
	})
}

// CompleteService marks every service line done and stamps the completion
// time.
func (r *EnquiryRepository) CompleteService(ctx context.Context, id int) (*models.Enquiry, error) {
	return r.mutate(ctx, id, func(e *models.Enquiry, now time.Time) error {
		if e.ServiceDetails == nil {
			e.ServiceDetails = &models.ServiceDetails{}
		}
		sd := e.ServiceDetails
		for i := range sd.Items {
			if sd.Items[i].Status != models.ServiceDone {
				sd.Items[i].Status = models.ServiceDone
				sd.Items[i].UpdatedAt = &now
			}
		}
		if sd.StartedAt == nil {
			sd.StartedAt = &now
		}
		if sd.CompletedAt == nil {
			sd.CompletedAt = &now
		}
		sd.ActualCost = sd.TotalCost()
		return nil
	})
}
