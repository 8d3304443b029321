package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Enquiry is one customer item moving through the repair workflow.
// CurrentStage decides which of the detail records is meaningful.
type Enquiry struct {
	ID           int             `json:"id" validate:"gt=0"`
	CustomerName string          `json:"customerName" validate:"required"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address,omitempty"`
	Email        string          `json:"email,omitempty" validate:"omitempty,email"`
	Source       string          `json:"source,omitempty"`
	ProductType  string          `json:"productType,omitempty"`
	Quantity     int             `json:"quantity,omitempty" validate:"gte=0"`
	Message      string          `json:"message,omitempty"`
	Status       EnquiryStatus   `json:"status" validate:"omitempty,oneof=new contacted converted closed lost"`
	CurrentStage Stage           `json:"currentStage" validate:"required,oneof=enquiry pickup service billing delivery completed"`
	QuotedAmount decimal.Decimal `json:"quotedAmount"`
	FinalAmount  decimal.Decimal `json:"finalAmount"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	PickupDetails   *PickupDetails   `json:"pickupDetails,omitempty"`
	ServiceDetails  *ServiceDetails  `json:"serviceDetails,omitempty"`
	DeliveryDetails *DeliveryDetails `json:"deliveryDetails,omitempty"`
	StageHistory    []StageChange    `json:"stageHistory,omitempty"`
}

func (e *Enquiry) GetID() int   { return e.ID }
func (e *Enquiry) SetID(id int) { e.ID = id }

// Billing returns the bill attached to the service record, if any.
func (e *Enquiry) Billing() *BillingDetails {
	if e.ServiceDetails == nil {
		return nil
	}
	return e.ServiceDetails.BillingDetails
}

// IsPaid returns true once the bill has been settled in full.
func (e *Enquiry) IsPaid() bool {
	b := e.Billing()
	return b != nil && b.PaymentStatus == PaymentPaid
}

// Matches reports whether q appears in the customer name, phone or product,
// ignoring case. An empty query matches everything.
func (e *Enquiry) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.CustomerName), q) ||
		strings.Contains(e.Phone, q) ||
		strings.Contains(strings.ToLower(e.ProductType), q)
}

// StageChange records one accepted stage transition.
type StageChange struct {
	From Stage     `json:"from"`
	To   Stage     `json:"to"`
	At   time.Time `json:"at"`
}

type PickupDetails struct {
	Status          PickupStatus `json:"status" validate:"omitempty,oneof=scheduled assigned collected received"`
	ScheduledAt     *time.Time   `json:"scheduledAt,omitempty"`
	AssignedTo      string       `json:"assignedTo,omitempty"`
	CollectedAt     *time.Time   `json:"collectedAt,omitempty"`
	ReceivedAt      *time.Time   `json:"receivedAt,omitempty"`
	CollectionPhoto string       `json:"collectionPhoto,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

// ServiceItem is one requested service (sole repair, polish, dye, ...).
type ServiceItem struct {
	ServiceType string          `json:"serviceType" validate:"required"`
	Status      ServiceStatus   `json:"status" validate:"omitempty,oneof=pending in-progress done"`
	BeforePhoto string          `json:"beforePhoto,omitempty"`
	AfterPhoto  string          `json:"afterPhoto,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type ServiceDetails struct {
	Items          []ServiceItem   `json:"items,omitempty" validate:"dive"`
	EstimatedCost  decimal.Decimal `json:"estimatedCost"`
	ActualCost     decimal.Decimal `json:"actualCost"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	BillingDetails *BillingDetails `json:"billingDetails,omitempty"`
}

// Item returns the service line for serviceType, or nil.
func (s *ServiceDetails) Item(serviceType string) *ServiceItem {
	for i := range s.Items {
		if s.Items[i].ServiceType == serviceType {
			return &s.Items[i]
		}
	}
	return nil
}

// AllDone reports whether every service line is finished. An empty list is not done.
func (s *ServiceDetails) AllDone() bool {
	if len(s.Items) == 0 {
		return false
	}
	for _, it := range s.Items {
		if it.Status != ServiceDone {
			return false
		}
	}
	return true
}

// TotalCost sums the per-line costs.
func (s *ServiceDetails) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Cost)
	}
	return total
}

type BillingDetails struct {
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus" validate:"omitempty,oneof=pending partial paid"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	GeneratedAt   *time.Time      `json:"generatedAt,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// Balance is what the customer still owes.
func (b *BillingDetails) Balance() decimal.Decimal {
	bal := b.Total.Sub(b.PaidAmount)
	if bal.IsNegative() {
		return decimal.Zero
	}
	return bal
}

type DeliveryDetails struct {
	Status        DeliveryStatus `json:"status" validate:"omitempty,oneof=ready scheduled out-for-delivery delivered"`
	Method        DeliveryMethod `json:"method,omitempty" validate:"omitempty,oneof=customer-pickup home-delivery"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
	DeliveredAt   *time.Time     `json:"deliveredAt,omitempty"`
	DeliveryPhoto string         `json:"deliveryPhoto,omitempty"`
	Signature     string         `json:"signature,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}
