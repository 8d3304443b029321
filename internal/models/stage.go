package models

import "fmt"

// Stage is the workflow position of an enquiry.
type Stage string

const (
	StageEnquiry   Stage = "enquiry"
	StagePickup    Stage = "pickup"
	StageService   Stage = "service"
	StageBilling   Stage = "billing"
	StageDelivery  Stage = "delivery"
	StageCompleted Stage = "completed"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{StageEnquiry, StagePickup, StageService, StageBilling, StageDelivery, StageCompleted}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if s == st {
			return i
		}
	}
	return -1
}

// ParseStage converts a raw string into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// EnquiryStatus is the sales status of an enquiry, independent of its stage.
type EnquiryStatus string

const (
	StatusNew       EnquiryStatus = "new"
	StatusContacted EnquiryStatus = "contacted"
	StatusConverted EnquiryStatus = "converted"
	StatusClosed    EnquiryStatus = "closed"
	StatusLost      EnquiryStatus = "lost"
)

var EnquiryStatuses = []EnquiryStatus{StatusNew, StatusContacted, StatusConverted, StatusClosed, StatusLost}

func (s EnquiryStatus) Valid() bool {
	for _, st := range EnquiryStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsOpen returns true while the enquiry can still turn into work.
func (s EnquiryStatus) IsOpen() bool {
	return s == StatusNew || s == StatusContacted
}

// PickupStatus tracks the collection of an item from the customer.
type PickupStatus string

const (
	PickupScheduled PickupStatus = "scheduled"
	PickupAssigned  PickupStatus = "assigned"
	PickupCollected PickupStatus = "collected"
	PickupReceived  PickupStatus = "received"
)

// ServiceStatus tracks one service line.
type ServiceStatus string

const (
	ServicePending    ServiceStatus = "pending"
	ServiceInProgress ServiceStatus = "in-progress"
	ServiceDone       ServiceStatus = "done"
)

func (s ServiceStatus) Valid() bool {
	return s == ServicePending || s == ServiceInProgress || s == ServiceDone
}

// DeliveryStatus tracks the hand-back of a finished item.
type DeliveryStatus string

const (
	DeliveryReady          DeliveryStatus = "ready"
	DeliveryScheduled      DeliveryStatus = "scheduled"
	DeliveryOutForDelivery DeliveryStatus = "out-for-delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

// DeliveryMethod is how the customer gets the item back.
type DeliveryMethod string

const (
	DeliveryCustomerPickup DeliveryMethod = "customer-pickup"
	DeliveryHomeDelivery   DeliveryMethod = "home-delivery"
)

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryCustomerPickup || m == DeliveryHomeDelivery
}

// PaymentStatus of a bill.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)
