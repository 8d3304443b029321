package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request bodies of the workflow endpoints, shared by the local server and
// the API client.

type StatusRequest struct {
	Status EnquiryStatus `json:"status"`
}

type StageRequest struct {
	Stage Stage `json:"stage"`
}

type SchedulePickupRequest struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes,omitempty"`
}

type AssignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

type CollectRequest struct {
	Photo string `json:"photo,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type ServiceItemRequest struct {
	ServiceType string           `json:"serviceType"`
	Status      ServiceStatus    `json:"status,omitempty"`
	BeforePhoto string           `json:"beforePhoto,omitempty"`
	AfterPhoto  string           `json:"afterPhoto,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
}

type BillRequest struct {
	Discount      decimal.Decimal  `json:"discount"`
	TaxRate       *decimal.Decimal `json:"taxRate,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
}

type PaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

type ScheduleDeliveryRequest struct {
	Method      DeliveryMethod `json:"method"`
	ScheduledAt *time.Time     `json:"scheduledAt,omitempty"`
}

type DeliverRequest struct {
	Photo     string `json:"photo,omitempty"`
	Signature string `json:"signature,omitempty"`
	Notes     string `json:"notes,omitempty"`
}
