package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/shopspring/decimal"
)

// Pickups is the adapter for /pickup/enquiries.
type Pickups struct{ c *Client }

func (c *Client) Pickups() *Pickups { return &Pickups{c: c} }

func pickupPath(id int, action string) string {
	return fmt.Sprintf("/pickup/enquiries/%d/%s", id, action)
}

func (a *Pickups) List(ctx context.Context) ([]models.Enquiry, error) {
	return listEnquiries(ctx, a.c, "/pickup/enquiries")
}

func (a *Pickups) Schedule(ctx context.Context, id int, at time.Time, notes string) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, pickupPath(id, "schedule"),
		models.SchedulePickupRequest{ScheduledAt: at, Notes: notes})
}

func (a *Pickups) Assign(ctx context.Context, id int, staff string) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, pickupPath(id, "assign"), models.AssignRequest{AssignedTo: staff})
}

func (a *Pickups) Collect(ctx context.Context, id int, photo, notes string) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, pickupPath(id, "collect"), models.CollectRequest{Photo: photo, Notes: notes})
}

func (a *Pickups) Receive(ctx context.Context, id int) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, pickupPath(id, "receive"), struct{}{})
}

// Services is the adapter for /services/enquiries.
type Services struct{ c *Client }

func (c *Client) Services() *Services { return &Services{c: c} }

func (a *Services) List(ctx context.Context) ([]models.Enquiry, error) {
	return listEnquiries(ctx, a.c, "/services/enquiries")
}

func (a *Services) UpdateItem(ctx context.Context, id int, item models.ServiceItemRequest) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, fmt.Sprintf("/services/enquiries/%d/items", id), item)
}

// Complete marks every service line done and moves the enquiry to billing.
func (a *Services) Complete(ctx context.Context, id int) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, fmt.Sprintf("/services/enquiries/%d/complete", id), struct{}{})
}

// Billing is the adapter for /billing/enquiries.
type Billing struct{ c *Client }

func (c *Client) Billing() *Billing { return &Billing{c: c} }

func (a *Billing) List(ctx context.Context) ([]models.Enquiry, error) {
	return listEnquiries(ctx, a.c, "/billing/enquiries")
}

func (a *Billing) Generate(ctx context.Context, id int, req models.BillRequest) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPost, fmt.Sprintf("/billing/enquiries/%d/generate", id), req)
}

func (a *Billing) RecordPayment(ctx context.Context, id int, amount decimal.Decimal, method string) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPost, fmt.Sprintf("/billing/enquiries/%d/payment", id),
		models.PaymentRequest{Amount: amount, PaymentMethod: method})
}

// Deliveries is the adapter for /delivery/enquiries.
type Deliveries struct{ c *Client }

func (c *Client) Deliveries() *Deliveries { return &Deliveries{c: c} }

func deliveryPath(id int, action string) string {
	return fmt.Sprintf("/delivery/enquiries/%d/%s", id, action)
}

func (a *Deliveries) List(ctx context.Context) ([]models.Enquiry, error) {
	return listEnquiries(ctx, a.c, "/delivery/enquiries")
}

func (a *Deliveries) Schedule(ctx context.Context, id int, req models.ScheduleDeliveryRequest) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, deliveryPath(id, "schedule"), req)
}

func (a *Deliveries) Dispatch(ctx context.Context, id int) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, deliveryPath(id, "dispatch"), struct{}{})
}

func (a *Deliveries) Deliver(ctx context.Context, id int, req models.DeliverRequest) (*models.Enquiry, error) {
	return writeEnquiry(ctx, a.c, http.MethodPatch, deliveryPath(id, "deliver"), req)
}
