package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/cobbler-crm/internal/models"
	"github.com/diewo77/cobbler-crm/internal/repository"
	"github.com/diewo77/cobbler-crm/internal/workflow"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BillingService turns finished service work into a bill.
type BillingService struct {
	enquiries *repository.EnquiryRepository
	business  *repository.BusinessRepository
	now       func() time.Time
}

func NewBillingService(enquiries *repository.EnquiryRepository, business *repository.BusinessRepository) *BillingService {
	return &BillingService{enquiries: enquiries, business: business, now: time.Now}
}

// BillInput carries the user-entered parts of a bill. A nil TaxRate falls
// back to the shop's configured rate.
type BillInput struct {
	Discount      decimal.Decimal
	TaxRate       *decimal.Decimal
	PaymentMethod string
}

// Compute calculates subtotal, discount, tax and total for e. The subtotal
// is the sum of service line costs, or the quoted amount when no line has a
// cost. Discount is capped at the subtotal; taxRate is a percentage.
func Compute(e *models.Enquiry, discount, taxRate decimal.Decimal) models.BillingDetails {
	subtotal := decimal.Zero
	if e.ServiceDetails != nil {
		subtotal = e.ServiceDetails.TotalCost()
	}
	if subtotal.IsZero() {
		subtotal = e.QuotedAmount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	return models.BillingDetails{
		Subtotal:      subtotal,
		Discount:      discount,
		TaxRate:       taxRate,
		TaxAmount:     tax,
		Total:         taxable.Add(tax),
		PaymentStatus: models.PaymentPending,
	}
}

// InvoiceNumber formats INV-YYYY-NNNN.
func InvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}

// NextInvoiceNumber returns the number after the highest one issued this year.
func NextInvoiceNumber(enquiries []models.Enquiry, year int) string {
	prefix := fmt.Sprintf("INV-%04d-", year)
	maxSeq := 0
	for i := range enquiries {
		b := enquiries[i].Billing()
		if b == nil || !strings.HasPrefix(b.InvoiceNumber, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(b.InvoiceNumber, prefix)); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return InvoiceNumber(year, maxSeq+1)
}

// Generate computes and stores the bill of enquiry id, which must be at the
// billing stage. An existing invoice number and recorded payments are kept.
// Returns nil when id does not exist.
func (s *BillingService) Generate(ctx context.Context, id int, in BillInput) (*models.Enquiry, error) {
	rate := decimal.Zero
	if in.TaxRate != nil {
		rate = *in.TaxRate
	} else if s.business != nil {
		info, err := s.business.Get(ctx)
		if err != nil {
			return nil, err
		}
		rate = info.TaxRate
	}

	return s.enquiries.GenerateBill(ctx, id, func(e *models.Enquiry, all []models.Enquiry, now time.Time) (models.BillingDetails, error) {
		if e.CurrentStage != models.StageBilling {
			return models.BillingDetails{}, &workflow.TransitionError{ID: id, From: e.CurrentStage, To: models.StageBilling}
		}
		bill := Compute(e, in.Discount, rate)
		bill.PaymentMethod = in.PaymentMethod
		prev := e.Billing()
		if prev == nil || prev.InvoiceNumber == "" {
			bill.InvoiceNumber = NextInvoiceNumber(all, s.now().Year())
			return bill, nil
		}
		bill.InvoiceNumber = prev.InvoiceNumber
		bill.PaidAmount = prev.PaidAmount
		if bill.PaymentMethod == "" {
			bill.PaymentMethod = prev.PaymentMethod
		}
		if bill.PaidAmount.IsPositive() {
			bill.PaymentStatus = models.PaymentPartial
			if bill.PaidAmount.GreaterThanOrEqual(bill.Total) {
				bill.PaymentStatus = models.PaymentPaid
				bill.PaidAt = prev.PaidAt
				if bill.PaidAt == nil {
					bill.PaidAt = &now
				}
			}
		}
		return bill, nil
	})
}

// Revenue sums the totals of fully paid bills.
func Revenue(enquiries []models.Enquiry) decimal.Decimal {
	total := decimal.Zero
	for i := range enquiries {
		if enquiries[i].IsPaid() {
			total = total.Add(enquiries[i].Billing().Total)
		}
	}
	return total
}

// Outstanding sums what customers still owe on unpaid bills.
func Outstanding(enquiries []models.Enquiry) decimal.Decimal {
	total := decimal.Zero
	for i := range enquiries {
		if b := enquiries[i].Billing(); b != nil {
			total = total.Add(b.Balance())
		}
	}
	return total
}
