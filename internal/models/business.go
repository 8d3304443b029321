package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BusinessInfo is the single shop profile record printed on bills.
type BusinessInfo struct {
	Name      string          `json:"name"`
	OwnerName string          `json:"ownerName,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	GSTNumber string          `json:"gstNumber,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	TaxRate   decimal.Decimal `json:"taxRate"`
}

// IsConfigured returns true once the shop name has been filled in.
func (b BusinessInfo) IsConfigured() bool {
	return strings.TrimSpace(b.Name) != ""
}
