package integration

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/byggbas/byggbas/internal/invoice"
)

var oneHundredDec = decimal.NewFromInt(100)

// Fortnox wraps the invoice in an "Invoice" envelope, uses customer numbers
// and carries VAT as a separate row-level amount.
type fortnoxInvoice struct {
	Invoice fortnoxInvoiceBody `json:"Invoice"`
}

type fortnoxInvoiceBody struct {
	CustomerName   string `json:"CustomerName"`
	OrganisationNr string `json:"OrganisationNumber,omitempty"`
	InvoiceNumber  string `json:"DocumentNumber"`
	InvoiceDate    string `json:"InvoiceDate"`
	DueDate        string `json:"DueDate"`
	Currency       string `json:"Currency"`
	Net            string `json:"Net"`
	VAT            string `json:"VAT"`
	Total          string `json:"Total"`
}

// Visma uses flat lowerCamel fields and expresses VAT as a percentage plus a
// gross amount.
type vismaInvoice struct {
	CustomerName  string  `json:"customerName"`
	CustomerOrgNo string  `json:"customerOrgNo,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber"`
	InvoiceDate   string  `json:"invoiceDate"`
	DueDate       string  `json:"dueDate"`
	CurrencyCode  string  `json:"currencyCode"`
	NetAmount     string  `json:"netAmount"`
	VatPercent    float64 `json:"vatPercent"`
	GrossAmount   string  `json:"grossAmount"`
}

// MapInvoice renders the provider payload for an invoice push.
func MapInvoice(provider Provider, inv invoice.Invoice, cust invoice.Customer) (any, error) {
	const dateFormat = "2006-01-02"
	switch provider {
	case ProviderFortnox:
		return fortnoxInvoice{Invoice: fortnoxInvoiceBody{
			CustomerName:   cust.Name,
			OrganisationNr: cust.OrgNumber,
			InvoiceNumber:  inv.Number,
			InvoiceDate:    inv.IssueDate.Format(dateFormat),
			DueDate:        inv.DueDate.Format(dateFormat),
			Currency:       inv.Currency,
			Net:            inv.Subtotal.StringFixed(2),
			VAT:            inv.VATAmount.StringFixed(2),
			Total:          inv.Total.StringFixed(2),
		}}, nil
	case ProviderVisma:
		var vatPercent float64
		if !inv.Subtotal.IsZero() {
			vatPercent, _ = inv.VATAmount.Div(inv.Subtotal).Mul(oneHundredDec).Round(2).Float64()
		}
		return vismaInvoice{
			CustomerName:  cust.Name,
			CustomerOrgNo: cust.OrgNumber,
			InvoiceNumber: inv.Number,
			InvoiceDate:   inv.IssueDate.Format(dateFormat),
			DueDate:       inv.DueDate.Format(dateFormat),
			CurrencyCode:  inv.Currency,
			NetAmount:     inv.Subtotal.StringFixed(2),
			VatPercent:    vatPercent,
			GrossAmount:   inv.Total.StringFixed(2),
		}, nil
	default:
		return nil, fmt.Errorf("integration: unknown provider %q", provider)
	}
}

type fortnoxCustomer struct {
	Customer fortnoxCustomerBody `json:"Customer"`
}

type fortnoxCustomerBody struct {
	Name           string `json:"Name"`
	OrganisationNr string `json:"OrganisationNumber,omitempty"`
	Email          string `json:"Email,omitempty"`
}

type vismaCustomer struct {
	Name                    string `json:"name"`
	CorporateIdentityNumber string `json:"corporateIdentityNumber,omitempty"`
	EmailAddress            string `json:"emailAddress,omitempty"`
}

// MapCustomer renders the provider payload for a customer push.
func MapCustomer(provider Provider, cust invoice.Customer) (any, error) {
	switch provider {
	case ProviderFortnox:
		return fortnoxCustomer{Customer: fortnoxCustomerBody{
			Name:           cust.Name,
			OrganisationNr: cust.OrgNumber,
			Email:          cust.Email,
		}}, nil
	case ProviderVisma:
		return vismaCustomer{
			Name:                    cust.Name,
			CorporateIdentityNumber: cust.OrgNumber,
			EmailAddress:            cust.Email,
		}, nil
	default:
		return nil, fmt.Errorf("integration: unknown provider %q", provider)
	}
}
