package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/byggbas/byggbas/internal/invoice"
)

func sampleInvoice() (invoice.Invoice, invoice.Customer) {
	inv := invoice.Invoice{
		ID:         1,
		CustomerID: 7,
		Number:     "INV-00042",
		IssueDate:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		Currency:   "SEK",
		Subtotal:   decimal.RequireFromString("80000"),
		VATAmount:  decimal.RequireFromString("20000"),
		Total:      decimal.RequireFromString("100000"),
	}
	cust := invoice.Customer{ID: 7, Name: "Bygg & Tak AB", OrgNumber: "556677-8899"}
	return inv, cust
}

func TestMapInvoiceFortnox(t *testing.T) {
	inv, cust := sampleInvoice()

	payload, err := MapInvoice(ProviderFortnox, inv, cust)
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var parsed map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	body := parsed["Invoice"]
	require.Equal(t, "Bygg & Tak AB", body["CustomerName"])
	require.Equal(t, "INV-00042", body["DocumentNumber"])
	require.Equal(t, "80000.00", body["Net"])
	require.Equal(t, "20000.00", body["VAT"])
	require.Equal(t, "100000.00", body["Total"])
	require.Equal(t, "2025-05-01", body["InvoiceDate"])
}

func TestMapInvoiceVisma(t *testing.T) {
	inv, cust := sampleInvoice()

	payload, err := MapInvoice(ProviderVisma, inv, cust)
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Equal(t, "Bygg & Tak AB", parsed["customerName"])
	require.Equal(t, "INV-00042", parsed["invoiceNumber"])
	require.Equal(t, "80000.00", parsed["netAmount"])
	require.Equal(t, "100000.00", parsed["grossAmount"])
	// 20000 of 80000 is 25% VAT.
	require.InDelta(t, 25.0, parsed["vatPercent"], 0.001)
}

func TestMapInvoiceUnknownProvider(t *testing.T) {
	inv, cust := sampleInvoice()
	_, err := MapInvoice(Provider("bokio"), inv, cust)
	require.Error(t, err)
}

func TestMapCustomerFortnox(t *testing.T) {
	_, cust := sampleInvoice()
	cust.Email = "faktura@byggtak.example"

	payload, err := MapCustomer(ProviderFortnox, cust)
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var parsed map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	body := parsed["Customer"]
	require.Equal(t, "Bygg & Tak AB", body["Name"])
	require.Equal(t, "556677-8899", body["OrganisationNumber"])
	require.Equal(t, "faktura@byggtak.example", body["Email"])
}

func TestMapCustomerVisma(t *testing.T) {
	_, cust := sampleInvoice()

	payload, err := MapCustomer(ProviderVisma, cust)
	require.NoError(t, err)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Equal(t, "Bygg & Tak AB", parsed["name"])
	require.Equal(t, "556677-8899", parsed["corporateIdentityNumber"])
	// Empty email is omitted rather than sent blank.
	_, present := parsed["emailAddress"]
	require.False(t, present)
}
