package rot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBuildSkatteverketXML(t *testing.T) {
	d := Deduction{
		InvoiceID:           1042,
		Kind:                KindROT,
		Percent:             30,
		LaborAmount:         decimal.RequireFromString("10000"),
		DeductionAmount:     decimal.RequireFromString("3000"),
		BuyerPersonalNumber: "198001012345",
		PropertyDesignation: "Stockholm Takpannan 1:12",
	}

	payload, err := BuildSkatteverketXML(d)
	require.NoError(t, err)

	out := string(payload)
	require.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	require.Contains(t, out, `xmlns="http://xmls.skatteverket.se/se/skatteverket/ht/begaran/6.0"`)
	require.Contains(t, out, "<Fakturanummer>1042</Fakturanummer>")
	require.Contains(t, out, "<Kopare>198001012345</Kopare>")
	require.Contains(t, out, "<Fastighetsbeteckning>Stockholm Takpannan 1:12</Fastighetsbeteckning>")
	require.Contains(t, out, "<Typ>ROT</Typ>")
	require.Contains(t, out, "<BetaltBelopp>10000.00</BetaltBelopp>")
	require.Contains(t, out, "<BegartBelopp>3000.00</BegartBelopp>")

	// Same input renders byte-identical output.
	again, err := BuildSkatteverketXML(d)
	require.NoError(t, err)
	require.Equal(t, payload, again)
}

func TestBuildSkatteverketXMLRutOmitsProperty(t *testing.T) {
	d := Deduction{
		InvoiceID:           7,
		Kind:                KindRUT,
		LaborAmount:         decimal.RequireFromString("2000"),
		DeductionAmount:     decimal.RequireFromString("1000"),
		BuyerPersonalNumber: "197505053333",
	}

	payload, err := BuildSkatteverketXML(d)
	require.NoError(t, err)
	require.NotContains(t, string(payload), "Fastighetsbeteckning")
	require.Contains(t, string(payload), "<Typ>RUT</Typ>")
}
