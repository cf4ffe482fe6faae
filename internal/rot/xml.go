package rot

import (
	"encoding/xml"
	"fmt"
)

// Skatteverket request payload. The shape mirrors the authority's
// husarbete-begaran format closely enough for the submission pipeline; the
// payload is not validated against the official XSD.
type begaran struct {
	XMLName    xml.Name    `xml:"Begaran"`
	Namespace  string      `xml:"xmlns,attr"`
	Husarbeten []husarbete `xml:"HusarbeteBegaran"`
}

type husarbete struct {
	Fakturanummer        int64  `xml:"Fakturanummer"`
	Kopare               string `xml:"Kopare"`
	Fastighetsbeteckning string `xml:"Fastighetsbeteckning,omitempty"`
	Typ                  string `xml:"Typ"`
	BetaltBelopp         string `xml:"BetaltBelopp"`
	BegartBelopp         string `xml:"BegartBelopp"`
}

// BuildSkatteverketXML renders the deduction as a Skatteverket request
// document. Output is deterministic for a given deduction.
func BuildSkatteverketXML(d Deduction) ([]byte, error) {
	doc := begaran{
		Namespace: "http://xmls.skatteverket.se/se/skatteverket/ht/begaran/6.0",
		Husarbeten: []husarbete{{
			Fakturanummer:        d.InvoiceID,
			Kopare:               d.BuyerPersonalNumber,
			Fastighetsbeteckning: d.PropertyDesignation,
			Typ:                  string(d.Kind),
			BetaltBelopp:         d.LaborAmount.StringFixed(2),
			BegartBelopp:         d.DeductionAmount.StringFixed(2),
		}},
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rot: marshal skatteverket payload: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
