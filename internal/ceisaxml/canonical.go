package ceisaxml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>`

// Canonicalize serializes a declaration into its canonical XML form. The
// output is deterministic for identical field values: the message id is
// derived from the declaration id and the envelope timestamp from the
// record's last-updated stamp, never from the wall clock.
func Canonicalize(d *domain.Declaration) (string, error) {
	if d.DocumentType != domain.DocumentTypePEB && d.DocumentType != domain.DocumentTypePIB {
		return "", fmt.Errorf("unknown document type %q", d.DocumentType)
	}

	doc := declarationDoc{
		XMLName: xml.Name{Local: string(d.DocumentType)},
		Message: Envelope{
			MessageID:   "MSG-" + d.DeclarationID,
			MessageType: string(d.DocumentType),
			Timestamp:   d.LastUpdatedAt.UTC().Format(time.RFC3339),
			Version:     MessageVersion,
		},
		Header: headerBlock{
			DocumentNumber: d.DocumentNumber,
			DocumentType:   string(d.DocumentType),
		},
		Parties: partiesBlock{
			Trader:    traderBlock{Name: d.TraderName, TaxID: d.TraderTaxID},
			Consignee: consigneeBlock{Name: d.ConsigneeName},
		},
		Transport: transportBlock{
			Mode:          string(d.TransportMode),
			VesselName:    d.VesselName,
			VoyageNumber:  d.VoyageNumber,
			PortOfLoading: d.PortOfLoading,
			PortOfDest:    d.PortOfDest,
			BillOfLading:  d.BillOfLadingNumber,
			AirwayBill:    d.AirwayBillNumber,
		},
		TradeTerms: termsBlock{
			Incoterm:     d.Incoterm,
			CurrencyCode: d.CurrencyCode,
			ExchangeRate: d.ExchangeRate.String(),
		},
		Totals: totalsBlock{
			TotalValue: d.TotalValue.String(),
			TotalTax:   d.TotalTax.String(),
		},
	}
	if d.BrokerLicense != "" {
		doc.Parties.Broker = &brokerBlock{License: d.BrokerLicense}
	}
	for _, item := range d.Items {
		doc.Items.Items = append(doc.Items.Items, itemBlock{
			Sequence:    item.Sequence,
			HSCode:      item.HSCode,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitCode:    item.UnitCode,
			UnitValue:   item.UnitValue.String(),
			ItemValue:   item.ItemValue.String(),
			TaxRate:     item.TaxRate.String(),
			ItemTax:     item.ItemTax.String(),
		})
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal declaration %s: %w", d.DeclarationID, err)
	}
	return xmlProlog + "\n" + string(out), nil
}

// Hash computes the hex SHA-256 digest of an XML document after
// normalization, so cosmetic formatting differences never change the hash.
func Hash(xmlContent string) string {
	sum := sha256.Sum256([]byte(Normalize(xmlContent)))
	return hex.EncodeToString(sum[:])
}

// Normalize strips the XML prolog, comments, and all inter-tag whitespace.
func Normalize(xmlContent string) string {
	s := stripProlog(xmlContent)
	s = stripComments(s)
	return stripInterTagWhitespace(s)
}

func stripProlog(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if strings.HasPrefix(trimmed, "<?xml") {
		if end := strings.Index(trimmed, "?>"); end >= 0 {
			return trimmed[end+2:]
		}
	}
	return trimmed
}

func stripComments(s string) string {
	for {
		start := strings.Index(s, "<!--")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "-->")
		if end < 0 {
			// Unterminated comment, drop the rest.
			return s[:start]
		}
		s = s[:start] + s[start+end+3:]
	}
}

// stripInterTagWhitespace removes whitespace runs that sit between a closing
// '>' and the next '<'. Whitespace inside text content is preserved.
func stripInterTagWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '>' {
			b.WriteByte(c)
			j := i + 1
			for j < len(s) && isXMLSpace(s[j]) {
				j++
			}
			if j < len(s) && s[j] == '<' {
				i = j
				continue
			}
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return strings.TrimSpace(b.String())
}

func isXMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
