package convert

import "strings"

// extractHeader runs the profile's regex set against the full document text.
// It never fails: fields that don't match stay empty and are judged by the
// caller against the profile's requirements.
func extractHeader(fullText string, cp *compiledProfile) HeaderFields {
	var h HeaderFields

	if cp.orderDate != nil {
		if m := cp.orderDate.FindStringSubmatch(fullText); m != nil {
			h.OrderDate = m[1]
		}
	}
	if cp.deliveryDate != nil {
		if m := cp.deliveryDate.FindStringSubmatch(fullText); m != nil {
			h.DeliveryDate = m[1]
		}
	}
	if cp.orderNumber != nil {
		if m := cp.orderNumber.FindStringSubmatch(fullText); m != nil {
			h.OrderNumber = m[1]
		}
	}
	// Some revisions print "Bestell-Nr.: L 001/0002" instead; tried only
	// when the primary pattern found nothing.
	if h.OrderNumber == "" && cp.orderNumberAlt != nil {
		if m := cp.orderNumberAlt.FindStringSubmatch(fullText); m != nil {
			h.OrderNumber = strings.TrimSpace(m[1])
		}
	}
	if cp.address != nil {
		if m := cp.address.FindStringSubmatch(fullText); m != nil {
			h.AddressBlock = strings.ToUpper(Normalize(m[1]))
		}
	}
	return h
}
