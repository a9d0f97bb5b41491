package notify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/quote-service/internal/domain"
)

// Kind selects the wording of a notification.
type Kind string

const (
	KindQuoteCreated   Kind = "quote_created"
	KindQuoteAssigned  Kind = "quote_assigned"
	KindSupplierQuoted Kind = "supplier_quoted"
	KindQuoteQuoted    Kind = "quote_quoted"
	KindQuoteRejected  Kind = "quote_rejected"
)

// Render builds the subject and body for kind. appURL is the public address
// of the web client; it may be empty.
func Render(kind Kind, q *domain.Quote, appURL string) (subject, body string) {
	link := strings.TrimRight(appURL, "/") + "/quotes/" + q.ID
	switch kind {
	case KindQuoteCreated:
		subject = fmt.Sprintf("New quote request %s", q.Number)
		body = fmt.Sprintf("A new quote request \"%s\" was submitted and is waiting to be routed.", q.Title)
	case KindQuoteAssigned:
		subject = fmt.Sprintf("Quote request %s assigned to you", q.Number)
		body = fmt.Sprintf("You have been asked to price \"%s\". Please upload your quote.", q.Title)
	case KindSupplierQuoted:
		subject = fmt.Sprintf("Supplier quote received for %s", q.Number)
		body = fmt.Sprintf("A supplier confirmed a quote for \"%s\".", q.Title)
	case KindQuoteQuoted:
		subject = fmt.Sprintf("Your quote %s is ready", q.Number)
		body = fmt.Sprintf("The final quote for \"%s\" is available for download.", q.Title)
	case KindQuoteRejected:
		subject = fmt.Sprintf("Quote %s was rejected", q.Number)
		body = fmt.Sprintf("The quote for \"%s\" was rejected.", q.Title)
		if q.RejectReason != nil {
			body += "\nReason: " + *q.RejectReason
		}
	default:
		subject = fmt.Sprintf("Update on quote %s", q.Number)
		body = fmt.Sprintf("Quote \"%s\" was updated.", q.Title)
	}
	return subject, body + "\n\n" + link + "\n"
}
