// Package delivery is the delivery-channel collaborator: it transmits a
// generated document to a recipient. Delivery failures are surfaced to the
// batch report but never change a record's generation outcome.
package delivery

import (
	"context"
	"errors"
	"strings"

	"github.com/oakrise/docstamp/internal/docstore"
)

// ErrEmptyRecipient signals a blank or whitespace-only recipient address.
var ErrEmptyRecipient = errors.New("recipient is empty")

// Message is one outbound delivery.
type Message struct {
	Recipient string
	Subject   string
	Body      string
	CC        []string
	BCC       []string
	File      docstore.FileRef
}

// Deliverer transmits a generated document to a recipient.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// ValidateRecipient rejects blank or whitespace-only recipients.
func ValidateRecipient(recipient string) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrEmptyRecipient
	}
	return nil
}
