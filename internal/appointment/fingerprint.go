package appointment

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Fingerprint derives the idempotency key of an appointment from its start
// time and party identifiers. Two proposals with the same (start, contact,
// business, service) tuple always produce the same fingerprint, regardless of
// who submits them or which store-assigned ID they end up with.
//
// Fields are joined with an explicit delimiter so adjacent fields can never
// bleed into each other. The digest is xxhash64: stable and uniformly
// distributed, which is all a duplicate check needs. Zero-value fields still
// hash — a nil UUID contributes its canonical all-zero form.
func Fingerprint(startAt time.Time, contactID, businessID, serviceID uuid.UUID) string {
	h := xxhash.New()

	// Errors are ignored: xxhash.Digest.Write never fails.
	_, _ = h.WriteString(startAt.UTC().Format(time.RFC3339))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(contactID.String())
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(businessID.String())
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(serviceID.String())

	return fmt.Sprintf("%016x", h.Sum64())
}

// ProposalFingerprint is a convenience wrapper for computing the fingerprint
// of a not-yet-persisted proposal.
func ProposalFingerprint(p Proposal) string {
	return Fingerprint(p.StartAt, p.ContactID, p.BusinessID, p.ServiceID)
}
