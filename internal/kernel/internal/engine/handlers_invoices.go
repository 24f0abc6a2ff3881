package engine

import (
	"regexp"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

var invoiceStatuses = []string{"draft", "sent", "paid", "void"}

// invoicesHandler rejects unknown input keys.
func invoicesHandler() *tableHandler {
	return &tableHandler{
		ns:    mutation.NamespaceInvoices,
		table: records.Invoice{}.TableName(),
		model: modelOf[records.Invoice](),
		fields: newFieldSet(true,
			field{name: "number", column: "number", required: true, maxLen: 64},
			field{name: "contactId", column: "contact_id", maxLen: 36, ref: records.Contact{}.TableName()},
			field{name: "currency", column: "currency", upper: true, pattern: currencyPattern, dflt: "USD"},
			field{name: "amountCents", column: "amount_cents", kind: kindInt, min: int64Ptr(0), dflt: int64(0)},
			field{name: "dueDate", column: "due_date", kind: kindDate},
			field{name: "status", column: "status", enum: invoiceStatuses, dflt: "draft"},
		),
	}
}
