package engine

import (
	"regexp"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// contactsHandler ignores unknown input keys.
func contactsHandler() *tableHandler {
	return &tableHandler{
		ns:    mutation.NamespaceContacts,
		table: records.Contact{}.TableName(),
		model: modelOf[records.Contact](),
		fields: newFieldSet(false,
			field{name: "name", column: "name", required: true, maxLen: 200},
			field{name: "email", column: "email", maxLen: 320, pattern: emailPattern},
			field{name: "phone", column: "phone", maxLen: 40},
			field{name: "companyId", column: "company_id", maxLen: 36, ref: records.Company{}.TableName()},
			field{name: "notes", column: "notes", maxLen: 10000},
		),
	}
}
