package engine

import (
	"regexp"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/domain/records"
)

var (
	domainPattern  = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// companiesHandler ignores unknown input keys.
func companiesHandler() *tableHandler {
	return &tableHandler{
		ns:    mutation.NamespaceCompanies,
		table: records.Company{}.TableName(),
		model: modelOf[records.Company](),
		fields: newFieldSet(false,
			field{name: "name", column: "name", required: true, maxLen: 200},
			field{name: "domain", column: "domain", maxLen: 253, pattern: domainPattern},
			field{name: "industry", column: "industry", maxLen: 100},
			field{name: "country", column: "country", upper: true, pattern: countryPattern},
		),
	}
}
