package mutation

// Namespace names an entity type ("contacts", "invoices", ...).
type Namespace string

const (
	NamespaceContacts  Namespace = "contacts"
	NamespaceCompanies Namespace = "companies"
	NamespaceInvoices  Namespace = "invoices"
)

// Namespaces lists every statically known entity namespace.
func Namespaces() []Namespace {
	return []Namespace{NamespaceContacts, NamespaceCompanies, NamespaceInvoices}
}

// Verb is the operation half of an action identifier.
type Verb string

const (
	VerbCreate  Verb = "create"
	VerbUpdate  Verb = "update"
	VerbDelete  Verb = "delete"
	VerbRestore Verb = "restore"
)

// Verbs lists the known verbs in canonical order.
func Verbs() []Verb {
	return []Verb{VerbCreate, VerbUpdate, VerbDelete, VerbRestore}
}

func (v Verb) Valid() bool {
	switch v {
	case VerbCreate, VerbUpdate, VerbDelete, VerbRestore:
		return true
	default:
		return false
	}
}

// Family groups verbs by what they do to a record.
type Family string

const (
	// FamilyLifecycle covers create, delete and restore.
	FamilyLifecycle Family = "lifecycle"
	// FamilyFieldMutation covers update.
	FamilyFieldMutation Family = "field_mutation"
)

// ActionType joins a namespace and verb into "{namespace}.{verb}".
func ActionType(ns Namespace, v Verb) string {
	return string(ns) + "." + string(v)
}
