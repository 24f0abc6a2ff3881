package engine

import (
	"testing"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		in     string
		ns     mutation.Namespace
		verb   mutation.Verb
		family mutation.Family
	}{
		{"contacts.create", mutation.NamespaceContacts, mutation.VerbCreate, mutation.FamilyLifecycle},
		{"invoices.update", mutation.NamespaceInvoices, mutation.VerbUpdate, mutation.FamilyFieldMutation},
		{"companies.delete", mutation.NamespaceCompanies, mutation.VerbDelete, mutation.FamilyLifecycle},
		{"purchase_orders2.restore", "purchase_orders2", mutation.VerbRestore, mutation.FamilyLifecycle},
	}
	for _, tc := range cases {
		a, err := parseAction(tc.in)
		if err != nil {
			t.Fatalf("parseAction(%q): %v", tc.in, err)
		}
		if a.namespace != tc.ns || a.verb != tc.verb {
			t.Fatalf("parseAction(%q): got ns=%q verb=%q", tc.in, a.namespace, a.verb)
		}
		if a.family() != tc.family {
			t.Fatalf("family(%q): want=%s got=%s", tc.in, tc.family, a.family())
		}
		if a.String() != tc.in {
			t.Fatalf("round trip: want=%q got=%q", tc.in, a.String())
		}
	}
}

func TestParseActionRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"contacts",
		"contacts.",
		".create",
		"contacts.archive",
		"contacts.create.now",
		"Contacts.create",
		"contacts.Create",
		" contacts.create",
		"contacts.create ",
		"1contacts.create",
		"con-tacts.create",
	}
	for _, in := range bad {
		_, err := parseAction(in)
		if !mutation.IsCode(err, mutation.CodeMalformedAction) {
			t.Fatalf("parseAction(%q): want ERR_MALFORMED_ACTION, got %v", in, err)
		}
	}
}
