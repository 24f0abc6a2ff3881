package db

import (
	"fmt"

	"github.com/yungbote/erpkernel/internal/domain/records"
	"gorm.io/gorm"
)

// searchSources lists, per entity table, the expression its search_vector is
// derived from. Only postgres maintains the column.
var searchSources = []struct {
	table string
	expr  string
}{
	{"contacts", "coalesce(NEW.name,'') || ' ' || coalesce(NEW.email,'') || ' ' || coalesce(NEW.notes,'')"},
	{"companies", "coalesce(NEW.name,'') || ' ' || coalesce(NEW.domain,'') || ' ' || coalesce(NEW.industry,'')"},
	{"invoices", "coalesce(NEW.number,'') || ' ' || coalesce(NEW.status,'')"},
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(records.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// Domain keys that must be unique per tenant.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_org_number
		ON invoices (org_id, number);
	`).Error; err != nil {
		return fmt.Errorf("create idx_invoices_org_number: %w", err)
	}
	for _, t := range []string{"contacts", "companies", "invoices"} {
		if err := db.Exec(fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_org_live ON %s (org_id, is_deleted, id);`, t, t,
		)).Error; err != nil {
			return fmt.Errorf("create idx_%s_org_live: %w", t, err)
		}
	}

	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	for _, src := range searchSources {
		if err := db.Exec(fmt.Sprintf(`
			CREATE OR REPLACE FUNCTION %[1]s_search_vector_refresh() RETURNS trigger AS $$
			BEGIN
				NEW.search_vector := to_tsvector('simple', %[2]s);
				RETURN NEW;
			END
			$$ LANGUAGE plpgsql;
		`, src.table, src.expr)).Error; err != nil {
			return fmt.Errorf("create %s search function: %w", src.table, err)
		}
		if err := db.Exec(fmt.Sprintf(`DROP TRIGGER IF EXISTS trg_%[1]s_search_vector ON %[1]s;`, src.table)).Error; err != nil {
			return fmt.Errorf("drop %s search trigger: %w", src.table, err)
		}
		if err := db.Exec(fmt.Sprintf(`
			CREATE TRIGGER trg_%[1]s_search_vector
			BEFORE INSERT OR UPDATE ON %[1]s
			FOR EACH ROW EXECUTE FUNCTION %[1]s_search_vector_refresh();
		`, src.table)).Error; err != nil {
			return fmt.Errorf("create %s search trigger: %w", src.table, err)
		}
		if err := db.Exec(fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%[1]s_search_vector ON %[1]s USING GIN (search_vector);`, src.table,
		)).Error; err != nil {
			return fmt.Errorf("create %s search index: %w", src.table, err)
		}
	}
	return nil
}
