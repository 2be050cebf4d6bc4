package migrations

import (
	"fmt"
	"strings"
)

// ColumnDefinition describes a single column of a rebuilt table. The column
// list of a TableRebuild is the single source of truth for the target shape:
// removing a column means omitting it from the list.
type ColumnDefinition struct {
	Name string
	Type string
	// Constraints holds column constraints verbatim, e.g.
	// "NOT NULL DEFAULT CURRENT_TIMESTAMP".
	Constraints string
}

func (c ColumnDefinition) String() string {
	s := c.Name + " " + c.Type
	if c.Constraints != "" {
		s += " " + c.Constraints
	}
	return s
}

// IndexDefinition describes a secondary index. SQLite does not carry indexes
// over a create/copy/drop/rename sequence, so every index the rebuilt table
// should keep must be declared here and is recreated after the cutover.
type IndexDefinition struct {
	Name    string
	Columns []string
}

// CreateStatement returns the idempotent index creation statement for table.
func (i IndexDefinition) CreateStatement(table string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", i.Name, table, strings.Join(i.Columns, ", "))
}

// TableRebuild describes replacing a table with a new shape while preserving
// its rows. SQLite has no ALTER TABLE DROP COLUMN that honors foreign keys,
// so the table is rebuilt through a shadow table:
//
//  1. create the shadow table with the target shape (no-op if it already
//     exists, so a re-run after a failure before the rename is safe);
//  2. copy all rows with an explicit by-name column projection;
//  3. drop the old table;
//  4. rename the shadow table into the old name;
//  5. recreate the declared secondary indexes.
//
// The caller is expected to run the generated statements inside a single
// transaction; the migrator does this for every migration.
type TableRebuild struct {
	Table   string
	Columns []ColumnDefinition
	// TableConstraints holds table-level constraints verbatim, e.g. foreign
	// keys. They are carried into the shadow table definition.
	TableConstraints []string
	Indexes          []IndexDefinition
	// CopyColumns restricts the row copy to the named columns. When empty,
	// every declared column is copied. A column added by the rebuild (absent
	// from the source table) must be excluded here so it takes its default.
	CopyColumns []string
}

func (r *TableRebuild) shadowTable() string {
	return r.Table + "_new"
}

func (r *TableRebuild) copyColumnNames() string {
	if len(r.CopyColumns) > 0 {
		return strings.Join(r.CopyColumns, ", ")
	}

	names := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func (r *TableRebuild) createStatement() string {
	defs := make([]string, 0, len(r.Columns)+len(r.TableConstraints))
	for _, c := range r.Columns {
		defs = append(defs, c.String())
	}
	defs = append(defs, r.TableConstraints...)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", r.shadowTable(), strings.Join(defs, ", "))
}

func (r *TableRebuild) copyStatement() string {
	cols := r.copyColumnNames()
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", r.shadowTable(), cols, cols, r.Table)
}

// Statements returns the ordered statement list implementing the rebuild.
// Order is load-bearing: the copy must precede the drop, the drop must
// precede the rename, and any statement depending on the rebuilt table (such
// as dropping a table it used to reference) belongs after the returned list.
func (r *TableRebuild) Statements() []string {
	ss := []string{
		r.createStatement(),
		r.copyStatement(),
		fmt.Sprintf("DROP TABLE %s", r.Table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", r.shadowTable(), r.Table),
	}
	for _, idx := range r.Indexes {
		ss = append(ss, idx.CreateStatement(r.Table))
	}

	return ss
}
