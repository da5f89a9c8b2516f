package models

// Column describes one column of an introspected table.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"primary_key"`
	Default    *string `json:"default,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// HasColumn reports whether the table declares a column with the given name.
func (t Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// PrimaryKeys returns the primary key column names in declaration order.
func (t Table) PrimaryKeys() []string {
	var pks []string
	for _, col := range t.Columns {
		if col.PrimaryKey {
			pks = append(pks, col.Name)
		}
	}
	return pks
}

// Relationship is a declared foreign key. FromColumns and ToColumns have the
// same length and correspond positionally.
type Relationship struct {
	FromTable   string   `json:"from_table"`
	FromColumns []string `json:"from_columns"`
	ToTable     string   `json:"to_table"`
	ToColumns   []string `json:"to_columns"`
}

// SchemaModel is a point-in-time snapshot of a database schema. It is never
// updated in place; a new snapshot is introspected when needed.
type SchemaModel struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
}

// Table looks up a table by name.
func (s *SchemaModel) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ForeignKeysFrom returns the relationships declared on the given table.
func (s *SchemaModel) ForeignKeysFrom(table string) []Relationship {
	var rels []Relationship
	for _, rel := range s.Relationships {
		if rel.FromTable == table {
			rels = append(rels, rel)
		}
	}
	return rels
}
