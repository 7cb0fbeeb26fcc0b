package repository

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/relief/internal/models"
)

// Well-known column names the engine discovers by name.
const (
	columnUUID      = "uuid"
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"
	columnDeleteAt  = "delete_at"
)

var (
	tablerType        = reflect.TypeFor[models.Tabler]()
	identifiableType  = reflect.TypeFor[models.Identifiable]()
	polymorphicType   = reflect.TypeFor[models.Polymorphic]()
	discriminatedType = reflect.TypeFor[models.Discriminated]()
)

// table is one table of an entity's inheritance chain.
type table struct {
	name    string
	columns []string // columns stored in this table, uuid excluded
}

// schema is the column registry of one entity type.
// It is built once when a repository is constructed and is read-only afterwards.
type schema struct {
	entity string

	// tables of the inheritance chain, root first.
	tables []table

	// owner maps every column to the table storing it.
	owner map[string]string

	// selectColumns is the column order of every SELECT, uuid first.
	selectColumns []string

	// discriminator is the root's polymorphic column, identity the value written to it.
	discriminator string
	identity      string
}

func newSchema[T any]() (*schema, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity %s must be a struct", t)
	}
	if !reflect.PointerTo(t).Implements(identifiableType) {
		return nil, fmt.Errorf("entity %s has no uuid identity", t)
	}

	leaf, ok := tableName(t)
	if !ok {
		return nil, fmt.Errorf("entity %s does not declare a table name", t)
	}

	s := &schema{
		entity: t.Name(),
		owner:  make(map[string]string),
	}

	parents := make(map[string]string)
	columns := make(map[string][]string)
	if err := s.walk(t, leaf, parents, columns); err != nil {
		return nil, err
	}

	// Order the chain root first by following parent links up from the leaf.
	chain := []string{leaf}
	for name := leaf; parents[name] != ""; {
		name = parents[name]
		chain = append([]string{name}, chain...)
	}
	for _, name := range chain {
		s.tables = append(s.tables, table{name: name, columns: columns[name]})
	}

	if s.owner[columnUUID] != s.root() {
		return nil, fmt.Errorf("entity %s: uuid must be declared on root table %s", t, s.root())
	}

	s.selectColumns = append(s.selectColumns, columnUUID)
	for _, tbl := range s.tables {
		s.selectColumns = append(s.selectColumns, tbl.columns...)
	}

	ptr := reflect.New(t).Interface()
	if d, ok := ptr.(models.Discriminated); ok {
		s.discriminator = d.DiscriminatorColumn()
		if s.owner[s.discriminator] != s.root() {
			return nil, fmt.Errorf("entity %s: discriminator %s is not a root column", t, s.discriminator)
		}
		if p, ok := ptr.(models.Polymorphic); ok {
			s.identity = p.PolymorphicIdentity()
		}
	}

	return s, nil
}

// walk registers the db-tagged fields of t under table owner.
// An embedded struct naming a different table is a parent in the inheritance chain.
func (s *schema) walk(t reflect.Type, owner string, parents map[string]string, columns map[string][]string) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}

		if sf.Anonymous && tag == "" && sf.Type.Kind() == reflect.Struct {
			parent, ok := tableName(sf.Type)
			if ok && parent != owner {
				if existing := parents[owner]; existing != "" && existing != parent {
					return fmt.Errorf("table %s has two parents: %s and %s", owner, existing, parent)
				}
				parents[owner] = parent
				if err := s.walk(sf.Type, parent, parents, columns); err != nil {
					return err
				}
				continue
			}
			// Mixins store their columns in the embedding table.
			if err := s.walk(sf.Type, owner, parents, columns); err != nil {
				return err
			}
			continue
		}

		if !sf.IsExported() || tag == "" {
			continue
		}
		if prev, dup := s.owner[tag]; dup {
			return fmt.Errorf("column %s declared on both %s and %s", tag, prev, owner)
		}
		s.owner[tag] = owner
		if tag != columnUUID {
			columns[owner] = append(columns[owner], tag)
		}
	}
	return nil
}

// tableName returns the table declared by t, whether directly or through a promoted method.
func tableName(t reflect.Type) (string, bool) {
	if !t.Implements(tablerType) && !reflect.PointerTo(t).Implements(tablerType) {
		return "", false
	}
	tabler, ok := reflect.New(t).Interface().(models.Tabler)
	if !ok {
		return "", false
	}
	return tabler.TableName(), true
}

func (s *schema) root() string {
	return s.tables[0].name
}

func (s *schema) leaf() string {
	return s.tables[len(s.tables)-1].name
}

// has reports whether the entity declares the column.
func (s *schema) has(column string) bool {
	_, ok := s.owner[column]
	return ok
}

// qualified returns the quoted table-qualified reference to a declared column.
func (s *schema) qualified(column string) string {
	return pgx.Identifier{s.owner[column], column}.Sanitize()
}

func (s *schema) timestamped() bool {
	return s.has(columnCreatedAt)
}

func (s *schema) softDeletable() bool {
	return s.has(columnDeleteAt)
}

// readOnly reports columns the store or engine assigns; caller values for them are ignored.
func (s *schema) readOnly(column string) bool {
	switch column {
	case columnUUID, columnCreatedAt, columnUpdatedAt:
		return true
	}
	return s.discriminator != "" && column == s.discriminator
}
