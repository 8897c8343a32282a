package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mkoster/querylens/internal/database"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
)

const sampleRowLimit = 5

// Discoverer introspects a connected database and produces an immutable Model
type Discoverer struct {
	logger *logging.Logger
}

// NewDiscoverer creates a schema discoverer
func NewDiscoverer(logger *logging.Logger) *Discoverer {
	return &Discoverer{logger: logger}
}

// Discover enumerates tables, columns, keys, and indexes, infers semantic
// types from naming patterns, and synthesizes inferred relationships for
// columns following the "<table>_id" convention. Given the same database
// state it always produces the same model: table order follows the
// introspector's sorted listing and inferred relationships are sorted by
// (from table, from column).
func (d *Discoverer) Discover(ctx context.Context, db *database.DB) (*Model, error) {
	intro := db.Introspector()

	tableNames, err := intro.ListTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeIntrospection, "failed to enumerate tables")
	}

	model := &Model{
		Tables:  make([]TableInfo, 0, len(tableNames)),
		Indexes: make(map[string][]IndexInfo),
		Dialect: string(db.Dialect()),
	}

	for _, name := range tableNames {
		table, err := d.discoverTable(ctx, db, intro, name)
		if err != nil {
			return nil, err
		}

		model.Tables = append(model.Tables, *table)

		indexes, err := intro.Indexes(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeIntrospection,
				"failed to read indexes for %s", name)
		}

		model.Indexes[name] = toIndexInfos(indexes)
	}

	declared := declaredRelationships(model.Tables)
	model.Relationships = append(declared, inferRelationships(model.Tables)...)

	d.logger.WithFields(map[string]interface{}{
		"tables":        len(model.Tables),
		"relationships": len(model.Relationships),
		"dialect":       model.Dialect,
	}).Info("schema discovery complete")

	return model, nil
}

func (d *Discoverer) discoverTable(
	ctx context.Context,
	db *database.DB,
	intro database.Introspector,
	name string,
) (*TableInfo, error) {
	columns, err := intro.Columns(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeIntrospection,
			"failed to read columns for %s", name)
	}

	pks, err := intro.PrimaryKeys(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeIntrospection,
			"failed to read primary keys for %s", name)
	}

	fks, err := intro.ForeignKeys(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeIntrospection,
			"failed to read foreign keys for %s", name)
	}

	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}

	fkByColumn := make(map[string]*ForeignKeyRef, len(fks))
	for _, fk := range fks {
		fkByColumn[fk.Column] = &ForeignKeyRef{Table: fk.ReferencedTable, Column: fk.ReferencedColumn}
	}

	table := &TableInfo{
		Name:         name,
		SemanticType: InferTableSemantic(name),
		Columns:      make([]ColumnInfo, 0, len(columns)),
		PrimaryKeys:  pks,
	}

	for _, col := range columns {
		table.Columns = append(table.Columns, ColumnInfo{
			Name:         col.Name,
			DataType:     col.DataType,
			Nullable:     col.Nullable,
			Default:      col.Default,
			SemanticType: InferColumnSemantic(col.Name),
			IsPrimaryKey: pkSet[col.Name],
			ForeignKey:   fkByColumn[col.Name],
		})
	}

	// Row counts and sample rows are diagnostics only. Permission failures
	// are logged and leave the table with zero count and no samples.
	table.RowCount = d.rowCount(ctx, db, name)
	table.SampleRows = d.sampleRows(ctx, db, name)

	return table, nil
}

func (d *Discoverer) rowCount(ctx context.Context, db *database.DB, table string) int64 {
	var count int64

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := db.SQL().QueryRowContext(ctx, query).Scan(&count); err != nil {
		d.logger.WithError(err).Warn(fmt.Sprintf("could not count rows for %s", table))
		return 0
	}

	return count
}

func (d *Discoverer) sampleRows(
	ctx context.Context,
	db *database.DB,
	table string,
) []map[string]interface{} {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, sampleRowLimit)

	result, err := database.ExecuteOn(ctx, db.SQL(), query)
	if err != nil {
		d.logger.WithError(err).Warn(fmt.Sprintf("could not sample rows for %s", table))
		return nil
	}

	samples := make([]map[string]interface{}, 0, len(result.Rows))

	for _, row := range result.Rows {
		sample := make(map[string]interface{}, len(result.Columns))
		for i, col := range result.Columns {
			sample[col] = row[i]
		}

		samples = append(samples, sample)
	}

	return samples
}

func declaredRelationships(tables []TableInfo) []Relationship {
	var rels []Relationship

	for _, table := range tables {
		for _, col := range table.Columns {
			if col.ForeignKey == nil {
				continue
			}

			rels = append(rels, Relationship{
				FromTable:  table.Name,
				FromColumn: col.Name,
				ToTable:    col.ForeignKey.Table,
				ToColumn:   col.ForeignKey.Column,
				Kind:       RelForeignKey,
			})
		}
	}

	return rels
}

// inferRelationships guesses links from columns named like "<table>_id" or
// "<table-singular>_id". The target column is assumed to be named "id", a
// known limitation of the heuristic.
func inferRelationships(tables []TableInfo) []Relationship {
	var rels []Relationship

	for _, table := range tables {
		for _, col := range table.Columns {
			colLower := strings.ToLower(col.Name)

			for _, other := range tables {
				if other.Name == table.Name {
					continue
				}

				otherLower := strings.ToLower(other.Name)
				singular := strings.TrimRight(otherLower, "s")

				if strings.Contains(colLower, otherLower+"_id") ||
					strings.Contains(colLower, singular+"_id") {
					rels = append(rels, Relationship{
						FromTable:  table.Name,
						FromColumn: col.Name,
						ToTable:    other.Name,
						ToColumn:   "id",
						Kind:       RelInferred,
					})
				}
			}
		}
	}

	sort.Slice(rels, func(i, j int) bool {
		if rels[i].FromTable != rels[j].FromTable {
			return rels[i].FromTable < rels[j].FromTable
		}

		return rels[i].FromColumn < rels[j].FromColumn
	})

	return rels
}

func toIndexInfos(metas []database.IndexMeta) []IndexInfo {
	infos := make([]IndexInfo, 0, len(metas))

	for _, m := range metas {
		infos = append(infos, IndexInfo{Name: m.Name, Columns: m.Columns, Unique: m.Unique})
	}

	return infos
}
