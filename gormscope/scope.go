// Package gormscope applies compiled filters to gorm queries.
package gormscope

import (
	"github.com/huandu/go-sqlbuilder"
	"github.com/xcono/sqlfilter/builder"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Where compiles filter for entity into a gorm where clause. Identifiers
// are quoted by the composer's engine; placeholders are always "?" and
// rewritten by the gorm dialector.
func Where(c *builder.Composer, entity string, filter builder.Map) (clause.Where, error) {
	exprs, err := c.Compile(entity, filter)
	if err != nil {
		return clause.Where{}, err
	}

	where := clause.Where{Exprs: make([]clause.Expression, 0, len(exprs))}
	for _, e := range exprs {
		sql, args := e.BuildWithFlavor(sqlbuilder.MySQL)
		where.Exprs = append(where.Exprs, clause.Expr{SQL: sql, Vars: args})
	}
	return where, nil
}

// Filter returns a scope that ANDs the compiled filter onto the query.
// Compile errors are added to the statement and returned by the finisher.
func Filter(c *builder.Composer, entity string, filter builder.Map) func(*gorm.DB) *gorm.DB {
	return func(trx *gorm.DB) *gorm.DB {
		where, err := Where(c, entity, filter)
		if err != nil {
			_ = trx.AddError(err)
			return trx
		}
		if len(where.Exprs) == 0 {
			return trx
		}
		return trx.Clauses(where)
	}
}
