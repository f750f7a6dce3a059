package keyset

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Render renders expr (usually a Plan) the way db would send it: identifiers
// quoted and placeholders bound by db's dialector. Nothing is executed.
func Render(expr clause.Expression, db *gorm.DB) (string, []any, error) {
	tx := db.Session(&gorm.Session{DryRun: true, NewDB: true}).Raw("?", expr)

	return tx.Statement.SQL.String(), tx.Statement.Vars, tx.Error
}
