package keyset

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/utils/tests"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

func mustKeys(t *testing.T, exprs ...Expr) []*OrderingKey {
	t.Helper()

	keys := make([]*OrderingKey, 0, len(exprs))
	for _, x := range exprs {
		k, err := newOrderingKey(x, noWarn)
		if err != nil {
			t.Fatalf("ordering key '%s': %v", x, err)
		}
		keys = append(keys, k)
	}

	return keys
}

// quotingDialector renders double quoted identifiers and "?" placeholders.
type quotingDialector struct {
	tests.DummyDialector
}

func (quotingDialector) QuoteTo(writer clause.Writer, str string) {
	writer.WriteByte('"')
	writer.WriteString(str)
	writer.WriteByte('"')
}

func newRenderDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(quotingDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	return db
}

func mustRender(t *testing.T, expr clause.Expression) (string, []any) {
	t.Helper()

	sql, vars, err := Render(expr, newRenderDB(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	return sql, vars
}
