package cli

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Drivers lists the supported database drivers.
var Drivers = []string{"sqlite", "postgres", "mysql"}

// openDB opens a gorm connection. sqlite runs on the pure Go modernc
// driver.
func openDB(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = &sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q: must be one of %v", driver, Drivers)
	}

	level := logger.Silent
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s database: %w", driver, err)
	}

	return db, nil
}
