package database

import (
	"fmt"
	"regexp"

	"condo-app/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var validDBName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Open connects to the configured database.
func Open() (*gorm.DB, error) {
	dialector, err := dialectorFor(config.DBName)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

func dialectorFor(dbName string) (gorm.Dialector, error) {
	switch config.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			config.DBHost, config.DBUser, config.DBPassword, dbName, config.DBPort)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return mysql.Open(dsn), nil
	case "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return sqlserver.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dbName + ".db"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", config.DBDriver)
	}
}

// EnsureDatabaseExists creates the configured database when the server does
// not have it yet.
func EnsureDatabaseExists(dbName string) error {
	if !validDBName.MatchString(dbName) {
		return fmt.Errorf("invalid database name %q", dbName)
	}

	var dialector gorm.Dialector
	switch config.DBDriver {
	case "sqlite":
		return nil
	case "postgres":
		dialector, _ = dialectorFor("postgres")
	case "mysql":
		dialector, _ = dialectorFor("")
	case "mssql":
		dialector, _ = dialectorFor("master")
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", config.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("connect to DB server: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	exists, err := checkDatabaseExists(db, dbName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	switch config.DBDriver {
	case "mysql":
		return db.Exec("CREATE DATABASE IF NOT EXISTS " + dbName).Error
	case "mssql":
		return db.Exec("IF DB_ID('" + dbName + "') IS NULL CREATE DATABASE " + dbName).Error
	default:
		return db.Exec("CREATE DATABASE " + dbName).Error
	}
}

func checkDatabaseExists(db *gorm.DB, dbName string) (bool, error) {
	var count int64
	var err error
	switch config.DBDriver {
	case "postgres":
		err = db.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", dbName).Scan(&count).Error
	case "mysql":
		err = db.Raw("SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", dbName).Scan(&count).Error
	case "mssql":
		err = db.Raw("SELECT COUNT(*) FROM master.sys.databases WHERE name = ?", dbName).Scan(&count).Error
	default:
		return false, fmt.Errorf("unsupported DB driver")
	}
	return count > 0, err
}
