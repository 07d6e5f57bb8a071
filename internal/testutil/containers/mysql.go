//go:build integration

package containers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// validTableNameRe matches valid MySQL identifier names: letters, digits,
// underscore, dollar sign; must not start with a digit.
var validTableNameRe = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// MySQLContainer wraps a testcontainers MySQL instance with helper methods.
type MySQLContainer struct {
	container *mysql.MySQLContainer
	db        *gorm.DB
	dsn       string
}

// MySQLConfig holds configuration for MySQL container creation.
type MySQLConfig struct {
	Database string
	Username string
	Password string
}

// DefaultMySQLConfig returns a MySQLConfig with sensible defaults.
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Database: "kpiwatch_test",
		Username: "testuser",
		Password: "testpass",
	}
}

// NewMySQLContainer creates and starts a MySQL 8.0 container and opens a
// GORM connection to it. If config is nil, DefaultMySQLConfig() is used.
func NewMySQLContainer(ctx context.Context, config *MySQLConfig) (*MySQLContainer, error) {
	if config == nil {
		defaultCfg := DefaultMySQLConfig()
		config = &defaultCfg
	}

	opts := []testcontainers.ContainerCustomizer{
		mysql.WithDatabase(config.Database),
		mysql.WithUsername(config.Username),
		mysql.WithPassword(config.Password),
	}

	mysqlContainer, err := mysql.RunContainer(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start MySQL container: %w", err)
	}

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		// Cleanup uses a background context so it succeeds even if ctx expired.
		_ = mysqlContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = mysqlContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	return &MySQLContainer{
		container: mysqlContainer,
		db:        db,
		dsn:       dsn,
	}, nil
}

// DB returns the GORM connection. It is shared across tests in the same
// package and must not be closed by individual tests.
func (c *MySQLContainer) DB() *gorm.DB {
	return c.db
}

// DSN returns the MySQL connection string for the container.
func (c *MySQLContainer) DSN() string {
	return c.dsn
}

// Reset truncates the given tables with foreign key checks disabled,
// resetting state between tests.
func (c *MySQLContainer) Reset(ctx context.Context, tables []string) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	for _, table := range tables {
		if !validTableNameRe.MatchString(table) {
			return fmt.Errorf("invalid table name: %s", table)
		}
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
			return fmt.Errorf("failed to disable foreign key checks: %w", err)
		}
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		if err := tx.Exec("SET FOREIGN_KEY_CHECKS = 1").Error; err != nil {
			return fmt.Errorf("failed to enable foreign key checks: %w", err)
		}
		return nil
	})
}

// Terminate stops and removes the MySQL container and closes the
// underlying connection.
func (c *MySQLContainer) Terminate(ctx context.Context) error {
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		c.db = nil
	}
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}
