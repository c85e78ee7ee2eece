package repository

import (
	"context"
	"database/sql"

	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/sqlite"
)

// getExecutor returns the transaction carried by ctx, or db
func getExecutor(ctx context.Context, db *sql.DB) sqlite.QueryExecutor {
	return sqlite.Executor(ctx, db)
}

const dayLayout = "2006-01-02"
