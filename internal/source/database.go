package source

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hudumadata/facility-cli/internal/model"
)

// databaseAdapter extracts records from an external relational database.
// The query's column names go through the same header alias mapping as
// file headers do.
type databaseAdapter struct {
	src        model.DataSource
	driver     string
	dsn        string
	query      string
	recordType model.RecordType
	log        *zap.Logger
}

// driverName maps configured driver aliases onto the registered
// database/sql driver names (modernc sqlite, pgx stdlib).
func driverName(configured string) string {
	switch configured {
	case "sqlite3":
		return "sqlite"
	case "postgres", "postgresql":
		return "pgx"
	default:
		return configured
	}
}

func newDatabaseAdapter(src model.DataSource) *databaseAdapter {
	return &databaseAdapter{
		src:        src,
		driver:     driverName(configValue(src, "driver", "sqlite")),
		dsn:        configValue(src, "connectionName", ""),
		query:      configValue(src, "query", ""),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "database")),
	}
}

func (a *databaseAdapter) Name() string { return a.src.Name }

func (a *databaseAdapter) Connect(ctx context.Context) bool {
	if a.dsn == "" {
		return false
	}
	db, err := sql.Open(a.driver, a.dsn)
	if err != nil {
		return false
	}
	defer db.Close()
	return db.PingContext(ctx) == nil
}

func (a *databaseAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	if a.query == "" {
		return nil, eris.New("source: database query not configured")
	}
	db, err := sql.Open(a.driver, a.dsn)
	if err != nil {
		return nil, eris.Wrap(err, "source: open database")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, a.query)
	if err != nil {
		return nil, eris.Wrap(err, "source: run query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "source: read columns")
	}

	var out []model.Record
	rowNum := 0
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		rowNum++

		values := make([]sql.NullString, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			a.log.Warn("skipping unscannable row", zap.Int("row", rowNum), zap.Error(err))
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if values[i].Valid {
				fields[col] = values[i].String
			}
		}
		out = append(out, recordFromMap(fields, a.recordType))
	}
	return out, eris.Wrap(rows.Err(), "source: iterate rows")
}

func (a *databaseAdapter) Schema(ctx context.Context) (map[string]any, error) {
	records, err := a.Extract(ctx, 1)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"driver":   a.driver,
		"query":    a.query,
		"has_rows": len(records) > 0,
	}, nil
}
