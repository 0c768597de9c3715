package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"retail-analytics/models"
	"retail-analytics/utils"
)

const retryBaseDelay = 2 * time.Second

// transactionColumns are selected in schema order.
var transactionColumns = []string{
	"transaction_id", "customer_id", "product_id", "product_name", "category",
	"quantity", "price", "total_amount", "discount",
	"store_type", "city", "payment_method", "transaction_date",
}

// PostgresSource reads transactions from a PostgreSQL table. It never writes.
type PostgresSource struct {
	db    *sql.DB
	dsn   string
	table string
}

// NewPostgresSource opens a connection to PostgreSQL and waits for it to
// answer, retrying with back-off.
func NewPostgresSource(ctx context.Context, dsn, table string, retry utils.RetryConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &models.UnexpectedIOError{Op: "postgres open", Err: err}
	}

	err = retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, &models.UnexpectedIOError{Op: "postgres ping", Err: err}
	}

	return &PostgresSource{db: db, dsn: redactDSN(dsn), table: table}, nil
}

// Query returns the SELECT statement issued by Load.
func (ps *PostgresSource) Query() string {
	return selectQuery(ps.table)
}

func selectQuery(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY transaction_id",
		strings.Join(transactionColumns, ", "), pq.QuoteIdentifier(table))
}

// Load fetches every row of the table.
func (ps *PostgresSource) Load(ctx context.Context) (*models.Table, error) {
	rows, err := ps.db.QueryContext(ctx, ps.Query())
	if err != nil {
		return nil, queryError(ps.dsn, ps.table, err)
	}
	defer rows.Close()

	out, err := scanTransactions(ps.table, rows)
	if err != nil {
		return nil, err
	}
	t := models.NewTable(out)
	t.Source = ps.dsn + "/" + ps.table
	return t, nil
}

// queryError maps driver errors, wrapped or not, onto the error taxonomy:
// an undefined table is not found, an undefined column is a schema mismatch.
func queryError(dsn, table string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01":
			return &models.NotFoundError{Path: dsn + "/" + table}
		case "42703":
			return &models.ParseError{Path: table, Err: pqErr}
		}
	}
	return &models.UnexpectedIOError{Op: "postgres query", Err: err}
}

// Close releases the connection pool.
func (ps *PostgresSource) Close() error {
	return ps.db.Close()
}

// scannedTextColumns matches the order of the text destinations in Scan.
var scannedTextColumns = []models.Column{
	models.ColTransactionID, models.ColCustomerID, models.ColProductID,
	models.ColProductName, models.ColCategory,
	models.ColStoreType, models.ColCity, models.ColPaymentMethod,
}

// rowScanner is the subset of *sql.Rows used while reading.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(table string, rows rowScanner) ([]models.Transaction, error) {
	var out []models.Transaction
	for line := 1; rows.Next(); line++ {
		var (
			text [8]sql.NullString
			qty  sql.NullInt64
			num  [3]sql.NullFloat64
			when sql.NullTime
		)
		err := rows.Scan(
			&text[0], &text[1], &text[2], &text[3], &text[4],
			&qty, &num[0], &num[1], &num[2],
			&text[5], &text[6], &text[7], &when,
		)
		if err != nil {
			return nil, &models.ParseError{Path: table, Line: line, Err: err}
		}

		var tx models.Transaction
		for i, c := range scannedTextColumns {
			if text[i].Valid {
				tx.SetText(c, text[i].String)
			} else {
				tx.Missing = tx.Missing.With(c)
			}
		}

		if qty.Valid {
			tx.Quantity = int(qty.Int64)
		} else {
			tx.Missing = tx.Missing.With(models.ColQuantity)
		}
		for i, c := range []models.Column{models.ColPrice, models.ColTotalAmount, models.ColDiscount} {
			if num[i].Valid {
				tx.SetNumber(c, num[i].Float64)
			} else {
				tx.Missing = tx.Missing.With(c)
			}
		}
		if when.Valid {
			tx.Date = when.Time.UTC().Truncate(time.Microsecond)
		} else {
			tx.Missing = tx.Missing.With(models.ColDate)
		}

		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.UnexpectedIOError{Op: "postgres read", Err: err}
	}
	return out, nil
}

// redactDSN drops the password from a URL or keyword DSN for logging.
func redactDSN(dsn string) string {
	if IsPostgresLocation(dsn) {
		if at := strings.LastIndex(dsn, "@"); at > 0 {
			scheme := dsn[:strings.Index(dsn, "://")+3]
			return scheme + "***" + dsn[at:]
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}
