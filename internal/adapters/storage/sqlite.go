package storage

// sqlite.go — lector del dataset materializado por el pipeline de ingesta
// (externo a este repo). Este adaptador es solo lectura: el núcleo no
// persiste nada, consume eventos ya recolectados.
//
// Dos variantes de serie de mercado, seleccionables por configuración:
//   - `market_quotes`: cotizaciones periódicas bid/ask por lado.
//   - `trade_prints`: ejecuciones sueltas {side, price}; se adaptan a la
//     forma común con bid = ask = price.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polygrid/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Metadatos de eventos (partidos)
CREATE TABLE IF NOT EXISTS events (
    event_id        TEXT PRIMARY KEY,
    scheduled_start DATETIME,
    final_outcome   TEXT NOT NULL DEFAULT 'unknown'
);

-- Serie de pronóstico: una fila por muestra del feed
CREATE TABLE IF NOT EXISTS forecast_samples (
    event_id    TEXT    NOT NULL REFERENCES events(event_id),
    timestamp   DATETIME NOT NULL,
    probability REAL
);

-- Serie de mercado, variante cotizaciones periódicas
CREATE TABLE IF NOT EXISTS market_quotes (
    event_id  TEXT    NOT NULL REFERENCES events(event_id),
    timestamp DATETIME NOT NULL,
    side      TEXT    NOT NULL,
    bid       REAL,
    ask       REAL
);

-- Serie de mercado, variante trade prints
CREATE TABLE IF NOT EXISTS trade_prints (
    event_id  TEXT    NOT NULL REFERENCES events(event_id),
    timestamp DATETIME NOT NULL,
    side      TEXT    NOT NULL,
    price     REAL,
    size      REAL
);

CREATE INDEX IF NOT EXISTS idx_forecast_event ON forecast_samples(event_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_quotes_event   ON market_quotes(event_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_prints_event   ON trade_prints(event_id, timestamp);
`

// MarketSource selecciona la variante de serie de mercado a leer.
type MarketSource string

const (
	SourceQuotes MarketSource = "quotes"
	SourceTrades MarketSource = "trades"
)

// SQLiteDataset implementa ports.EventProvider sobre un archivo SQLite
// (pure Go, sin CGo).
type SQLiteDataset struct {
	db     *sql.DB
	source MarketSource
}

// NewSQLiteDataset abre el dataset en la ruta dada y aplica el schema
// (idempotente: permite abrir un archivo vacío en tests).
func NewSQLiteDataset(path string, source MarketSource) (*SQLiteDataset, error) {
	if source != SourceQuotes && source != SourceTrades {
		return nil, fmt.Errorf("storage.NewSQLiteDataset: unknown market source %q", source)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteDataset: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteDataset: apply schema: %w", err)
	}

	return &SQLiteDataset{db: db, source: source}, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteDataset) Close() error {
	return s.db.Close()
}

// ListEvents devuelve los metadatos de todos los eventos, ordenados por id.
func (s *SQLiteDataset) ListEvents(ctx context.Context) ([]domain.EventMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, scheduled_start, final_outcome FROM events ORDER BY event_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListEvents: query: %w", err)
	}
	defer rows.Close()

	var metas []domain.EventMeta
	for rows.Next() {
		var (
			meta    domain.EventMeta
			start   sql.NullTime
			outcome string
		)
		if err := rows.Scan(&meta.EventID, &start, &outcome); err != nil {
			return nil, fmt.Errorf("storage.ListEvents: scan: %w", err)
		}
		if start.Valid {
			meta.ScheduledStart = start.Time.UTC()
		}
		meta.FinalOutcome = domain.ParseOutcome(outcome)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// FetchEvent devuelve las series completas de un evento, ordenadas por
// timestamp. La serie de mercado sale de la variante configurada.
func (s *SQLiteDataset) FetchEvent(ctx context.Context, eventID string) (domain.EventData, error) {
	var data domain.EventData

	meta, err := s.fetchMeta(ctx, eventID)
	if err != nil {
		return data, err
	}
	data.Meta = meta

	if data.Forecast, err = s.fetchForecast(ctx, eventID); err != nil {
		return data, err
	}

	switch s.source {
	case SourceTrades:
		data.Quotes, err = s.fetchTradePrints(ctx, eventID)
	default:
		data.Quotes, err = s.fetchQuotes(ctx, eventID)
	}
	return data, err
}

func (s *SQLiteDataset) fetchMeta(ctx context.Context, eventID string) (domain.EventMeta, error) {
	var (
		meta    = domain.EventMeta{EventID: eventID}
		start   sql.NullTime
		outcome string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT scheduled_start, final_outcome FROM events WHERE event_id = ?`,
		eventID,
	).Scan(&start, &outcome)
	if err != nil {
		return meta, fmt.Errorf("storage.FetchEvent: meta %q: %w", eventID, err)
	}
	if start.Valid {
		meta.ScheduledStart = start.Time.UTC()
	}
	meta.FinalOutcome = domain.ParseOutcome(outcome)
	return meta, nil
}

func (s *SQLiteDataset) fetchForecast(ctx context.Context, eventID string) ([]domain.ForecastSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, probability FROM forecast_samples
		 WHERE event_id = ? ORDER BY timestamp`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchEvent: forecast %q: %w", eventID, err)
	}
	defer rows.Close()

	var samples []domain.ForecastSample
	for rows.Next() {
		var (
			ts   time.Time
			prob sql.NullFloat64
		)
		if err := rows.Scan(&ts, &prob); err != nil {
			return nil, fmt.Errorf("storage.FetchEvent: forecast scan: %w", err)
		}
		samples = append(samples, domain.ForecastSample{
			Timestamp:   ts.UTC(),
			Probability: nullable(prob),
		})
	}
	return samples, rows.Err()
}

func (s *SQLiteDataset) fetchQuotes(ctx context.Context, eventID string) ([]domain.MarketQuote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, side, bid, ask FROM market_quotes
		 WHERE event_id = ? ORDER BY timestamp`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchEvent: quotes %q: %w", eventID, err)
	}
	defer rows.Close()

	var quotes []domain.MarketQuote
	for rows.Next() {
		var (
			ts        time.Time
			sideLabel string
			bid, ask  sql.NullFloat64
		)
		if err := rows.Scan(&ts, &sideLabel, &bid, &ask); err != nil {
			return nil, fmt.Errorf("storage.FetchEvent: quote scan: %w", err)
		}
		side, ok := domain.ParseSide(sideLabel)
		if !ok {
			continue // lado desconocido: fila inutilizable
		}
		quotes = append(quotes, domain.MarketQuote{
			Timestamp: ts.UTC(),
			Side:      side,
			Bid:       nullable(bid),
			Ask:       nullable(ask),
		})
	}
	return quotes, rows.Err()
}

func (s *SQLiteDataset) fetchTradePrints(ctx context.Context, eventID string) ([]domain.MarketQuote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, side, price FROM trade_prints
		 WHERE event_id = ? ORDER BY timestamp`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.FetchEvent: prints %q: %w", eventID, err)
	}
	defer rows.Close()

	var quotes []domain.MarketQuote
	for rows.Next() {
		var (
			ts        time.Time
			sideLabel string
			price     sql.NullFloat64
		)
		if err := rows.Scan(&ts, &sideLabel, &price); err != nil {
			return nil, fmt.Errorf("storage.FetchEvent: print scan: %w", err)
		}
		side, ok := domain.ParseSide(sideLabel)
		if !ok {
			continue
		}
		quotes = append(quotes, domain.QuoteFromTrade(ts.UTC(), side, nullable(price)))
	}
	return quotes, rows.Err()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
