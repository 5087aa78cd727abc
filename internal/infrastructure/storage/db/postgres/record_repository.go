package postgresdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/keyring/internal/core/domain"
	"github.com/vulpemventures/keyring/pkg/keypair"
)

const (
	selectRecordQuery = `SELECT namespace, address, public_key, key_type, encoded, encoding::text, meta::text
FROM records WHERE namespace = $1 AND address = $2`
	selectRecordsQuery = `SELECT namespace, address, public_key, key_type, encoded, encoding::text, meta::text
FROM records WHERE namespace = $1`
	upsertRecordQuery = `INSERT INTO records (namespace, address, public_key, key_type, encoded, encoding, meta)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
ON CONFLICT (namespace, address) DO UPDATE SET
public_key = EXCLUDED.public_key, key_type = EXCLUDED.key_type, encoded = EXCLUDED.encoded,
encoding = EXCLUDED.encoding, meta = EXCLUDED.meta`
	deleteRecordQuery   = `DELETE FROM records WHERE namespace = $1 AND address = $2`
	truncateRecordQuery = `TRUNCATE records`
)

type recordRepositoryPg struct {
	pgxPool          *pgxpool.Pool
	chLock           *sync.Mutex
	chEvents         chan domain.RecordEvent
	externalChEvents chan domain.RecordEvent
	closed           bool
}

func NewRecordRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.RecordRepository {
	return newRecordRepositoryPg(pgxPool)
}

func newRecordRepositoryPg(pgxPool *pgxpool.Pool) *recordRepositoryPg {
	return &recordRepositoryPg{
		pgxPool:          pgxPool,
		chLock:           &sync.Mutex{},
		chEvents:         make(chan domain.RecordEvent),
		externalChEvents: make(chan domain.RecordEvent),
	}
}

func (r *recordRepositoryPg) GetRecord(
	ctx context.Context, namespace, address string,
) (*domain.Record, error) {
	if !domain.IsKnownNamespace(namespace) {
		return nil, domain.ErrUnknownNamespace
	}

	row := r.pgxPool.QueryRow(ctx, selectRecordQuery, namespace, address)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *recordRepositoryPg) SetRecord(
	ctx context.Context, record *domain.Record,
) error {
	if err := domain.ValidateRecord(record); err != nil {
		return err
	}

	encoding, err := json.Marshal(record.Encoding)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(record.Meta)
	if err != nil {
		return err
	}

	if _, err := r.pgxPool.Exec(
		ctx, upsertRecordQuery,
		record.Namespace, record.Address, record.PublicKey, record.KeyType,
		record.Encoded, string(encoding), string(meta),
	); err != nil {
		return wrapPgError(err)
	}

	go r.publishEvent(domain.RecordEvent{
		EventType: domain.RecordSet,
		Namespace: record.Namespace,
		Address:   record.Address,
	})

	return nil
}

func (r *recordRepositoryPg) RemoveRecord(
	ctx context.Context, namespace, address string,
) error {
	if !domain.IsKnownNamespace(namespace) {
		return domain.ErrUnknownNamespace
	}

	tag, err := r.pgxPool.Exec(ctx, deleteRecordQuery, namespace, address)
	if err != nil {
		return wrapPgError(err)
	}

	if tag.RowsAffected() > 0 {
		go r.publishEvent(domain.RecordEvent{
			EventType: domain.RecordRemoved,
			Namespace: namespace,
			Address:   address,
		})
	}

	return nil
}

func (r *recordRepositoryPg) ForEach(
	ctx context.Context, namespace string, fn func(*domain.Record) error,
) error {
	if !domain.IsKnownNamespace(namespace) {
		return domain.ErrUnknownNamespace
	}

	rows, err := r.pgxPool.Query(ctx, selectRecordsQuery, namespace)
	if err != nil {
		return wrapPgError(err)
	}

	records := make([]*domain.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			log.WithError(err).Warn("record repository: skipping record")
			continue
		}
		records = append(records, record)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapPgError(err)
	}

	for _, record := range records {
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordRepositoryPg) GetEventChannel() chan domain.RecordEvent {
	return r.externalChEvents
}

func (r *recordRepositoryPg) publishEvent(event domain.RecordEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *recordRepositoryPg) reset() {
	if _, err := r.pgxPool.Exec(
		context.Background(), truncateRecordQuery,
	); err != nil {
		log.WithError(err).Warn("record repository: failed to reset")
	}
}

func (r *recordRepositoryPg) close() {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.chEvents)
	close(r.externalChEvents)
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		record             domain.Record
		encoding, metaJSON string
	)
	if err := row.Scan(
		&record.Namespace, &record.Address, &record.PublicKey, &record.KeyType,
		&record.Encoded, &encoding, &metaJSON,
	); err != nil {
		return nil, err
	}

	var enc keypair.Encoding
	if err := json.Unmarshal([]byte(encoding), &enc); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
	}
	meta := domain.Meta{}
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorruptRecord, err)
	}
	record.Encoding = enc
	record.Meta = meta
	return &record, nil
}

func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("postgres error %s: %s", pgErr.Code, pgErr.Message)
	}
	return err
}
