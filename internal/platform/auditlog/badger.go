package auditlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"

	"github.com/dgraph-io/badger/v4"
)

var (
	entryPrefix = []byte("audit/entry/")
	sequenceKey = []byte("audit/sequence")
)

var ErrClosed = errors.New("audit log closed")

// Filter narrows List. Zero fields match everything; Limit <= 0 returns all.
type Filter struct {
	EntityType string
	EntityID   string
	Action     string
	Severity   auditv1.Severity
	Limit      int
}

// Log is the append-only audit sink. Entries are keyed by a monotonic
// sequence so iteration order is insertion order; nothing is ever rewritten.
type Log struct {
	db       *badger.DB
	sequence *badger.Sequence
	logger   *slog.Logger
}

// Open opens the audit log under dir, or in memory when dir is empty.
func Open(dir string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create audit log directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.
		WithLogger(&badgerLogger{logger: logger}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger audit log: %w", err)
	}
	sequence, err := db.GetSequence(sequenceKey, 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire audit sequence: %w", err)
	}
	return &Log{db: db, sequence: sequence, logger: logger}, nil
}

func (l *Log) Record(ctx context.Context, entry auditv1.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.db == nil {
		return ErrClosed
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	seq, err := l.sequence.Next()
	if err != nil {
		return fmt.Errorf("next audit sequence: %w", err)
	}
	key := entryKey(seq)
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	}); err != nil {
		l.logger.Error("audit append failed",
			"event", "audit_append_failed",
			"module", "internal/platform/auditlog",
			"layer", "platform",
			"action", entry.Action,
			"error", err.Error(),
		)
		return fmt.Errorf("append audit entry: %w", err)
	}
	if entry.Severity == auditv1.SeverityViolation {
		l.logger.Warn("integrity violation recorded",
			"event", "audit_violation_recorded",
			"module", "internal/platform/auditlog",
			"layer", "platform",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
		)
	}
	return nil
}

// List returns matching entries in insertion order.
func (l *Log) List(ctx context.Context, filter Filter) ([]auditv1.Entry, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	var out []auditv1.Entry
	err := l.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.IteratorOptions{Prefix: entryPrefix, PrefetchValues: true, PrefetchSize: 100})
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry auditv1.Entry
			if err := iter.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &entry)
			}); err != nil {
				return fmt.Errorf("decode audit entry: %w", err)
			}
			if !filter.matches(entry) {
				continue
			}
			out = append(out, entry)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	releaseErr := l.sequence.Release()
	closeErr := l.db.Close()
	l.db = nil
	return errors.Join(releaseErr, closeErr)
}

func (f Filter) matches(entry auditv1.Entry) bool {
	if f.EntityType != "" && entry.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && entry.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	if f.Severity != "" && entry.Severity != f.Severity {
		return false
	}
	return true
}

func entryKey(seq uint64) []byte {
	key := make([]byte, len(entryPrefix)+8)
	copy(key, entryPrefix)
	binary.BigEndian.PutUint64(key[len(entryPrefix):], seq)
	return key
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "module", "internal/platform/auditlog", "layer", "platform")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "module", "internal/platform/auditlog", "layer", "platform")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "module", "internal/platform/auditlog", "layer", "platform")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "module", "internal/platform/auditlog", "layer", "platform")
}
