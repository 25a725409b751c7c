package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/revocor/revocor/wire"
)

// ErrCorruptLog is returned at start-up when the log file's size is
// not an exact multiple of the fixed record size: a partial trailing
// chunk. The operator must truncate or restore the file; the service
// aborts start-up rather than guess at recovery.
var ErrCorruptLog = errors.New("store: log file has a partial trailing record")

// RevocationLog is the append-only on-disk file of validated records.
// Each append writes exactly one fixed-size record image and flushes
// to durable storage before acknowledging success upstream. There is
// no header, no trailer, no index and no padding: the file is nothing
// but a sequence of record images.
type RevocationLog struct {
	f *os.File
}

// OpenRevocationLog opens (creating if necessary) the log file at
// path for append.
func OpenRevocationLog(path string) (*RevocationLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("store: open log: %w", err)
	}
	return &RevocationLog{f: f}, nil
}

// Append writes rec's wire image to the end of the log and flushes it
// to durable storage before returning. On failure the caller MUST NOT
// insert into the index or flood the record.
func (l *RevocationLog) Append(rec *wire.RevocationRecord) error {
	if _, err := l.f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("store: seek log: %w", err)
	}
	if _, err := l.f.Write(rec.Bytes()); err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("store: sync log: %w", err)
	}
	log.Debugf("appended record for key %x", HashPublicKey(rec.PublicKey))
	return nil
}

// Replay reads the log file in fixed-size chunks and, for each chunk,
// inserts the parsed record into index without re-verifying the
// signature or PoW: trust in the local file is assumed, since
// validation happened before the original write. A record that is
// already present (which cannot legitimately happen in an
// uncorrupted log, since validation rejects duplicates before
// append) is skipped rather than treated as a fatal error.
func (l *RevocationLog) Replay(index *RevocationIndex) (count int, err error) {
	info, err := l.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("store: stat log: %w", err)
	}
	if info.Size()%int64(wire.RecordSize) != 0 {
		return 0, ErrCorruptLog
	}

	if _, err := l.f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("store: seek log: %w", err)
	}

	buf := make([]byte, wire.RecordSize)
	for {
		_, err := io.ReadFull(l.f, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("store: replay log: %w", err)
		}
		rec, err := wire.RecordFromBytes(buf)
		if err != nil {
			return count, fmt.Errorf("store: replay log: %w", err)
		}
		key := HashPublicKey(rec.PublicKey)
		if err := index.Insert(key, rec); err != nil && !errors.Is(err, ErrDuplicate) {
			return count, err
		}
		count++
	}
	log.Infof("replayed %d record(s) from %s", count, l.f.Name())
	return count, nil
}

// Close flushes and closes the log file.
func (l *RevocationLog) Close() error {
	return l.f.Close()
}
