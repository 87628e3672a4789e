// Package journal keeps a local record of transactions broadcast through
// the CLI in a bbolt database, so deployments can be listed and their
// receipts filled in later.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

const (
	entriesBucket = "entries" // seq -> Entry JSON
	hashBucket    = "by_hash" // tx hash -> seq

	openTimeout = time.Second
)

// Kind classifies a journal entry.
type Kind string

// Entry kinds.
const (
	KindDeploy   Kind = "deploy"
	KindTransfer Kind = "transfer"
	KindCall     Kind = "call"
)

// Status tracks an entry's receipt.
type Status string

// Entry statuses.
const (
	StatusPending Status = "pending"
	StatusMined   Status = "mined"
	StatusFailed  Status = "failed"
)

// ErrNotFound is returned for unknown transaction hashes.
//
//nolint:gochecknoglobals // sentinel
var ErrNotFound = &seqerr.SequenceError{
	Kind:     seqerr.KindInvalidInput,
	Message:  "transaction is not in the journal",
	ExitCode: seqerr.ExitInput,
}

// Entry is one broadcast transaction.
type Entry struct {
	Seq             uint64            `json:"seq"`
	Kind            Kind              `json:"kind"`
	Status          Status            `json:"status"`
	ChainID         uint64            `json:"chain_id"`
	RPC             string            `json:"rpc"`
	From            ethtypes.Address  `json:"from"`
	To              *ethtypes.Address `json:"to,omitempty"`
	ContractAddress *ethtypes.Address `json:"contract_address,omitempty"`
	Nonce           uint64            `json:"nonce"`
	TxHash          ethtypes.Hash256  `json:"tx_hash"`
	GasPrice        string            `json:"gas_price"` // wei, decimal
	GasLimit        uint64            `json:"gas_limit"`
	Value           string            `json:"value,omitempty"` // wei, decimal
	Label           string            `json:"label,omitempty"`
	BlockNumber     uint64            `json:"block_number,omitempty"`
	GasUsed         uint64            `json:"gas_used,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	ChainID uint64
	Kind    Kind
	Status  Status
	Limit   int
}

func (f Filter) match(e Entry) bool {
	return (f.ChainID == 0 || e.ChainID == f.ChainID) &&
		(f.Kind == "" || e.Kind == f.Kind) &&
		(f.Status == "" || e.Status == f.Status)
}

// Journal is a bbolt-backed transaction log. Safe for concurrent use
// within one process; bbolt's file lock keeps other processes out.
type Journal struct {
	db     *bolt.DB
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// Open opens or creates the journal at path.
func Open(path string, logger zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindGeneral, err, "creating journal directory")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, seqerr.WithSuggestion(
			seqerr.WrapAs(seqerr.KindGeneral, err, "opening journal %s", path),
			"another seqeth process may hold the journal open",
		)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{entriesBucket, hashBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, seqerr.WrapAs(seqerr.KindGeneral, err, "initializing journal")
	}

	logger = logger.With().Str("component", "journal").Logger()
	logger.Debug().Str("path", path).Msg("journal opened")
	return &Journal{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e as a new pending entry and returns it with Seq and
// timestamps set. A hash already in the journal is rejected.
func (j *Journal) Record(e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Status == "" {
		e.Status = StatusPending
	}

	err := j.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket([]byte(entriesBucket))
		hashes := tx.Bucket([]byte(hashBucket))

		if hashes.Get(e.TxHash[:]) != nil {
			return seqerr.WithDetails(
				seqerr.New(seqerr.KindInvalidInput, "transaction already journaled"),
				map[string]string{"tx": e.TxHash.Hex()},
			)
		}
		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		e.Seq = seq

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := entries.Put(seqKey(seq), data); err != nil {
			return err
		}
		return hashes.Put(e.TxHash[:], seqKey(seq))
	})
	if err != nil {
		return Entry{}, seqerr.Wrap(err, "recording %s", e.TxHash.Hex())
	}

	j.logger.Debug().Uint64("seq", e.Seq).Str("tx", e.TxHash.Hex()).Str("kind", string(e.Kind)).Msg("entry recorded")
	return e, nil
}

// Get returns the entry for hash.
func (j *Journal) Get(hash ethtypes.Hash256) (Entry, error) {
	var e Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		var err error
		e, _, err = lookup(tx, hash)
		return err
	})
	return e, err
}

// MarkReceipt records the outcome of a mined transaction.
func (j *Journal) MarkReceipt(hash ethtypes.Hash256, r *ethtypes.Receipt) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var e Entry
	err := j.db.Update(func(tx *bolt.Tx) error {
		var key []byte
		var err error
		e, key, err = lookup(tx, hash)
		if err != nil {
			return err
		}

		e.Status = StatusFailed
		if r.Succeeded() {
			e.Status = StatusMined
		}
		e.BlockNumber = uint64(r.BlockNumber)
		e.GasUsed = uint64(r.GasUsed)
		if r.ContractAddress != nil {
			addr := *r.ContractAddress
			e.ContractAddress = &addr
		}
		e.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(entriesBucket)).Put(key, data)
	})
	if err != nil {
		return Entry{}, err
	}

	j.logger.Debug().Str("tx", hash.Hex()).Str("status", string(e.Status)).Msg("receipt recorded")
	return e, nil
}

// List returns matching entries, newest first.
func (j *Journal) List(f Filter) ([]Entry, error) {
	var out []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(entriesBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return seqerr.WrapAs(seqerr.KindResponseParseError, err, "decoding journal entry %d", binary.BigEndian.Uint64(k))
			}
			if !f.match(e) {
				continue
			}
			out = append(out, e)
			if f.Limit > 0 && len(out) == f.Limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

func lookup(tx *bolt.Tx, hash ethtypes.Hash256) (Entry, []byte, error) {
	key := tx.Bucket([]byte(hashBucket)).Get(hash[:])
	if key == nil {
		return Entry{}, nil, seqerr.WithDetails(ErrNotFound, map[string]string{"tx": hash.Hex()})
	}
	key = append([]byte(nil), key...)

	var e Entry
	data := tx.Bucket([]byte(entriesBucket)).Get(key)
	if data == nil {
		return Entry{}, nil, seqerr.WithDetails(ErrNotFound, map[string]string{"tx": hash.Hex()})
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, nil, seqerr.WrapAs(seqerr.KindResponseParseError, err, "decoding journal entry")
	}
	return e, key, nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
