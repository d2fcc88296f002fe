// Package journal spools cycle results to a local append-only file of
// msgpack records. The line keeps producing when the database or network
// is down; the journal is the on-site record of what was measured.
package journal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/types"
)

// Storage appends cycle results to a msgpack journal file.
type Storage struct {
	path string
	mu   sync.Mutex
	file *os.File
	enc  *msgpack.Encoder
}

// New opens (creating if necessary) the journal at path, in append mode.
func New(path string) (*Storage, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}

	return &Storage{
		path: path,
		file: file,
		enc:  msgpack.NewEncoder(file),
	}, nil
}

// StartStorageEngine creates a goroutine loop to receive cycle results
// and append them to the journal
func (j *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.CycleResult {
	log.Info("starting journal storage engine...")
	resultChan := make(chan types.CycleResult, 10)
	go j.processResults(ctx, wg, resultChan)
	return resultChan
}

func (j *Storage) processResults(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.CycleResult) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := j.Append(r); err != nil {
				log.Error("could not append cycle result to journal:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received, closing journal")
			j.Close()
			return
		}
	}
}

// Append writes one result record and syncs it to disk. Power on a plant
// floor is not to be trusted.
func (j *Storage) Append(r types.CycleResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	if err := j.enc.Encode(&r); err != nil {
		return fmt.Errorf("could not encode cycle result: %w", err)
	}
	return j.file.Sync()
}

// Close closes the journal file.
func (j *Storage) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// ReadAll decodes every record in the journal at path, oldest first.
// Used by the reporting tools and by recovery after an outage.
func ReadAll(path string) ([]types.CycleResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}
	defer file.Close()

	dec := msgpack.NewDecoder(file)
	var out []types.CycleResult
	for {
		var r types.CycleResult
		if err := dec.Decode(&r); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("could not decode journal record: %w", err)
		}
		out = append(out, r)
	}
}
