package resolver

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/opencargos/tenura/internal/namematch"
	"github.com/opencargos/tenura/pkg/types"
)

// Ranking holds the precomputed "top N linked identities" artifact: a CSV
// produced by the nightly ingest run, read once into memory and re-read when
// the file changes on disk. A missing or unreadable file is an empty ranking,
// not an error — the artifact is optional by contract.
//
// CSV shape: name,num_companies — one row per identity, best first. A header
// row is tolerated and skipped.
type Ranking struct {
	mu     sync.RWMutex
	path   string
	list   []types.RankedIdentity
	byName map[string]int // normalized name → 1-based position

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewRanking loads the CSV at path immediately. An empty path yields a
// permanently empty ranking.
func NewRanking(path string) *Ranking {
	r := &Ranking{
		path:   path,
		byName: map[string]int{},
		done:   make(chan struct{}),
	}
	r.reload()
	return r
}

// Start begins watching the ranking file's directory and reloads the list
// whenever the file is rewritten. Call Stop to clean up. Starting a ranking
// with no path is a no-op.
func (r *Ranking) Start() error {
	if r.path == "" {
		close(r.done)
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		_ = w.Close()
		return err
	}
	r.watcher = w

	go r.loop()
	log.Printf("resolver: watching %s for ranking updates", r.path)
	return nil
}

// Stop shuts down the watcher.
func (r *Ranking) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
	<-r.done
}

func (r *Ranking) loop() {
	defer close(r.done)
	for {
		select {
		case evt, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if evt.Name != r.path {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				r.reload()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("resolver: ranking watcher error: %v", err)
		}
	}
}

// reload re-reads the CSV, replacing the in-memory list atomically. Parse
// problems degrade to whatever rows were readable; a completely unreadable
// file degrades to empty.
func (r *Ranking) reload() {
	list, byName := loadRankingCSV(r.path)

	r.mu.Lock()
	r.list = list
	r.byName = byName
	r.mu.Unlock()
}

// Position returns the 1-based rank of the identity, or zero when unranked.
// Lookup is by normalized name so raw-spelling variants still hit.
func (r *Ranking) Position(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[namematch.Normalize(name)]
}

// Top returns up to n ranked identities, best first.
func (r *Ranking) Top(n int) []types.RankedIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(r.list) {
		n = len(r.list)
	}
	out := make([]types.RankedIdentity, n)
	copy(out, r.list[:n])
	return out
}

func loadRankingCSV(path string) ([]types.RankedIdentity, map[string]int) {
	byName := map[string]int{}
	if path == "" {
		return nil, byName
	}

	f, err := os.Open(path)
	if err != nil {
		// Optional artifact: absence is an empty ranking.
		return nil, byName
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var list []types.RankedIdentity
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("resolver: ranking CSV %s: %v", path, err)
			break
		}
		if len(record) < 2 {
			continue
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			// Header row or junk line.
			continue
		}
		name := record[0]
		position := len(list) + 1
		list = append(list, types.RankedIdentity{
			Position:     position,
			Name:         name,
			NumCompanies: count,
		})
		byName[namematch.Normalize(name)] = position
	}
	return list, byName
}
