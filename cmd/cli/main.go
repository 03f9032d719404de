// Command cli is pagedex's test harness: it drives each index through a
// randomized insert/find/erase workload, verifying structural invariants
// along the way, and reports success or failure the way a build-time
// smoke test would.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"pagedex/pkg/btree"
	"pagedex/pkg/config"
	"pagedex/pkg/fagin"
	"pagedex/pkg/hash"
	"pagedex/pkg/lk"
	"pagedex/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a pagedex config YAML file")
	cacheFlag := flag.Bool("cache", false, "force the ristretto page cache on regardless of config")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config path] [-cache] test [max_pages] [max_entries_per_page]\n", os.Args[0])
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || args[0] != "test" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config.Load: %v\n", err)
		os.Exit(1)
	}
	if *cacheFlag {
		cfg.Cache.Enabled = true
	}

	maxPages := 0x40
	maxEntriesPerPage := 0x8
	if len(args) > 1 {
		fmt.Sscanf(args[1], "%d", &maxPages)
	}
	if len(args) > 2 {
		fmt.Sscanf(args[2], "%d", &maxEntriesPerPage)
	}

	errFile, err := os.Create("error_file")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open error_file: %v\n", err)
		os.Exit(1)
	}
	defer errFile.Close()

	tableFile, err := os.Create("table_file")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open table_file: %v\n", err)
		os.Exit(1)
	}
	defer tableFile.Close()

	runID := uuid.New()
	fmt.Fprintf(tableFile, "run %s: max_pages=%d max_entries_per_page=%d cache=%v\n",
		runID, maxPages, maxEntriesPerPage, cfg.Cache.Enabled)

	ok := true
	ok = runBtreeTest(runID, maxPages, maxEntriesPerPage, cfg, errFile, tableFile) && ok
	ok = runFaginTest(runID, maxPages, maxEntriesPerPage, cfg, errFile, tableFile) && ok
	ok = runLKTest(runID, maxPages, maxEntriesPerPage, cfg, errFile, tableFile) && ok

	if !ok {
		fmt.Fprintln(os.Stderr, "test: FAILED, see error_file")
		os.Exit(1)
	}
	fmt.Println("test: OK")
}

func pageSizeFor(maxEntriesPerPage int) int {
	// Header plus entrySize*maxEntries, rounded up generously; every
	// index's own MaxEntries derivation clamps to whatever actually fits.
	return 64 + maxEntriesPerPage*32
}

// openBackend builds the shared MemoryBackend for a run and, when the
// config enables it, wraps it in a ristretto-backed CachedBackend. The
// concrete MemoryBackend is always returned alongside the Backend an
// index should be built against, since snapshotting needs the concrete
// type regardless of whether caching sits in front of it.
func openBackend(cfg *config.Config, pageSize int) (storage.Backend, *storage.MemoryBackend, *storage.CachedBackend, error) {
	mem := storage.NewMemoryBackend(pageSize)
	if !cfg.Cache.Enabled {
		return mem, mem, nil, nil
	}
	cached, err := storage.NewCachedBackend(mem, storage.NewPinSet(), cfg.Cache.MaxPages)
	if err != nil {
		return nil, nil, nil, err
	}
	return cached, mem, cached, nil
}

func runBtreeTest(runID uuid.UUID, maxPages, maxEntriesPerPage int, cfg *config.Config, errFile, tableFile *os.File) bool {
	backend, mem, cached, err := openBackend(cfg, pageSizeFor(maxEntriesPerPage))
	if err != nil {
		fmt.Fprintf(errFile, "btree: openBackend: %v\n", err)
		return false
	}
	if cached != nil {
		defer cached.Close()
	}

	table, err := btree.New[int64, int64](backend)
	if err != nil {
		fmt.Fprintf(errFile, "btree: New: %v\n", err)
		return false
	}

	rng := rand.New(rand.NewSource(1))
	present := make(map[int64]bool)
	ops := maxPages * maxEntriesPerPage
	for i := 0; i < ops; i++ {
		key := int64(rng.Intn(ops))
		if rng.Intn(3) == 0 && present[key] {
			table.Erase(key)
			delete(present, key)
		} else {
			table.Insert(key, key*2)
			present[key] = true
		}
	}

	ok := true
	if !table.Verify() {
		fmt.Fprintln(errFile, "btree: Verify() failed after workload")
		ok = false
	}
	for key := range present {
		if c, found := table.Find(key); !found || c.Data() != key*2 {
			fmt.Fprintf(errFile, "btree: Find(%d) mismatch: found=%v\n", key, found)
			ok = false
		}
	}

	stats := table.Stats.Snapshot()
	fmt.Fprintf(tableFile, "btree: len=%d inserts=%d erases=%d splits=%d merges=%d\n",
		table.Len(), stats.Inserts, stats.Erases, stats.Splits, stats.Merges)

	snapshotPath := fmt.Sprintf("snapshot_%s_btree.dat", runID)
	if err := storage.SaveSnapshotFile(snapshotPath, mem); err != nil {
		fmt.Fprintf(errFile, "btree: SaveSnapshotFile: %v\n", err)
		ok = false
	}
	return ok
}

func runFaginTest(runID uuid.UUID, maxPages, maxEntriesPerPage int, cfg *config.Config, errFile, tableFile *os.File) bool {
	backend, mem, cached, err := openBackend(cfg, pageSizeFor(maxEntriesPerPage))
	if err != nil {
		fmt.Fprintf(errFile, "fagin: openBackend: %v\n", err)
		return false
	}
	if cached != nil {
		defer cached.Close()
	}

	family := hash.NewRandom()
	table, err := fagin.New[int64, int64](backend, family, maxPages)
	if err != nil {
		fmt.Fprintf(errFile, "fagin: New: %v\n", err)
		return false
	}

	rng := rand.New(rand.NewSource(2))
	present := make(map[int64]bool)
	ops := maxPages * maxEntriesPerPage
	for i := 0; i < ops; i++ {
		key := int64(rng.Intn(ops))
		if rng.Intn(3) == 0 && present[key] {
			table.Erase(key)
			delete(present, key)
		} else {
			table.Insert(key, key*2)
			present[key] = true
		}
	}

	ok := true
	for key := range present {
		if c, found := table.Find(key); !found || c.Data() != key*2 {
			fmt.Fprintf(errFile, "fagin: Find(%d) mismatch: found=%v\n", key, found)
			ok = false
		}
	}
	if table.Len() != len(present) {
		fmt.Fprintf(errFile, "fagin: Len()=%d, want %d\n", table.Len(), len(present))
		ok = false
	}

	stats := table.Stats.Snapshot()
	fmt.Fprintf(tableFile, "fagin: len=%d inserts=%d erases=%d splits=%d\n",
		table.Len(), stats.Inserts, stats.Erases, stats.Splits)

	snapshotPath := fmt.Sprintf("snapshot_%s_fagin.dat", runID)
	if err := storage.SaveSnapshotFile(snapshotPath, mem); err != nil {
		fmt.Fprintf(errFile, "fagin: SaveSnapshotFile: %v\n", err)
		ok = false
	}
	return ok
}

func runLKTest(runID uuid.UUID, maxPages, maxEntriesPerPage int, cfg *config.Config, errFile, tableFile *os.File) bool {
	backend, mem, cached, err := openBackend(cfg, pageSizeFor(maxEntriesPerPage))
	if err != nil {
		fmt.Fprintf(errFile, "lk: openBackend: %v\n", err)
		return false
	}
	if cached != nil {
		defer cached.Close()
	}

	table, err := lk.New[int64, int64](backend, maxPages)
	if err != nil {
		fmt.Fprintf(errFile, "lk: New: %v\n", err)
		return false
	}

	rng := rand.New(rand.NewSource(3))
	present := make(map[int64]bool)
	ops := maxPages * maxEntriesPerPage
	for i := 0; i < ops; i++ {
		key := int64(rng.Intn(ops))
		if rng.Intn(3) == 0 && present[key] {
			table.Erase(key)
			delete(present, key)
		} else {
			if err := table.Insert(key, key*2); err != nil {
				fmt.Fprintf(errFile, "lk: Insert(%d): %v\n", key, err)
				continue
			}
			present[key] = true
		}
	}

	ok := true
	for key := range present {
		if c, found := table.Find(key); !found || c.Data() != key*2 {
			fmt.Fprintf(errFile, "lk: Find(%d) mismatch: found=%v\n", key, found)
			ok = false
		}
	}
	if table.Len() != len(present) {
		fmt.Fprintf(errFile, "lk: Len()=%d, want %d\n", table.Len(), len(present))
		ok = false
	}

	stats := table.Stats.Snapshot()
	fmt.Fprintf(tableFile, "lk: len=%d inserts=%d erases=%d splits=%d\n",
		table.Len(), stats.Inserts, stats.Erases, stats.Splits)

	snapshotPath := fmt.Sprintf("snapshot_%s_lk.dat", runID)
	if err := storage.SaveSnapshotFile(snapshotPath, mem); err != nil {
		fmt.Fprintf(errFile, "lk: SaveSnapshotFile: %v\n", err)
		ok = false
	}
	return ok
}
