package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// SaveSnapshot writes every page backend holds to w in the round-trip
// format from original_source/include/storage_model.h's save_to_file: a
// page count line, then for each page its id on a line of its own,
// pageSize raw bytes, and a newline. Grounded additionally on the teacher's
// pkg/storage/wal.go manual-framing style: no gob, no reflection-based
// codec, just explicit writes.
func SaveSnapshot(w io.Writer, backend *MemoryBackend) error {
	bw := bufio.NewWriter(w)
	ids := backend.PageIDs()

	if _, err := fmt.Fprintf(bw, "%d\n", len(ids)); err != nil {
		return fmt.Errorf("%w: writing page count: %v", ErrBackendFailure, err)
	}

	for _, id := range ids {
		data, err := backend.LoadPage(id)
		if err != nil {
			return fmt.Errorf("%w: loading page %d: %v", ErrBackendFailure, id, err)
		}
		if _, err := fmt.Fprintf(bw, "%d\n", id); err != nil {
			return fmt.Errorf("%w: writing page id %d: %v", ErrBackendFailure, id, err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("%w: writing page %d body: %v", ErrBackendFailure, id, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("%w: writing page %d trailer: %v", ErrBackendFailure, id, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flushing snapshot: %v", ErrBackendFailure, err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and returns a
// freshly populated MemoryBackend serving pages of pageSize bytes.
func LoadSnapshot(r io.Reader, pageSize int) (*MemoryBackend, error) {
	br := bufio.NewReader(r)
	backend := NewMemoryBackend(pageSize)

	var pageCount int
	if _, err := fmt.Fscanf(br, "%d\n", &pageCount); err != nil {
		return nil, fmt.Errorf("%w: reading page count: %v", ErrBackendFailure, err)
	}

	for i := 0; i < pageCount; i++ {
		var id uint64
		if _, err := fmt.Fscanf(br, "%d\n", &id); err != nil {
			return nil, fmt.Errorf("%w: reading page id: %v", ErrBackendFailure, err)
		}

		data := make([]byte, pageSize)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("%w: reading page %d body: %v", ErrBackendFailure, id, err)
		}
		if _, err := br.ReadByte(); err != nil {
			return nil, fmt.Errorf("%w: reading page %d trailer: %v", ErrBackendFailure, id, err)
		}

		backend.pages[PageID(id)] = data
		if PageID(id) >= backend.next {
			backend.next = PageID(id) + 1
		}
	}

	return backend, nil
}

// SaveSnapshotFile and LoadSnapshotFile are thin os.File wrappers around
// SaveSnapshot/LoadSnapshot; the cli command uses SaveSnapshotFile to
// write one snapshot_<run id>_<index>.dat file per index.
func SaveSnapshotFile(path string, backend *MemoryBackend) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating snapshot file: %v", ErrBackendFailure, err)
	}
	defer f.Close()
	return SaveSnapshot(f, backend)
}

func LoadSnapshotFile(path string, pageSize int) (*MemoryBackend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening snapshot file: %v", ErrBackendFailure, err)
	}
	defer f.Close()
	return LoadSnapshot(f, pageSize)
}
