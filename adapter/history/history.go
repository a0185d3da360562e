// Package history keeps the most recent reports in memory.
package history

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
)

type Config struct {
	Size int
}

// History is a fixed-size ring of report records. Record IDs start at 1 and
// grow by one per Add, so the records held are always a contiguous ID range.
type History struct {
	data   []*entity.ReportRecord
	head   int
	count  int
	lastID uint64
	mux    sync.RWMutex
}

func New(cfg *Config) (*History, error) {
	if cfg.Size <= 0 {
		return nil, errors.Wrapf(entity.ErrValidation, "history size %d", cfg.Size)
	}
	return &History{
		data: make([]*entity.ReportRecord, cfg.Size),
	}, nil
}

// Add assigns the next ID to rec and stores it, evicting the oldest record
// when the ring is full.
func (h *History) Add(rec *entity.ReportRecord) uint64 {
	h.mux.Lock()
	defer h.mux.Unlock()

	h.lastID++
	rec.ID = h.lastID

	if h.count < len(h.data) {
		h.data[(h.head+h.count)%len(h.data)] = rec
		h.count++
		return rec.ID
	}

	h.data[h.head] = rec
	h.head = (h.head + 1) % len(h.data)

	return rec.ID
}

// List returns up to limit of the newest records, oldest first.
// A limit <= 0 returns everything held.
func (h *History) List(limit int) []*entity.ReportRecord {
	h.mux.RLock()
	defer h.mux.RUnlock()

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	list := make([]*entity.ReportRecord, 0, limit)
	for i := h.count - limit; i < h.count; i++ {
		list = append(list, h.data[(h.head+i)%len(h.data)])
	}

	return list
}

func (h *History) Get(id uint64) (*entity.ReportRecord, error) {
	h.mux.RLock()
	defer h.mux.RUnlock()

	oldest := h.lastID - uint64(h.count) + 1
	if h.count == 0 || id < oldest || id > h.lastID {
		return nil, errors.Wrapf(entity.ErrReportNotFound, "id %d", id)
	}

	return h.data[(h.head+int(id-oldest))%len(h.data)], nil
}

func (h *History) Len() int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return h.count
}

// LastID returns the ID of the newest record, 0 if nothing was added yet.
func (h *History) LastID() uint64 {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return h.lastID
}
