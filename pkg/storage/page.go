package storage

import "fmt"

// Header is the common prefix every page header embeds: its identity, the
// backend's fixed page size, and the live/maximum entry counts. Grounded
// on original_source/include/header_array.h's HeaderBase.
type Header struct {
	PageID  PageID
	PageSize int
	Size    int
	MaxSize int
}

// String renders a header the way HeaderBase::ToString does.
func (h Header) String() string {
	return fmt.Sprintf("{pageId = %d, pageSize = %d, size = %d, max_size = %d}",
		h.PageID, h.PageSize, h.Size, h.MaxSize)
}

// MaxEntries computes how many entries of entrySize bytes fit in a page of
// pageSize bytes behind a header of headerSize bytes, reserving one
// trailing scratch slot for shift operations during Insert/Erase. Mirrors
// header_array.h's max_size<Header, T>.
func MaxEntries(pageSize, headerSize, entrySize int) int {
	return (pageSize-headerSize)/entrySize - 1
}

// InitHeader fills in a freshly allocated page's header.
func InitHeader(id PageID, pageSize, headerSize, entrySize int) Header {
	return Header{
		PageID:  id,
		PageSize: pageSize,
		Size:    0,
		MaxSize: MaxEntries(pageSize, headerSize, entrySize),
	}
}

// Slots is the materialized, in-memory entry array every page type is
// built from: a fixed-capacity slice of MaxSize+1 elements (the "+1" is
// the mandatory scratch slot insert/erase shift through), fronted by a
// shared Header. It is the Go analogue of header_array.h's HeaderArray,
// expressed with slice indices instead of raw pointer arithmetic.
type Slots[T any] struct {
	header *Header
	arr    []T
}

// NewSlots wraps a header and a backing array of exactly header.MaxSize+1
// elements into a Slots view. The backing array is typically itself a
// field of a decoded page struct.
func NewSlots[T any](header *Header, arr []T) *Slots[T] {
	if len(arr) != header.MaxSize+1 {
		panic(fmt.Sprintf("storage: slots backing array has %d elements, want %d", len(arr), header.MaxSize+1))
	}
	return &Slots[T]{header: header, arr: arr}
}

func (s *Slots[T]) Begin() int    { return 0 }
func (s *Slots[T]) End() int      { return s.header.Size }
func (s *Slots[T]) ArrayEnd() int { return s.header.MaxSize }
func (s *Slots[T]) Size() int     { return s.header.Size }
func (s *Slots[T]) MaxSize() int  { return s.header.MaxSize }
func (s *Slots[T]) Full() bool    { return s.header.Size == s.header.MaxSize }
func (s *Slots[T]) Empty() bool   { return s.header.Size == 0 }

// At returns the entry at a live index in [0, Size()). Out-of-range
// access is a caller defect, not a recoverable condition.
func (s *Slots[T]) At(i int) T {
	if i < 0 || s.header.Size <= i {
		panic(fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, i, s.header.Size).Error())
	}
	return s.arr[i]
}

// Set overwrites the entry at a live index.
func (s *Slots[T]) Set(i int, v T) {
	if i < 0 || s.header.Size <= i {
		panic(fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, i, s.header.Size).Error())
	}
	s.arr[i] = v
}

func (s *Slots[T]) Front() T { return s.At(0) }
func (s *Slots[T]) Back() T  { return s.At(s.header.Size - 1) }

// Find returns the index of the first live entry satisfying predicate,
// or End() if none does.
func (s *Slots[T]) Find(predicate func(T) bool) int {
	for i := 0; i < s.header.Size; i++ {
		if predicate(s.arr[i]) {
			return i
		}
	}
	return s.header.Size
}

// FindLast returns the start of the maximal trailing run of live entries
// all satisfying predicate, or End() if the last entry does not satisfy
// it. This resolves header_array.h's find_last ambiguity (whose pointer
// arithmetic never evaluates the predicate at begin()) by defining it
// directly in terms of the contiguous matching suffix.
func (s *Slots[T]) FindLast(predicate func(T) bool) int {
	i := s.header.Size
	for i > 0 && predicate(s.arr[i-1]) {
		i--
	}
	return i
}

// Insert places what at index where, shifting every entry at or after
// where (including the scratch slot) one position to the right.
func (s *Slots[T]) Insert(where int, what T) {
	s.rangeCheck(where, s.header.Size+1)
	copy(s.arr[where+1:s.header.Size+1], s.arr[where:s.header.Size])
	s.arr[where] = what
	s.header.Size++
}

// PushBack appends what at the end of the live range.
func (s *Slots[T]) PushBack(what T) {
	s.rangeCheck(s.header.Size, s.header.Size+1)
	s.arr[s.header.Size] = what
	s.header.Size++
}

// Erase removes the entry at index where, shifting every later entry one
// position to the left.
func (s *Slots[T]) Erase(where int) {
	s.rangeCheck(where, s.header.Size)
	copy(s.arr[where:s.header.Size-1], s.arr[where+1:s.header.Size])
	s.header.Size--
}

func (s *Slots[T]) rangeCheck(where, limit int) {
	if where < 0 || limit > s.header.MaxSize+1 || where > s.header.MaxSize {
		panic(fmt.Errorf("%w: index %d", ErrOutOfRange, where).Error())
	}
}

// NextUnique finds the first occurrence of pivot at or after from, and
// returns the index of the first later element whose value does not
// occur anywhere in seq[from : that occurrence+1]; it returns len(seq)
// if there is no such element or pivot does not occur. Grounded on
// header_array.h's NextUnique, used by Fagin's directory walk to skip duplicate PageIds when several directory slots alias one bucket.
func NextUnique[E comparable](seq []E, from int, pivot E) int {
	seen := make(map[E]struct{})
	foundPivot := false
	for i := from; i < len(seq); i++ {
		v := seq[i]
		if foundPivot {
			if _, ok := seen[v]; !ok {
				return i
			}
			continue
		}
		seen[v] = struct{}{}
		if v == pivot {
			foundPivot = true
		}
	}
	return len(seq)
}
