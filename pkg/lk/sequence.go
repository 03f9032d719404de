package lk

import "pagedex/pkg/hash"

// maxPairs bounds the hash sequence's growth. Grounded on
// larson_kalja.h's LkHash::Expand, whose HashError()/assert fires past
// 0x10000 generations; here that boundary surfaces as ErrHashExhausted.
const maxPairs = 0x10000

type hxPair struct {
	dirHash *hash.Family
	sigHash *hash.Family
}

func newPair(i int) hxPair {
	return hxPair{
		dirHash: hash.New(hash.NewSeededSource(uint64(2*i + 1))),
		sigHash: hash.New(hash.NewSeededSource(uint64(2*i + 2))),
	}
}

// sequence is the growable family of (directory-hash, signature-hash)
// pairs a Larson-Kalja table draws successive hash generations from.
// Grounded on larson_kalja.h's LkHash.
type sequence struct {
	pairs  []hxPair
	maxDir int
}

func newSequence(maxDir int) *sequence {
	if maxDir <= 0 {
		maxDir = 1
	}
	return &sequence{pairs: []hxPair{newPair(0)}, maxDir: maxDir}
}

func (s *sequence) expand() error {
	if len(s.pairs) >= maxPairs {
		return ErrHashExhausted
	}
	target := len(s.pairs) * 2
	if target > maxPairs {
		target = maxPairs
	}
	for i := len(s.pairs); i < target; i++ {
		s.pairs = append(s.pairs, newPair(i))
	}
	return nil
}

func (s *sequence) dirIndex(hashIx int, key uint64) int {
	return int(s.pairs[hashIx].dirHash.Hash64(key) % uint64(s.maxDir))
}

func (s *sequence) signature(hashIx int, key uint64) uint64 {
	return s.pairs[hashIx].sigHash.Hash64(key)
}

// search finds the directory slot key currently resolves to, scanning
// hash generations from the first until one places key below its slot's
// separator. Grounded on larson_kalja.h's LkHash::Search.
func (s *sequence) search(key uint64, dir []dirEntry) (int, bool) {
	for hashIx := 0; hashIx < len(s.pairs); hashIx++ {
		dirIx := s.dirIndex(hashIx, key)
		if s.signature(hashIx, key) < dir[dirIx].Separator {
			return dirIx, true
		}
	}
	return 0, false
}

// advance finds the directory slot for key starting from hash generation
// startHashIx, growing the sequence as needed. Grounded on
// larson_kalja.h's LkHash::Advance.
func (s *sequence) advance(key uint64, startHashIx int, dir []dirEntry) (dirIx int, hashIx int, err error) {
	hashIx = startHashIx
	for {
		if hashIx >= len(s.pairs) {
			if err := s.expand(); err != nil {
				return 0, 0, err
			}
		}
		dirIx = s.dirIndex(hashIx, key)
		if s.signature(hashIx, key) < dir[dirIx].Separator {
			return dirIx, hashIx, nil
		}
		hashIx++
	}
}
