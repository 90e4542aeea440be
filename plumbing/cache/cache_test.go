package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brillcp/SwiftGit-sub000/plumbing/hash"
	"github.com/brillcp/SwiftGit-sub000/plumbing/object"
)

type CacheSuite struct {
	suite.Suite
	aObject *object.Object
	bObject *object.Object
	cObject *object.Object
	dObject *object.Object
	eObject *object.Object
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func newObject(h string, size int64) *object.Object {
	id := hash.MustFromHex(h)
	return &object.Object{
		Type: object.BlobObject,
		ID:   id,
		Blob: &object.Blob{ID: id, Size: size},
	}
}

func (s *CacheSuite) SetupTest() {
	s.aObject = newObject("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 1)
	s.bObject = newObject("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 3)
	s.cObject = newObject("cccccccccccccccccccccccccccccccccccccccc", 1)
	s.dObject = newObject("dddddddddddddddddddddddddddddddddddddddd", 1)
	s.eObject = newObject("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", 2)
}

func (s *CacheSuite) TestPutSameObject() {
	c := NewDefault()
	c.PutObject(s.aObject)
	c.PutObject(s.aObject)
	_, ok := c.GetObject(s.aObject.ID)
	s.True(ok)
}

func (s *CacheSuite) TestPutSameObjectWithDifferentSize() {
	h := hash.MustFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	c := New(0, 7*Byte)
	c.PutObject(newObject(h.String(), 1))
	c.PutObject(newObject(h.String(), 3))
	c.PutObject(newObject(h.String(), 5))
	c.PutObject(newObject(h.String(), 7))

	obj, ok := c.GetObject(h)
	s.Require().True(ok)
	s.Equal(h, obj.ID)
	s.EqualValues(7, obj.Size())
	s.Equal(1, c.Stats().Entries)
}

func (s *CacheSuite) TestByteBoundEvictsOldest() {
	c := New(0, 2*Byte)

	c.PutObject(s.cObject)
	c.PutObject(s.dObject) // cache now full with two 1-byte objects
	c.PutObject(s.eObject) // 2-byte object evicts both

	_, ok := c.GetObject(s.cObject.ID)
	s.False(ok)
	_, ok = c.GetObject(s.dObject.ID)
	s.False(ok)
	obj, ok := c.GetObject(s.eObject.ID)
	s.True(ok)
	s.NotNil(obj)
	s.EqualValues(2, c.Stats().Evictions)
}

// TestEntryCountBoundCapsSizeRegardlessOfBytes is the spec's TESTABLE
// PROPERTY: after N insertions exceeding count bound C, the cache never
// holds more than C entries, independent of how small each value is.
func (s *CacheSuite) TestEntryCountBoundCapsSizeRegardlessOfBytes() {
	const bound = 5
	c := New(bound, 0)

	for i := 0; i < 20; i++ {
		h := hash.MustFromHex(fmt.Sprintf("%040d", i))
		c.PutObject(&object.Object{Type: object.BlobObject, ID: h, Blob: &object.Blob{ID: h, Size: 1}})
	}

	s.LessOrEqual(c.Stats().Entries, bound)
}

func (s *CacheSuite) TestBlobsAtOrAboveLimitAreNotCached() {
	c := NewDefault()
	h := hash.MustFromHex("ffffffffffffffffffffffffffffffffffffffff")
	big := &object.Object{Type: object.BlobObject, ID: h, Blob: &object.Blob{ID: h, Size: int64(BlobCacheLimit)}}

	c.PutObject(big)

	_, ok := c.GetObject(h)
	s.False(ok)
	s.Zero(c.Stats().Entries)
}

func (s *CacheSuite) TestKindsDoNotCollideOnTheSameHash() {
	c := NewDefault()
	h := hash.MustFromHex("1111111111111111111111111111111111111111"[:40])

	c.Put(CommitKey(h), "commit-value", 1)
	c.Put(TreeKey(h), "tree-value", 1)
	c.Put(BlobKey(h), "blob-value", 1)

	v, ok := c.Get(CommitKey(h))
	s.Require().True(ok)
	s.Equal("commit-value", v)

	v, ok = c.Get(TreeKey(h))
	s.Require().True(ok)
	s.Equal("tree-value", v)

	v, ok = c.Get(BlobKey(h))
	s.Require().True(ok)
	s.Equal("blob-value", v)
}

func (s *CacheSuite) TestSingletonKeysRefsAndHead() {
	c := NewDefault()
	c.Put(RefsKey(), []string{"main", "dev"}, 2)
	c.Put(HeadKey(), "main", 1)

	refs, ok := c.Get(RefsKey())
	s.Require().True(ok)
	s.Equal([]string{"main", "dev"}, refs)

	head, ok := c.Get(HeadKey())
	s.Require().True(ok)
	s.Equal("main", head)
}

func (s *CacheSuite) TestTreePathsRoundTrip() {
	c := NewDefault()
	h := hash.MustFromHex("2222222222222222222222222222222222222222"[:40])
	paths := map[string]hash.ID{"a.go": h, "b/c.go": h}

	c.PutTreePaths(h, paths)

	got, ok := c.GetTreePaths(h)
	s.Require().True(ok)
	s.Equal(paths, got)
}

func (s *CacheSuite) TestStatsCountHitsAndMisses() {
	c := NewDefault()
	c.PutObject(s.aObject)

	c.GetObject(s.aObject.ID)
	c.GetObject(s.bObject.ID)

	stats := c.Stats()
	s.EqualValues(1, stats.Hits)
	// GetObject probes three kinds per lookup; a miss counts once per kind
	// probed without a match.
	s.GreaterOrEqual(stats.Misses, uint64(1))
}

func (s *CacheSuite) TestClear() {
	c := NewDefault()
	c.PutObject(s.aObject)
	c.Clear()

	obj, ok := c.GetObject(s.aObject.ID)
	s.False(ok)
	s.Nil(obj)
	s.Zero(c.Stats().Entries)
}

func (s *CacheSuite) TestConcurrentAccess() {
	c := NewDefault()
	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(3)
		key := fmt.Sprintf("%040d", i)
		go func(k string, i int) {
			defer wg.Done()
			h := hash.MustFromHex(k)
			c.PutObject(&object.Object{Type: object.BlobObject, ID: h, Blob: &object.Blob{ID: h, Size: int64(i)}})
		}(key, i)

		go func(i int) {
			defer wg.Done()
			if i%30 == 0 {
				c.Clear()
			}
		}(i)

		go func(k string) {
			defer wg.Done()
			c.GetObject(hash.MustFromHex(k))
		}(key)
	}

	wg.Wait()
}

func (s *CacheSuite) TestDefaultBounds() {
	c := NewDefault()
	s.Equal(DefaultMaxEntries, c.MaxEntries)
	s.Equal(DefaultMaxBytes, c.MaxBytes)
}
