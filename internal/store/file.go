package store

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// region is one memory-mapped segment of the backing file.
type region struct {
	mm       mmap.MMap
	segment  uint64
	writable bool
}

// File is pstore's storage substrate: the backing file viewed as a logical,
// segmented 64-bit address space with lazy region mapping. Only segments
// the store has populated (and that are within the LRU's residency budget)
// are mapped at any moment.
type File struct {
	mu       sync.RWMutex
	f        *os.File
	size     uint64 // atomically updated logical size (footer_pos-reachable end)
	fileSize uint64 // on-disk allocated size, always a multiple of SegmentSize
	resident *lru.Cache[uint64, *region]
	header0  *region // segment 0, always pinned (holds the mutable header)
	log      *logrus.Entry

	// writeLo/writeHi bound the byte range the currently open transaction
	// may write into. Zero-valued when no transaction is open.
	writeLo, writeHi uint64
}

// Open opens or creates a pstore file at path. lruSegments bounds the
// number of non-pinned resident segments; values <= 0 fall back to 256.
func Open(path string, lruSegments int) (*File, error) {
	if lruSegments <= 0 {
		lruSegments = 256
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	sf := &File{f: f, log: logrus.WithField("component", "store")}

	evicted := func(segment uint64, r *region) {
		if r.writable {
			return // never silently drop a mapping the open tx is writing through
		}
		_ = r.mm.Unmap()
	}
	cache, err := lru.NewWithEvict[uint64, *region](lruSegments, evicted)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("build segment cache: %w", err)
	}
	sf.resident = cache

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sf.fileSize = roundUpSegment(uint64(fi.Size()))

	if fi.Size() == 0 {
		if err := sf.initEmpty(); err != nil {
			_ = f.Close()
			return nil, err
		}
	} else {
		if err := sf.validate(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return sf, nil
}

// Close unmaps all resident segments and closes the underlying file.
func (sf *File) Close() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.resident.Purge()
	if sf.header0 != nil {
		_ = sf.header0.mm.Unmap()
		sf.header0 = nil
	}
	return sf.f.Close()
}

func roundUpSegment(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return (n + SegmentSize - 1) / SegmentSize * SegmentSize
}

// initEmpty lays out a brand-new, empty store: header at offset 0 and a
// generation-0 trailer at LeaderSize.
func (sf *File) initEmpty() error {
	t := Trailer{Generation: 0, Size: 0, PrevGeneration: NullAddress}
	for i := range t.Indices {
		t.Indices[i].Addr = NullAddress
	}
	initialSize := uint64(LeaderSize) + uint64(trailerSize)
	if err := sf.growTo(initialSize); err != nil {
		return err
	}
	h := NewHeader()
	h.FooterPos = Address(LeaderSize)
	if err := sf.writeHeader(h); err != nil {
		return err
	}
	if err := sf.writeAt(uint64(LeaderSize), t.Encode()); err != nil {
		return err
	}
	atomic.StoreUint64(&sf.size, initialSize)
	return nil
}

// validate opens an existing file: it reads and checks the header, then the
// trailer it points to.
func (sf *File) validate() error {
	hdrBytes, err := sf.readAt(0, headerSize)
	if err != nil {
		return err
	}
	h, err := DecodeHeader(hdrBytes)
	if err != nil {
		return err
	}
	if uint64(h.FooterPos)+trailerSize > sf.fileSize {
		return ErrHeaderCorrupt
	}
	trailerBytes, err := sf.readAt(uint64(h.FooterPos), trailerSize)
	if err != nil {
		return err
	}
	if _, err := DecodeTrailer(trailerBytes); err != nil {
		return err
	}
	atomic.StoreUint64(&sf.size, uint64(h.FooterPos)+trailerSize)
	return nil
}

// segmentFor returns the mapped region backing segment id, mapping it
// (growing the cache, never the file) on first access.
func (sf *File) segmentFor(id uint64, writable bool) (*region, error) {
	if id == 0 {
		if sf.header0 == nil {
			r, err := sf.mapSegment(0, true)
			if err != nil {
				return nil, err
			}
			sf.header0 = r
		}
		return sf.header0, nil
	}
	if r, ok := sf.resident.Get(id); ok {
		if writable && !r.writable {
			// Promote: re-map writable. The caller only does this inside an
			// open transaction, which owns exclusive write access.
			_ = r.mm.Unmap()
			nr, err := sf.mapSegment(id, true)
			if err != nil {
				return nil, err
			}
			sf.resident.Add(id, nr)
			return nr, nil
		}
		return r, nil
	}
	r, err := sf.mapSegment(id, writable)
	if err != nil {
		return nil, err
	}
	sf.resident.Add(id, r)
	return r, nil
}

func (sf *File) mapSegment(id uint64, writable bool) (*region, error) {
	prot := mmap.RDONLY
	if writable {
		prot = mmap.RDWR
	}
	offset := int64(id * SegmentSize)
	mm, err := mmap.MapRegion(sf.f, SegmentSize, prot, 0, offset)
	if err != nil {
		return nil, fmt.Errorf("map segment %d: %w", id, err)
	}
	return &region{mm: mm, segment: id, writable: writable}, nil
}

// growTo extends the backing file so that it is at least n bytes, rounded
// up to a whole number of segments.
func (sf *File) growTo(n uint64) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	target := roundUpSegment(n)
	if target <= sf.fileSize {
		return nil
	}
	if err := sf.f.Truncate(int64(target)); err != nil {
		return fmt.Errorf("grow file to %d: %w", target, err)
	}
	sf.fileSize = target
	return nil
}

// readAt copies n bytes starting at addr out of the mapped segments,
// refusing any access that would straddle a segment boundary. It does not
// check the logical size; GetRO does that.
func (sf *File) readAt(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	segID := addr / SegmentSize
	off := addr % SegmentSize
	if off+uint64(n) > SegmentSize {
		return nil, ErrBadAddress
	}
	r, err := sf.segmentFor(segID, false)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.mm[off:off+uint64(n)])
	return out, nil
}

// writeAt writes data into the mapped segments starting at addr, refusing
// any write that would straddle a segment boundary.
func (sf *File) writeAt(addr uint64, data []byte) error {
	n := len(data)
	if n == 0 {
		return nil
	}
	segID := addr / SegmentSize
	off := addr % SegmentSize
	if off+uint64(n) > SegmentSize {
		return ErrBadAddress
	}
	if err := sf.growTo(addr + uint64(n)); err != nil {
		return err
	}
	r, err := sf.segmentFor(segID, true)
	if err != nil {
		return err
	}
	copy(r.mm[off:off+uint64(n)], data)
	return nil
}

func (sf *File) writeHeader(h Header) error {
	return sf.writeAt(0, h.Encode())
}

// Header returns the current on-disk header.
func (sf *File) Header() (Header, error) {
	buf, err := sf.readAt(0, headerSize)
	if err != nil {
		return Header{}, err
	}
	return DecodeHeader(buf)
}

// TrailerAt reads and validates the trailer at addr.
func (sf *File) TrailerAt(addr Address) (Trailer, error) {
	if addr.IsNull() {
		return Trailer{}, ErrBadAddress
	}
	buf, err := sf.readAt(uint64(addr), trailerSize)
	if err != nil {
		return Trailer{}, err
	}
	return DecodeTrailer(buf)
}

// LogicalSize returns the number of bytes of the file that are reachable
// from the newest trailer.
func (sf *File) LogicalSize() uint64 { return atomic.LoadUint64(&sf.size) }

// GetRO returns a read-only copy of size bytes at addr. It fails with
// ErrBadAddress if the range is not fully inside the current logical size
// or straddles a segment boundary.
func (sf *File) GetRO(addr Address, size uint32) ([]byte, error) {
	if addr.IsNull() {
		return nil, ErrBadAddress
	}
	end := uint64(addr) + uint64(size)
	if end > sf.LogicalSize() {
		return nil, ErrBadAddress
	}
	return sf.readAt(uint64(addr), int(size))
}

// BeginWrite opens the writable range [lo, hi) for the duration of a
// transaction. Called by the db package's Transaction, not user code.
func (sf *File) BeginWrite(lo uint64) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.writeLo, sf.writeHi = lo, lo
}

// Allocate returns a fresh address, aligned to align, of size bytes inside
// the currently open transaction's region. It never lets an allocation
// straddle a segment boundary: if the natural next position would cross
// one, it pads forward to the start of the next segment first.
func (sf *File) Allocate(size uint64, align uint64) (Address, error) {
	if align == 0 {
		align = 1
	}
	sf.mu.Lock()
	cur := sf.writeHi
	aligned := (cur + align - 1) / align * align
	startSeg := aligned / SegmentSize
	endSeg := (aligned + size - 1) / SegmentSize
	if size > 0 && endSeg != startSeg {
		aligned = (startSeg + 1) * SegmentSize
	}
	sf.writeHi = aligned + size
	sf.mu.Unlock()

	if err := sf.growTo(aligned + size); err != nil {
		return NullAddress, err
	}
	return Address(aligned), nil
}

// GetRW returns a writable view of size bytes at addr. Valid only while a
// transaction holding that range is open.
func (sf *File) GetRW(addr Address, size uint32) ([]byte, error) {
	if addr.IsNull() {
		return nil, ErrBadAddress
	}
	a := uint64(addr)
	if a < sf.writeLo || a+uint64(size) > sf.writeHi {
		return nil, ErrBadAddress
	}
	segID := a / SegmentSize
	off := a % SegmentSize
	if off+uint64(size) > SegmentSize {
		return nil, ErrBadAddress
	}
	sf.mu.Lock()
	r, err := sf.segmentFor(segID, true)
	sf.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.mm[off : off+uint64(size)], nil
}

// WriteRW writes data at addr inside the open transaction's range.
func (sf *File) WriteRW(addr Address, data []byte) error {
	dst, err := sf.GetRW(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Protect remaps the byte range [lo, hi) read-only, except for segment 0's
// first page (the mutable header). Called after a transaction commits.
func (sf *File) Protect(lo, hi uint64) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	startSeg := lo / SegmentSize
	endSeg := (hi + SegmentSize - 1) / SegmentSize
	for seg := startSeg; seg < endSeg; seg++ {
		var r *region
		if seg == 0 {
			r = sf.header0
		} else if v, ok := sf.resident.Get(seg); ok {
			r = v
		}
		if r == nil || !r.writable {
			continue
		}
		if seg == 0 {
			// Leave the first page (the header) writable, and the page
			// holding hi, where the next transaction's allocations start.
			end := hi / pageSize * pageSize
			if end > uint64(len(r.mm)) {
				end = uint64(len(r.mm))
			}
			if end > pageSize {
				if err := unix.Mprotect(r.mm[pageSize:end], unix.PROT_READ); err != nil {
					return fmt.Errorf("protect segment 0 tail: %w", err)
				}
			}
			continue
		}
		if err := unix.Mprotect(r.mm, unix.PROT_READ); err != nil {
			return fmt.Errorf("protect segment %d: %w", seg, err)
		}
		r.writable = false
	}
	return nil
}

// PublishFooter atomically stores a new footer_pos into the header and
// commits the new logical size. This is the linearisation point for
// readers: anyone who observes the new footer_pos afterward observes every
// byte the committing transaction wrote.
func (sf *File) PublishFooter(newFooter Address, newSize uint64) error {
	h, err := sf.Header()
	if err != nil {
		return err
	}
	h.FooterPos = newFooter
	if err := sf.writeHeader(h); err != nil {
		return err
	}
	atomic.StoreUint64(&sf.size, newSize)
	return nil
}
