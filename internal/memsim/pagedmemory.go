package memsim

import (
	"fmt"
	"log"
)

const (
	pageSize     = 1 << 12 // 4 KiB
	pageOffsetBits = 12
	dirBits        = 10
	subBits        = 10
)

type page [pageSize]byte

type subDirectory struct {
	pages [1 << subBits]*page
}

// PagedMemory is a sparse, byte-addressable 32-bit address space backed by
// a two-level page directory, matching the classic x86-style page table
// shape: 1024 top-level entries, each lazily pointing at 1024 second-level
// entries, each lazily pointing at a 4 KiB page.
//
// PagedMemory is the terminal backing store of a Hierarchy; every cache
// level shares the same instance.
type PagedMemory struct {
	dirs   [1 << dirBits]*subDirectory
	logger *log.Logger
}

// NewPagedMemory creates an empty paged address space.
func NewPagedMemory(logger *log.Logger) *PagedMemory {
	if logger == nil {
		logger = defaultLogger()
	}
	return &PagedMemory{logger: logger}
}

func dirIndex(addr uint32) uint32 {
	return (addr >> (pageOffsetBits + subBits)) & (1<<dirBits - 1)
}

func subIndex(addr uint32) uint32 {
	return (addr >> pageOffsetBits) & (1<<subBits - 1)
}

func pageOffset(addr uint32) uint32 {
	return addr & (pageSize - 1)
}

// PageExists reports whether the page backing addr has been allocated.
func (m *PagedMemory) PageExists(addr uint32) bool {
	dir := m.dirs[dirIndex(addr)]
	if dir == nil {
		return false
	}
	return dir.pages[subIndex(addr)] != nil
}

// AddPage allocates a zero-filled page backing addr, lazily allocating the
// directory and sub-directory entries that lead to it. It returns false,
// without error, if the page already existed.
func (m *PagedMemory) AddPage(addr uint32) bool {
	di := dirIndex(addr)
	if m.dirs[di] == nil {
		m.dirs[di] = &subDirectory{}
	}

	si := subIndex(addr)
	if m.dirs[di].pages[si] != nil {
		return false
	}

	m.dirs[di].pages[si] = &page{}
	return true
}

// GetByte reads a single byte. Accessing an address with no backing page
// is a programming error in the simulator (the caller is expected to have
// called AddPage first) and panics with the offending address.
func (m *PagedMemory) GetByte(addr uint32) byte {
	p := m.pageFor(addr)
	return p[pageOffset(addr)]
}

// SetByte writes a single byte. See GetByte for the missing-page contract.
func (m *PagedMemory) SetByte(addr uint32, v byte) {
	p := m.pageFor(addr)
	p[pageOffset(addr)] = v
}

func (m *PagedMemory) pageFor(addr uint32) *page {
	dir := m.dirs[dirIndex(addr)]
	if dir == nil {
		panic(fmt.Sprintf("memsim: access to unmapped address 0x%08x", addr))
	}
	p := dir.pages[subIndex(addr)]
	if p == nil {
		panic(fmt.Sprintf("memsim: access to unmapped address 0x%08x", addr))
	}
	return p
}

// TryGetByte is the soft-warning counterpart of GetByte, used by debug and
// inspection tooling that peeks at memory outside of the normal
// ensure-the-page-exists simulation path. A missing page is logged and
// answered with a best-effort zero value rather than panicking.
func (m *PagedMemory) TryGetByte(addr uint32) (byte, bool) {
	if !m.PageExists(addr) {
		m.logger.Printf("memsim: direct read of unmapped address 0x%08x, returning 0", addr)
		return 0, false
	}
	return m.GetByte(addr), true
}
