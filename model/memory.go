package model

// MemoryRegion is one row parsed from /proc/<pid>/maps.
type MemoryRegion struct {
	Start      uint64
	End        uint64
	Perms      string
	Offset     uint64
	Device     string
	Inode      uint64
	Pathname   string

	IsReadable   bool
	IsWritable   bool
	IsExecutable bool
	IsShared     bool
	IsPrivate    bool
}

// Size returns End - Start in bytes.
func (r MemoryRegion) Size() uint64 {
	return r.End - r.Start
}

// MemoryMapSummary aggregates a process's memory regions by category, the
// way a memory-map visualizer would.
type MemoryMapSummary struct {
	TotalSize     uint64
	CodeSize      uint64
	DataSize      uint64
	HeapSize      uint64
	StackSize     uint64
	SharedLibSize uint64
	Libraries     map[string]uint64
}
