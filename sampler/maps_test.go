package sampler

import (
	"testing"

	"github.com/nsolari/procwatch/model"
)

func TestParseMapLine(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"executable with path", "55a1b2c3d000-55a1b2c5e000 r-xp 00000000 08:01 1234567   /usr/bin/foo"},
		{"anonymous heap", "55a1b2c5e000-55a1b2c7f000 rw-p 00000000 00:00 0          [heap]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := parseMapLine(tc.line)
			if !ok {
				t.Fatalf("parseMapLine(%q) failed", tc.line)
			}
			if r.End <= r.Start {
				t.Errorf("expected End > Start, got start=%x end=%x", r.Start, r.End)
			}
			if r.Size() != r.End-r.Start {
				t.Errorf("Size() = %d, want %d", r.Size(), r.End-r.Start)
			}
		})
	}
}

func TestParseMapLinePermBits(t *testing.T) {
	r, ok := parseMapLine("55a1b2c3d000-55a1b2c5e000 rwxs 00000000 08:01 1234567 /lib/x.so")
	if !ok {
		t.Fatal("parse failed")
	}
	if !r.IsReadable || !r.IsWritable || !r.IsExecutable || !r.IsShared || r.IsPrivate {
		t.Errorf("unexpected perm bits from %q: %+v", r.Perms, r)
	}
}

func TestParseMapLineMalformed(t *testing.T) {
	if _, ok := parseMapLine("not a valid line"); ok {
		t.Error("expected malformed line to fail to parse")
	}
}

func TestSummarizeMemoryMap(t *testing.T) {
	lines := []string{
		"55a1b2c3d000-55a1b2c3e000 r-xp 00000000 08:01 1 /usr/bin/foo",                 // code, 4096
		"55a1b2c3e000-55a1b2c40000 rw-p 00000000 08:01 1 /usr/bin/foo",                 // data, 8192
		"55a1b2c40000-55a1b2c41000 rw-p 00000000 00:00 0 [heap]",                       // heap, 4096
		"7fff00000000-7fff00001000 rw-p 00000000 00:00 0 [stack]",                      // stack, 4096
		"7f0000000000-7f0000010000 r-xp 00000000 08:01 2 /lib/x86_64-linux-gnu/libc.so.6", // lib, 65536
	}
	var regions []model.MemoryRegion
	for _, l := range lines {
		r, ok := parseMapLine(l)
		if !ok {
			t.Fatalf("failed to parse %q", l)
		}
		regions = append(regions, r)
	}

	sum := SummarizeMemoryMap(regions)

	if sum.CodeSize != 4096 {
		t.Errorf("CodeSize = %d, want 4096", sum.CodeSize)
	}
	if sum.DataSize != 8192 {
		t.Errorf("DataSize = %d, want 8192", sum.DataSize)
	}
	if sum.HeapSize != 4096 {
		t.Errorf("HeapSize = %d, want 4096", sum.HeapSize)
	}
	if sum.StackSize != 4096 {
		t.Errorf("StackSize = %d, want 4096", sum.StackSize)
	}
	if sum.SharedLibSize != 65536 {
		t.Errorf("SharedLibSize = %d, want 65536", sum.SharedLibSize)
	}
	wantTotal := uint64(4096 + 8192 + 4096 + 4096 + 65536)
	if sum.TotalSize != wantTotal {
		t.Errorf("TotalSize = %d, want %d", sum.TotalSize, wantTotal)
	}
	if sum.Libraries["/lib/x86_64-linux-gnu/libc.so.6"] != 65536 {
		t.Errorf("Libraries map missing libc entry: %+v", sum.Libraries)
	}
}
