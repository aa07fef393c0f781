package kernel

import "golang.org/x/sys/cpu"

// packedLanes reports whether Init installs the packed row converter. Both
// converters are portable Go and agree bit for bit. SSE2 and ASIMD are
// baseline on amd64 and arm64, so this is an architecture switch in
// practice: true there and on SSE2-capable 386, false elsewhere.
func packedLanes() bool {
	return cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
}

// Features lists the CPU features relevant to row dispatch that the host
// reports, in a fixed order.
func Features() []string {
	var f []string
	if cpu.X86.HasSSE2 {
		f = append(f, "sse2")
	}
	if cpu.X86.HasSSE41 {
		f = append(f, "sse4.1")
	}
	if cpu.X86.HasAVX2 {
		f = append(f, "avx2")
	}
	if cpu.ARM64.HasASIMD {
		f = append(f, "asimd")
	}
	return f
}
