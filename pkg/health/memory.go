package health

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/Sternrassler/perfcache/pkg/metrics"
	"github.com/shirou/gopsutil/v4/process"
)

// MemoryReader takes a process memory reading.
type MemoryReader interface {
	ReadMemory(ctx context.Context) metrics.MemorySample
}

// MemoryReaderFunc adapts a function to MemoryReader.
type MemoryReaderFunc func(ctx context.Context) metrics.MemorySample

// ReadMemory implements MemoryReader.
func (f MemoryReaderFunc) ReadMemory(ctx context.Context) metrics.MemorySample {
	return f(ctx)
}

// RuntimeReader reads heap figures from the Go runtime and RSS from the OS.
type RuntimeReader struct {
	proc *process.Process
}

// NewRuntimeReader creates a reader for the current process.
func NewRuntimeReader() *RuntimeReader {
	// RSS falls back to runtime figures when the process handle is unavailable
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &RuntimeReader{proc: proc}
}

// ReadMemory implements MemoryReader.
//
// HeapTotal is the heap reserved from the OS, HeapUsed the live heap
// allocation, External the runtime memory outside the heap (stacks,
// GC metadata, buffers).
func (r *RuntimeReader) ReadMemory(ctx context.Context) metrics.MemorySample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sample := metrics.MemorySample{
		RSS:       ms.Sys,
		HeapTotal: ms.HeapSys,
		HeapUsed:  ms.HeapAlloc,
		External:  ms.Sys - ms.HeapSys,
		Timestamp: time.Now(),
	}

	if r.proc != nil {
		if info, err := r.proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			sample.RSS = info.RSS
		}
	}

	return sample
}
