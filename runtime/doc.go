// Package runtime implements the host-side surface described at
// interface level in spec.md §4.5/§6: a device context acquired under a
// process-wide spinlock, a memory allocator with region lifecycle, a
// content-addressed compilation cache, and a single dispatch operation.
//
// runtime never talks to a real GPU driver directly; it drives a Device
// implementation supplied by the caller, the way the Vulkan runtime this
// package is modeled on drives the Vulkan API underneath a thin C ABI.
package runtime
