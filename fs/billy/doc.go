// Package billy provides go-billy-backed rio backends for local and in-memory
// resources.
//
// NewLocal serves the "file" scheme over billy's osfs rooted at "/". NewMemory
// serves the "mem" scheme over billy's memfs; every resource opened through one
// memory backend shares the same in-memory tree.
//
// Usage:
//
//	reg := scheme.New(billy.NewLocal(), billy.NewMemory())
//	table := rio.NewTable(rio.WithSchemes(reg))
//
//	h, err := table.Open("mem://scratch/data.bin", rio.Read|rio.Write|rio.Seek)
//
// # Resource Kinds
//
// Regular files are granted the requested subset of Read, Write and Seek and use
// positional I/O. Named pipes, sockets and character devices are opened as streams:
// they are never seekable and report a size of -1.
//
// # Thread Safety
//
// Backends are safe for concurrent use by multiple goroutines. The handle layer
// serializes access to each opened resource.
package billy
