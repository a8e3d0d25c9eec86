// Package fs provides the filesystem abstraction behind the local blob store.
//
//   - [FileSystem]: the operations the local store performs (open, rename, remove, ...)
//   - [OS]: production implementation using the os package
//   - [FaultyFS]: test wrapper that injects write, sync and rename failures
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.Create(path)
//
// Tests inject a FaultyFS to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailOnSync: true})
//
// Operations take no context.Context: local filesystem calls are not
// interruptible at the syscall level. Remote stores live in blobstore.
package fs
