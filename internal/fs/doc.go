// Package fs provides filesystem abstractions for testability and fault injection.
//
//   - [FileSystem] abstracts the operations used by the local index store.
//   - [LocalFS] is the production implementation on top of package os.
//   - [FaultyFS] injects write, sync and rename failures in tests.
//
// [WriteFile] replaces a file atomically (temporary file, fsync, rename) and
// [Lock] takes an advisory exclusive lock on a directory.
//
// Operations take no context.Context. Local filesystem calls cannot be
// interrupted at the syscall level.
package fs
