// Package fileutil walks directory trees and selects files by extension.
//
// It is the traversal collaborator of the counting pipeline: it knows nothing
// about queues or workers and simply reports every entry it meets to a visit
// callback, classified by an EntryKind.
//
// # Extension matching
//
// The extension of a file is the substring of its base name after the final
// ".". Matching is case-sensitive and exact, so "archive.tar.gz" has extension
// "gz" and never matches "tar.gz". A name without any "." has no extension and
// is reported as EntryNoExtension. A name ending in "." has an empty extension
// and never matches.
//
// # Depth and symbolic links
//
// Entries directly inside the root are at depth 1. With MaxDepth > 0, a
// directory at depth d is descended only when d < MaxDepth; MaxDepth 0 means
// unlimited. Symbolic links are reported as EntrySymlink and not followed
// unless FollowSymlinks is set. When following, every directory is descended
// at most once per walk: a link that resolves to a directory currently being
// walked is reported as a cycle (ErrSymlinkCycle), and a second path to a
// directory walked earlier is reported with ErrAlreadyVisited. Linked files
// are reported under the link's own path.
//
// # Errors
//
// Only a failure to read the root itself is returned from Walk. Unreadable
// subdirectories are reported as EntryWalkError and traversal continues with
// their siblings.
package fileutil
