package fileutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Reasons attached to Entry.Err for entries that were not accepted.
var (
	ErrNoExtension    = errors.New("has no extension")
	ErrNotReadable    = errors.New("not accessible")
	ErrNotRegular     = errors.New("not a regular file")
	ErrSymlinkSkipped = errors.New("symbolic link not followed")
	ErrSymlinkCycle   = errors.New("symbolic link cycle")
	ErrAlreadyVisited = errors.New("directory already visited")
	ErrDepthLimit     = errors.New("maximum depth reached")
)

// EntryKind classifies a visited filesystem entry.
type EntryKind int

const (
	EntryAccepted     EntryKind = iota // regular, readable, extension matched
	EntryUnmatched                     // extension present but not requested
	EntryNoExtension                   // base name contains no "."
	EntryUnreadable                    // matched but not readable by this process
	EntryNotRegular                    // device, socket, fifo and similar
	EntrySymlink                       // symbolic link left unfollowed
	EntrySymlinkCycle                  // followed link to an ancestor or an already walked directory
	EntryDepthLimited                  // directory not descended because of MaxDepth
	EntryWalkError                     // directory or link that could not be read
)

var entryKindNames = map[EntryKind]string{
	EntryAccepted:     "accepted",
	EntryUnmatched:    "unmatched",
	EntryNoExtension:  "no-extension",
	EntryUnreadable:   "unreadable",
	EntryNotRegular:   "not-regular",
	EntrySymlink:      "symlink",
	EntrySymlinkCycle: "symlink-cycle",
	EntryDepthLimited: "depth-limited",
	EntryWalkError:    "walk-error",
}

func (k EntryKind) String() string {
	if name, ok := entryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// Entry is one filesystem entry reported by Walk.
type Entry struct {
	Path  string    // root joined with the entry's relative path
	Kind  EntryKind // classification of the entry
	Ext   string    // extension, set for file entries that have one
	Depth int       // 1 for entries directly inside root
	Err   error     // reason the entry was not accepted; nil for accepted and unmatched
}

// WalkOptions configures Walk.
type WalkOptions struct {
	// Extensions lists accepted extensions without the leading dot.
	// An empty list accepts nothing.
	Extensions []string

	// MaxDepth limits descent below root (0 = unlimited, 1 = root only).
	MaxDepth int

	// FollowSymlinks descends into linked directories and counts linked files.
	FollowSymlinks bool

	// ExcludeDirs names directories (by base name) that are never descended.
	ExcludeDirs []string
}

// VisitFunc receives every entry Walk meets. Returning a non-nil error stops
// the walk and Walk returns that error.
type VisitFunc func(Entry) error

type walker struct {
	exts     ExtensionSet
	exclude  map[string]bool
	maxDepth int
	follow   bool
	visit    VisitFunc
	visited  *dirSet
}

// Walk traverses root depth-first, calling visit for every entry below it.
// It returns an error only when root cannot be read, when visit returns one,
// or when ctx is cancelled.
func Walk(ctx context.Context, root string, opts WalkOptions, visit VisitFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to walk directory: %s is not a directory", root)
	}

	exclude := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		exclude[dir] = true
	}

	w := &walker{
		exts:     NewExtensionSet(opts.Extensions),
		exclude:  exclude,
		maxDepth: opts.MaxDepth,
		follow:   opts.FollowSymlinks,
		visit:    visit,
		visited:  newDirSet(),
	}
	w.visited.add(info)
	return w.walkDir(ctx, root, 0, []os.FileInfo{info})
}

func (w *walker) walkDir(ctx context.Context, dir string, depth int, ancestors []os.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// ReadDir may return the entries it managed to read along with an error.
	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 && len(entries) == 0 {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
		if verr := w.visit(Entry{Path: dir, Kind: EntryWalkError, Depth: depth, Err: err}); verr != nil {
			return verr
		}
	}

	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.visitEntry(ctx, filepath.Join(dir, d.Name()), d, depth+1, ancestors); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visitEntry(ctx context.Context, path string, d fs.DirEntry, depth int, ancestors []os.FileInfo) error {
	typ := d.Type()

	if typ&fs.ModeSymlink != 0 {
		if !w.follow {
			return w.visit(Entry{Path: path, Kind: EntrySymlink, Depth: depth, Err: ErrSymlinkSkipped})
		}
		target, err := os.Stat(path)
		if err != nil {
			return w.visit(Entry{Path: path, Kind: EntryWalkError, Depth: depth, Err: err})
		}
		if target.IsDir() {
			for _, anc := range ancestors {
				if os.SameFile(anc, target) {
					return w.visit(Entry{Path: path, Kind: EntrySymlinkCycle, Depth: depth, Err: ErrSymlinkCycle})
				}
			}
			return w.descend(ctx, path, d.Name(), target, depth, ancestors)
		}
		typ = target.Mode().Type()
	}

	if typ.IsDir() {
		info, err := d.Info()
		if err != nil {
			return w.visit(Entry{Path: path, Kind: EntryWalkError, Depth: depth, Err: err})
		}
		return w.descend(ctx, path, d.Name(), info, depth, ancestors)
	}

	if !typ.IsRegular() {
		return w.visit(Entry{Path: path, Kind: EntryNotRegular, Depth: depth, Err: ErrNotRegular})
	}

	ext, matched := MatchExtension(d.Name(), w.exts)
	switch {
	case !matched:
		if _, hasDot := SplitExtension(d.Name()); !hasDot {
			return w.visit(Entry{Path: path, Kind: EntryNoExtension, Depth: depth, Err: ErrNoExtension})
		}
		return w.visit(Entry{Path: path, Kind: EntryUnmatched, Ext: ext, Depth: depth})
	case !readable(path):
		return w.visit(Entry{Path: path, Kind: EntryUnreadable, Ext: ext, Depth: depth, Err: ErrNotReadable})
	default:
		return w.visit(Entry{Path: path, Kind: EntryAccepted, Ext: ext, Depth: depth})
	}
}

func (w *walker) descend(ctx context.Context, path, name string, info os.FileInfo, depth int, ancestors []os.FileInfo) error {
	if w.exclude[name] {
		return nil
	}
	if w.maxDepth > 0 && depth >= w.maxDepth {
		return w.visit(Entry{Path: path, Kind: EntryDepthLimited, Depth: depth, Err: ErrDepthLimit})
	}
	// A directory reached through a second path is walked only the first time.
	if w.follow && !w.visited.add(info) {
		return w.visit(Entry{Path: path, Kind: EntrySymlinkCycle, Depth: depth, Err: ErrAlreadyVisited})
	}
	// Full slice expression so sibling subtrees never share a backing array.
	return w.walkDir(ctx, path, depth, append(ancestors[:len(ancestors):len(ancestors)], info))
}

// dirSet records the directories a walk has descended into.
type dirSet struct {
	ids   map[fileID]struct{}
	infos []os.FileInfo // platforms without device and inode numbers
}

func newDirSet() *dirSet {
	return &dirSet{ids: make(map[fileID]struct{})}
}

// add records info and reports whether it was not already present.
func (s *dirSet) add(info os.FileInfo) bool {
	if id, ok := identify(info); ok {
		if _, seen := s.ids[id]; seen {
			return false
		}
		s.ids[id] = struct{}{}
		return true
	}
	for _, seen := range s.infos {
		if os.SameFile(seen, info) {
			return false
		}
	}
	s.infos = append(s.infos, info)
	return true
}
