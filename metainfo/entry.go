package metainfo

import "github.com/pkg/errors"

// FileEntry is one file within a multi-file download, narrowed from
// original_source/MetalinkEntry.cc's resource list to the one property
// relevant to block selection: where this file sits in the overall byte
// stream. Resource preference/reordering and unsupported-protocol
// filtering from the original (reorderResourcesByPreference,
// dropUnsupportedResource) concern resource *fetching*, not block
// selection, and are out of scope here per spec §1.
type FileEntry struct {
	Path   string
	Offset int64
	Length int64
}

// Entry is the set of files that make up one download, in the order they
// appear in the concatenated byte stream.
type Entry struct {
	Files []FileEntry
}

// FilterRangeFor returns the (offset, length) byte range of the named file,
// suitable for passing directly to bitfield.Map.AddFilter — e.g. for a
// metalink-style selective download of a subset of files.
func (e Entry) FilterRangeFor(path string) (offset, length int64, err error) {
	for _, f := range e.Files {
		if f.Path == path {
			return f.Offset, f.Length, nil
		}
	}
	return 0, 0, errors.Errorf("metainfo: no such file %q in entry", path)
}

// TotalLength sums every file's length, useful for sanity-checking against
// Info.TotalLength when building a multi-file download's geometry.
func (e Entry) TotalLength() int64 {
	var total int64
	for _, f := range e.Files {
		total += f.Length
	}
	return total
}
