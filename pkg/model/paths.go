package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// NamespaceFiles holds configuration files
	NamespaceFiles = "files"

	// NamespaceDefaults holds default pointer records
	NamespaceDefaults = "defaults"

	headsPrefix     = "heads"
	revisionsPrefix = "revisions"
	contentPrefix   = "content"

	descriptorExt    = ".yaml"
	generationMarker = "@"
	headFile         = generationMarker + "head" + descriptorExt
	sequenceWidth    = 12
)

// ArchivePathComponents defines the unique path parts of an object in the repository
type ArchivePathComponents struct {
	Kind            string
	Namespace       string
	Path            string
	Generation      RevisionID
	Sequence        uint64
	RevisionID      RevisionID
	ArchiveFileName string
}

// GetArchivePathToHead yields the key of the head descriptor of a path
func GetArchivePathToHead(ns, pth string) string {
	return fmt.Sprint(GetArchivePathPrefixToHeads(ns), pth, "/", headFile)
}

// GetArchivePathPrefixToHeads yields the prefix of all head descriptors in a namespace
func GetArchivePathPrefixToHeads(ns string) string {
	return fmt.Sprint(headsPrefix, "/", ns, "/")
}

// GetArchivePathPrefixToRevisions yields the prefix of the revision descriptors in one generation of a path
func GetArchivePathPrefixToRevisions(ns, pth string, generation RevisionID) string {
	return fmt.Sprint(revisionsPrefix, "/", ns, "/", pth, "/", generationMarker, generation, "/")
}

// GetArchivePathToRevision yields the key of a revision descriptor.
//
// Descriptor keys sort in commit order within a generation.
func GetArchivePathToRevision(ns, pth string, generation RevisionID, sequence uint64, id RevisionID) string {
	return fmt.Sprintf("%s%0*d-%s%s", GetArchivePathPrefixToRevisions(ns, pth, generation), sequenceWidth, sequence, id, descriptorExt)
}

// GetArchivePathToContent yields the key holding the content of a revision.
//
// Content does not depend on the generation, so it may be written before the revision is committed.
func GetArchivePathToContent(ns, pth string, id RevisionID) string {
	return fmt.Sprint(contentPrefix, "/", ns, "/", pth, "/", generationMarker, id)
}

// GetArchivePathComponents yields all metadata components from a parsed archive path.
func GetArchivePathComponents(archivePath string) (ArchivePathComponents, error) {
	cs := strings.SplitN(archivePath, "/", 3)
	if len(cs) < 3 || cs[1] == "" || cs[2] == "" {
		return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("expect at least 3 parts: %s", archivePath)
	}
	kind, ns, rest := cs[0], cs[1], cs[2]

	switch kind {
	case headsPrefix: // as in: heads/{ns}/{path}/@head.yaml
		if !strings.HasSuffix(rest, "/"+headFile) || len(rest) == len(headFile)+1 {
			return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("head descriptor should end with %q: %s", headFile, archivePath)
		}
		return ArchivePathComponents{
			Kind:            kind,
			Namespace:       ns,
			Path:            strings.TrimSuffix(rest, "/"+headFile),
			ArchiveFileName: headFile,
		}, nil

	case revisionsPrefix: // as in: revisions/{ns}/{path}/@{generation}/{sequence}-{id}.yaml
		pth, generation, file, err := splitGeneration(rest)
		if err != nil {
			return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("%v: %s", err, archivePath)
		}
		name := strings.TrimSuffix(file, descriptorExt)
		parts := strings.SplitN(name, "-", 2)
		if name == file || len(parts) != 2 || len(parts[0]) != sequenceWidth {
			return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("revision descriptor should look like {sequence}-{id}%s: %s", descriptorExt, archivePath)
		}
		seq, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("invalid sequence: %s", archivePath)
		}
		return ArchivePathComponents{
			Kind:            kind,
			Namespace:       ns,
			Path:            pth,
			Generation:      generation,
			Sequence:        seq,
			RevisionID:      RevisionID(parts[1]),
			ArchiveFileName: file,
		}, nil

	case contentPrefix: // as in: content/{ns}/{path}/@{id}
		idx := strings.LastIndex(rest, "/"+generationMarker)
		if idx <= 0 || idx+2 == len(rest) {
			return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("content should look like {path}/%s{id}: %s", generationMarker, archivePath)
		}
		file := rest[idx+1:]
		return ArchivePathComponents{
			Kind:            kind,
			Namespace:       ns,
			Path:            rest[:idx],
			RevisionID:      RevisionID(strings.TrimPrefix(file, generationMarker)),
			ArchiveFileName: file,
		}, nil

	default:
		return ArchivePathComponents{}, ErrInvalidArchivePath.WrapMessage("unknown object kind %q: %s", kind, archivePath)
	}
}

func splitGeneration(rest string) (string, RevisionID, string, error) {
	idx := strings.LastIndex(rest, "/"+generationMarker)
	if idx <= 0 {
		return "", "", "", fmt.Errorf("missing generation")
	}
	tail := strings.SplitN(rest[idx+len(generationMarker)+1:], "/", 2)
	if len(tail) != 2 || tail[0] == "" || tail[1] == "" {
		return "", "", "", fmt.Errorf("missing generation or file name")
	}
	return rest[:idx], RevisionID(tail[0]), tail[1], nil
}
