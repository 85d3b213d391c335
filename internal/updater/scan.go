package updater

// minArtifactSize rejects truncated downloads during recovery. A real
// release zip is never this small.
const minArtifactSize = 1024

// artifactScanner locates previously downloaded artifacts on disk. It backs
// the cross-process recovery path and is an interface so coordinator tests
// can run against a simulated directory.
type artifactScanner interface {
	// LatestArtifact returns the most recently created plausible artifact.
	LatestArtifact() (artifactInfo, bool)
}

// dirScanner scans the updates directory for artifacts.
type dirScanner struct {
	dir string
}

func (s dirScanner) LatestArtifact() (artifactInfo, bool) {
	artifacts, err := listArtifacts(s.dir)
	if err != nil {
		return artifactInfo{}, false
	}
	for _, a := range artifacts {
		if a.Size > minArtifactSize {
			return a, true
		}
	}
	return artifactInfo{}, false
}
