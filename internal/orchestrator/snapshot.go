package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// seenSnapshotFile is the fixed name of the --resume checkpoint written
// under the run's data directory. There is deliberately no versioning or
// locking here: stdlib encoding/json and os are enough for a single small
// file read once at startup and written once at shutdown, and no library
// in the crawler's dependency stack targets this narrow a concern.
const seenSnapshotFile = "seen_urls.json"

func seenSnapshotPath(dataDir string) string {
	return filepath.Join(dataDir, seenSnapshotFile)
}

// loadSeenSnapshot reads the normalized URLs a prior run admitted. A
// missing or unreadable file is treated as "nothing seen yet" rather than
// an error, since the first run of a --resume-enabled crawl has no
// checkpoint to load.
func loadSeenSnapshot(dataDir string) []string {
	raw, err := os.ReadFile(seenSnapshotPath(dataDir))
	if err != nil {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil
	}
	return urls
}

// saveSeenSnapshot persists the frontier's seen set so a subsequent
// --resume run does not re-enqueue already-crawled URLs.
func saveSeenSnapshot(dataDir string, urls []string) error {
	payload, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	return os.WriteFile(seenSnapshotPath(dataDir), payload, 0o644)
}
