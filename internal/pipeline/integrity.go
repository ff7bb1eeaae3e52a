package pipeline

import "time"

// MissingArtifacts lists the instants in Instants(start, end, interval) whose
// artifacts are not all present in store.
func MissingArtifacts(store ArtifactStore, fetcher Fetcher, start, end time.Time, interval time.Duration) []time.Time {
	var missing []time.Time
	for _, t := range Instants(start, end, interval) {
		if !store.Exists(fetcher.ArtifactPaths(t)...) {
			missing = append(missing, t)
		}
	}
	return missing
}
