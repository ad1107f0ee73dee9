package ingest

import "sort"

// overlapThreshold is the fraction of a file's raw messages that must appear
// in a kept file for it to count as a re-export of the same chat.
const overlapThreshold = 0.8

// fingerprint identifies an export by its raw messages. Raw messages carry
// their timestamp and sender, so two exports of the same chat share them.
type fingerprint struct {
	Path     string
	Messages map[string]struct{}
}

func buildFingerprint(path string, raw []string) fingerprint {
	fp := fingerprint{Path: path, Messages: make(map[string]struct{}, len(raw))}
	for _, r := range raw {
		fp.Messages[r] = struct{}{}
	}
	return fp
}

// findDuplicates returns the paths of exports that are mostly contained in
// another export. The largest export of a chat is kept; among exports of
// equal size the one with the smallest path wins.
func findDuplicates(fps []fingerprint) map[string]bool {
	ordered := make([]fingerprint, len(fps))
	copy(ordered, fps)
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].Messages) != len(ordered[j].Messages) {
			return len(ordered[i].Messages) > len(ordered[j].Messages)
		}
		return ordered[i].Path < ordered[j].Path
	})

	duplicates := make(map[string]bool)
	var kept []fingerprint
	for _, fp := range ordered {
		dup := false
		for _, k := range kept {
			if isOverlapping(k, fp) {
				dup = true
				break
			}
		}
		if dup {
			duplicates[fp.Path] = true
			continue
		}
		kept = append(kept, fp)
	}
	return duplicates
}

// isOverlapping checks if at least overlapThreshold of b's messages appear in a.
func isOverlapping(a, b fingerprint) bool {
	if len(b.Messages) == 0 {
		return false
	}

	matches := 0
	for m := range b.Messages {
		if _, ok := a.Messages[m]; ok {
			matches++
		}
	}

	return float64(matches)/float64(len(b.Messages)) >= overlapThreshold
}
