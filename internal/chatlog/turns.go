package chatlog

// CollapseTurns merges runs of consecutive entries from the same subject
// into one entry, joining their messages with a space. The input is left
// untouched.
func CollapseTurns(entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyState
	}

	turns := []Entry{entries[0]}
	for _, e := range entries[1:] {
		last := &turns[len(turns)-1]
		if e.Subject == last.Subject {
			last.Message += " " + e.Message
			continue
		}
		turns = append(turns, e)
	}

	return turns, nil
}
