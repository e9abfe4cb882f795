package research

// MergeImages returns existing followed by every entry of incoming not already
// present, compared by value. Inputs are not modified, so merging the same
// list twice yields the same result as merging it once.
func MergeImages(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, img := range existing {
		out = append(out, img)
		seen[img] = struct{}{}
	}
	for _, img := range incoming {
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	return out
}

// DedupeSources keeps the first source seen for each URI, in order.
func DedupeSources(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	return out
}
