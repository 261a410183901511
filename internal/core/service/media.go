package service

import "github.com/mandimarket/marketplace-api/internal/core/domain"

// planMedia computes the retained URI set for one category and validates the
// quota before any upload is attempted. Deletes of URIs not present are
// no-ops, not errors.
func planMedia(cat domain.MediaCategory, current, deletes []string, newCount int) ([]string, error) {
	retained := subtractURIs(current, deletes)
	if newCount > cat.Limit()-len(retained) {
		return nil, &domain.QuotaExceededError{
			Category:  cat,
			Limit:     cat.Limit(),
			Attempted: len(retained) + newCount,
		}
	}
	return retained, nil
}

// subtractURIs returns current minus deletes, preserving insertion order.
func subtractURIs(current, deletes []string) []string {
	drop := make(map[string]struct{}, len(deletes))
	for _, uri := range deletes {
		drop[uri] = struct{}{}
	}
	retained := make([]string, 0, len(current))
	for _, uri := range current {
		if _, ok := drop[uri]; !ok {
			retained = append(retained, uri)
		}
	}
	return retained
}

// appendUnique appends uris to base, skipping any already present.
func appendUnique(base, uris []string) []string {
	seen := make(map[string]struct{}, len(base)+len(uris))
	out := make([]string, 0, len(base)+len(uris))
	for _, uri := range base {
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}
	for _, uri := range uris {
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}
	return out
}
