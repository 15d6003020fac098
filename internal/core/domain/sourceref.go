package domain

import (
	"fmt"
	"regexp"
)

// Uploads land under images/{owner}/{file} regardless of content type; the
// record's FileURL may carry a full URL in front of that suffix.
var storageKeyPattern = regexp.MustCompile(`(?:^|/)(images/[^/?#]+/[^/?#]+)$`)

// StorageKeyFromRef resolves the object-storage key out of a source
// reference. Returns ErrMalformedReference when the reference does not end
// in the expected images/{owner}/{file} shape.
func StorageKeyFromRef(ref string) (string, error) {
	match := storageKeyPattern.FindStringSubmatch(ref)
	if match == nil {
		return "", WrapError(ErrMalformedReference, "resolve storage key", fmt.Errorf("unexpected reference %q", ref))
	}
	return match[1], nil
}
