// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mention extracts bot-id mentions from trigger message text,
// for callers that need to compute RegisterParams.MentionedUserIDs
// from a raw message body rather than a structured mentions field.
package mention

import (
	"regexp"
	"slices"
)

// pattern matches @localpart:server bot ids embedded in free text.
// server is a hostname that starts and ends with alphanumeric, with
// dots and hyphens allowed in the middle, plus an optional :port
// suffix. Requiring the trailing character to be alphanumeric keeps
// sentence punctuation ("ask @ops:example.org.") from being absorbed
// into the match.
//
// The pattern requires whitespace or start-of-string before the @ so
// an email address mid-word is never mistaken for a mention.
var pattern = regexp.MustCompile(
	`(?:^|[\s])(@[a-z0-9._=/-]+:[a-z0-9](?:[a-z0-9.-]*[a-z0-9])?(?::[0-9]+)?)(?:$|[\s,.\!\?\)\]])`,
)

// Extract scans body for bot-id mentions and returns them in the
// order they first appear, deduplicated.
func Extract(body string) []string {
	// Each search resumes right after the previous id rather than after
	// its trailing delimiter, so that delimiter can also serve as the
	// leading whitespace of a mention that immediately follows.
	var ids []string
	for pos := 0; pos < len(body); {
		loc := pattern.FindStringSubmatchIndex(body[pos:])
		if loc == nil {
			break
		}
		id := body[pos+loc[2] : pos+loc[3]]
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
		pos += loc[3]
	}
	return ids
}
