package util

import (
	"strings"
)

// ExtractMentions extracts @username mentions from text content.
// Returns a slice of unique usernames (lowercase, without @ symbol).
func ExtractMentions(content string) []string {
	var mentions []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			username := strings.TrimPrefix(word, "@")
			username = strings.TrimRight(username, ".,!?;:")
			username = strings.ToLower(username)

			if !seen[username] && len(username) >= 3 && len(username) <= 30 {
				seen[username] = true
				mentions = append(mentions, username)
			}
		}
	}
	return mentions
}

// ExtractHashtags extracts #tag tokens from text content.
// Returns unique lowercase tags without the # symbol, in order of appearance.
func ExtractHashtags(content string) []string {
	var tags []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tag := strings.TrimPrefix(word, "#")
			tag = strings.TrimRight(tag, ".,!?;:")
			tag = strings.ToLower(tag)

			if tag == "" || seen[tag] {
				continue
			}
			if len(tag) > 50 {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
