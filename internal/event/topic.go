package event

import "strings"

const (
	// Wildcard matches any single segment, or every topic when used alone.
	Wildcard = "*"

	topicSeparator    = "."
	subtopicSeparator = "-"
)

// Matches reports whether a subscription pattern matches a published topic.
func Matches(pattern, topic string) bool {
	if pattern == "" || pattern == Wildcard {
		return true
	}

	ps := strings.Split(pattern, topicSeparator)
	ts := strings.Split(topic, topicSeparator)
	if len(ps) > len(ts) {
		return false
	}

	for i, p := range ps {
		if !segmentMatches(p, ts[i]) {
			return false
		}
	}
	return true
}

func segmentMatches(pattern, segment string) bool {
	return pattern == Wildcard ||
		pattern == segment ||
		strings.HasPrefix(segment, pattern+subtopicSeparator)
}

// validTopic reports whether topic can be published: non-empty, no empty
// segments and no wildcards.
func validTopic(topic string) bool {
	if topic == "" {
		return false
	}
	for _, seg := range strings.Split(topic, topicSeparator) {
		if seg == "" || seg == Wildcard {
			return false
		}
	}
	return true
}
