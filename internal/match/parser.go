package match

import (
	"regexp"
	"strings"
)

var (
	roomIDRe   = regexp.MustCompile(`^\d{4,10}$`)
	roomPassRe = regexp.MustCompile(`^\d{1,4}$`)
)

// ParseRoomCredentials extracts a room id and password from a mediator
// message. The first two whitespace-separated tokens must be a 4-10 digit
// id and a 1-4 digit password; trailing chatter is ignored.
func ParseRoomCredentials(content string) (id, pass string, ok bool) {
	tokens := strings.Fields(content)
	if len(tokens) < 2 {
		return "", "", false
	}
	if !roomIDRe.MatchString(tokens[0]) || !roomPassRe.MatchString(tokens[1]) {
		return "", "", false
	}
	return tokens[0], tokens[1], true
}
