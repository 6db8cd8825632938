package rules

import (
	"fmt"
	"slices"
	"strings"
)

// Tag is permitted wrapper element name.
type Tag string

const (
	TagSpan   Tag = "span"
	TagDiv    Tag = "div"
	TagSup    Tag = "sup"
	TagSub    Tag = "sub"
	TagIns    Tag = "ins"
	TagDel    Tag = "del"
	TagMark   Tag = "mark"
	TagSmall  Tag = "small"
	TagStrong Tag = "strong"
	TagEm     Tag = "em"
	TagB      Tag = "b"
	TagI      Tag = "i"
	TagU      Tag = "u"
	TagS      Tag = "s"
	TagQ      Tag = "q"
	TagAbbr   Tag = "abbr"
	TagCite   Tag = "cite"
	TagKbd    Tag = "kbd"
	TagVar    Tag = "var"
)

var permittedTags = []Tag{
	TagSpan, TagDiv, TagSup, TagSub, TagIns, TagDel, TagMark, TagSmall, TagStrong,
	TagEm, TagB, TagI, TagU, TagS, TagQ, TagAbbr, TagCite, TagKbd, TagVar,
}

// never constructed, whatever allow list says
var deniedTags = []string{"script", "object", "embed", "link"}

// TagNames returns names of all permitted tags.
func TagNames() []string {
	names := make([]string, 0, len(permittedTags))
	for _, t := range permittedTags {
		names = append(names, string(t))
	}
	return names
}

// IsDenied reports whether tag name is on the deny list.
func IsDenied(name string) bool {
	return slices.Contains(deniedTags, strings.ToLower(strings.TrimSpace(name)))
}

// ParseTag converts tag name to Tag checking it against deny and allow lists.
func ParseTag(name string) (Tag, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if IsDenied(n) {
		return "", fmt.Errorf("%w: unsanitized HTML tag %q", ErrRejected, name)
	}
	if t := Tag(n); slices.Contains(permittedTags, t) {
		return t, nil
	}
	return "", fmt.Errorf("%w: tag %q is not one of [%s]", ErrRejected, name, strings.Join(TagNames(), ", "))
}

func (t Tag) String() string {
	return string(t)
}
