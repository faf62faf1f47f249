package entry

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText decodes a name or comment. Without the UTF-8 flag the bytes are
// IBM code page 437, unless they already form valid UTF-8.
func decodeText(raw []byte, utf8Flag bool) string {
	if utf8Flag || utf8.Valid(raw) {
		return string(raw)
	}
	s, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

func isDirName(name []byte) bool {
	if len(name) == 0 {
		return false
	}
	last := name[len(name)-1]
	return last == '/' || last == '\\'
}
