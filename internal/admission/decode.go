package admission

import (
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffLen is the header size filetype needs to recognize every matcher.
const sniffLen = 262

type decoded struct {
	text   string
	size   int64
	binary bool
}

// decodeFile reads and decodes a candidate. Read failures, recognized binary
// formats and text containing U+FFFD or NUL are all reported as binary.
func decodeFile(r RawFile) decoded {
	raw, err := r.bytes()
	if err != nil {
		return decoded{binary: true}
	}
	size := int64(len(raw))
	if len(raw) == 0 {
		return decoded{size: 0}
	}

	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return decoded{size: size, binary: true}
	}

	// UTF-8 by default; a BOM switches to the matching UTF-16 variant.
	// Invalid sequences decode to U+FFFD.
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return decoded{size: size, binary: true}
	}
	text := string(out)
	if strings.ContainsRune(text, utf8.RuneError) || strings.IndexByte(text, 0) >= 0 {
		return decoded{size: size, binary: true}
	}
	return decoded{text: text, size: size}
}
