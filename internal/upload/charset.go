package upload

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts raw upload bytes to a UTF-8 string. A UTF-16 BOM
// always wins; otherwise charset selects the encoding, defaulting to UTF-8.
// A UTF-8 BOM is left in place for the CSV tokenizer to strip.
func DecodeText(data []byte, charset string) (string, error) {
	if hasUTF16BOM(data) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", eris.Wrap(err, "upload: decode utf-16")
		}
		return string(out), nil
	}

	if charset == "" {
		return string(data), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", eris.Wrapf(err, "upload: unsupported charset %q", charset)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", eris.Wrapf(err, "upload: decode %s", charset)
	}
	return string(out), nil
}

func hasUTF16BOM(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return (data[0] == 0xff && data[1] == 0xfe) || (data[0] == 0xfe && data[1] == 0xff)
}
