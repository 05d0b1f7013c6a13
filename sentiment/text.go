package sentiment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts raw bytes in the named encoding (WHATWG label such as
// "utf-8", "euc-kr", "gbk", "shift_jis") to UTF-8. A UTF-8 BOM is stripped.
func DecodeText(raw []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	r := transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(enc.NewDecoder()))
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

func ReadText(path, encodingName string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read sentiment data: %w", err)
	}
	return DecodeText(raw, encodingName)
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		n = "utf-8"
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}
	return enc, nil
}
