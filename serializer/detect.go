package serializer

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detect guesses the format of a response body from its first significant
// character: '<' means XML, '{' or '[' means JSON. A leading byte order mark
// and whitespace are skipped. Anything else is None.
func Detect(body []byte) DataFormat {
	body = bytes.TrimPrefix(body, utf8BOM)
	body = bytes.TrimLeft(body, " \t\r\n")
	if len(body) == 0 {
		return None
	}
	switch body[0] {
	case '<':
		return XML
	case '{', '[':
		return JSON
	}
	return None
}
