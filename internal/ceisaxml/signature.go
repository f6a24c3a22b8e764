package ceisaxml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// HashAlgorithm identifies the digest algorithm named in signature blocks.
const HashAlgorithm = "SHA-256"

const (
	signatureOpen  = "<SIGNATURE>"
	signatureClose = "</SIGNATURE>"
)

// Sign embeds a SIGNATURE block carrying the given digest immediately
// before the root closing tag. When the root closing tag cannot be located
// the block is appended at the end instead; degraded reports that fallback
// so callers can flag the message.
func Sign(xmlContent, digest string, now time.Time) (signed string, degraded bool) {
	block := renderSignature(digest, now)

	idx := rootCloseIndex(xmlContent)
	if idx < 0 {
		return xmlContent + block, true
	}
	return xmlContent[:idx] + block + xmlContent[idx:], false
}

// StripSignature removes the embedded SIGNATURE block, returning the
// content exactly as it was before signing.
func StripSignature(signed string) string {
	start := strings.Index(signed, signatureOpen)
	if start < 0 {
		return signed
	}
	end := strings.Index(signed[start:], signatureClose)
	if end < 0 {
		return signed
	}
	return signed[:start] + signed[start+end+len(signatureClose):]
}

// ExtractDigest returns the digest embedded in the SIGNATURE block, or
// ok=false when no signature is present.
func ExtractDigest(signed string) (digest string, ok bool) {
	start := strings.Index(signed, signatureOpen)
	if start < 0 {
		return "", false
	}
	end := strings.Index(signed[start:], signatureClose)
	if end < 0 {
		return "", false
	}
	var block signatureBlock
	if err := xml.Unmarshal([]byte(signed[start:start+end+len(signatureClose)]), &block); err != nil {
		return "", false
	}
	if block.HashValue == "" {
		return "", false
	}
	return block.HashValue, true
}

// Verify re-hashes the content with the signature stripped and compares it
// to the embedded digest. hasDigest=false means integrity is unverifiable,
// which callers surface without treating the message as invalid.
func Verify(signed string) (valid bool, hasDigest bool) {
	digest, ok := ExtractDigest(signed)
	if !ok {
		return false, false
	}
	return Hash(StripSignature(signed)) == digest, true
}

func renderSignature(digest string, now time.Time) string {
	return fmt.Sprintf("<SIGNATURE><HASH_ALGORITHM>%s</HASH_ALGORITHM><HASH_VALUE>%s</HASH_VALUE><TIMESTAMP>%s</TIMESTAMP></SIGNATURE>",
		HashAlgorithm, digest, now.UTC().Format(time.RFC3339))
}

// rootCloseIndex locates the start of the root closing tag. The root name
// is taken from the first start element so nested repeats of the same tag
// name cannot confuse the search.
func rootCloseIndex(xmlContent string) int {
	dec := xml.NewDecoder(strings.NewReader(xmlContent))
	for {
		tok, err := dec.Token()
		if err != nil {
			return -1
		}
		if start, isStart := tok.(xml.StartElement); isStart {
			return strings.LastIndex(xmlContent, "</"+start.Name.Local+">")
		}
	}
}
