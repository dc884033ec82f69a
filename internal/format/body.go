// Package format provides email body decoding and address parsing utilities.
package format

import (
	"encoding/base64"
	"net/mail"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// DecodeBody extracts a plain-text body from a Gmail message payload.
// text/plain parts are preferred; when only HTML is present the markup is
// flattened to text.
func DecodeBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	textBody, htmlBody := extractBodies(payload)
	if textBody != "" {
		return strings.TrimSpace(textBody)
	}
	if htmlBody == "" {
		return ""
	}

	return strings.TrimSpace(FlattenHTML([]byte(htmlBody)))
}

func extractBodies(payload *gmail.MessagePart) (textBody, htmlBody string) {
	textBody, htmlBody = bodyFromPart(payload)

	for _, part := range payload.Parts {
		partText, partHTML := bodyFromPart(part)

		if textBody == "" {
			textBody = partText
		}
		if htmlBody == "" {
			htmlBody = partHTML
		}

		if len(part.Parts) > 0 {
			nestedText, nestedHTML := extractBodies(part)
			if textBody == "" {
				textBody = nestedText
			}
			if htmlBody == "" {
				htmlBody = nestedHTML
			}
		}
	}

	return textBody, htmlBody
}

func bodyFromPart(part *gmail.MessagePart) (textBody, htmlBody string) {
	if part.Body == nil || part.Body.Data == "" {
		return "", ""
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBase64URL(part.Body.Data), ""
	case "text/html":
		return "", decodeBase64URL(part.Body.Data)
	default:
		return "", ""
	}
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return data
		}
	}
	return string(decoded)
}

// Header returns the value of the named header, matched case-insensitively.
func Header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// ParseAddress splits an RFC 5322 address like `Jane Doe <jane@example.com>`
// into display name and address. The display name falls back to the address
// when missing.
func ParseAddress(raw string) (name, email string) {
	addr, err := mail.ParseAddress(raw)
	if err == nil {
		name = addr.Name
		email = addr.Address
	} else {
		name, email = parseAddressLoose(raw)
	}

	if name == "" {
		name = email
	}

	return name, email
}

func parseAddressLoose(raw string) (name, email string) {
	if idx := strings.Index(raw, "<"); idx != -1 {
		name = strings.TrimSpace(raw[:idx])
		if endIdx := strings.Index(raw[idx:], ">"); endIdx != -1 {
			email = strings.TrimSpace(raw[idx+1 : idx+endIdx])
		}
	} else {
		email = strings.TrimSpace(raw)
	}

	name = strings.Trim(name, "\"")

	return name, email
}
