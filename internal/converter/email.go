package converter

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/mail"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jhillyerd/enmime"

	"pdfsuite/internal/models"
)

// emailAttachment is listed at the end of the rendered message
type emailAttachment struct {
	Filename string
	Size     int64
	Threats  []string
}

// EmailToHTML parses an RFC 822 message and composes a printable HTML document.
// scan may be nil; when set, each attachment is checked and flagged on a hit.
func EmailToHTML(r io.Reader, scan func([]byte) ([]string, error)) (string, error) {
	envelope, err := enmime.ReadEnvelope(r)
	if err != nil {
		return "", models.InvalidInput("failed to parse eml content", err)
	}

	attachments := make([]emailAttachment, 0, len(envelope.Attachments))
	for _, part := range envelope.Attachments {
		att := emailAttachment{
			Filename: part.FileName,
			Size:     int64(len(part.Content)),
		}
		if att.Filename == "" {
			att.Filename = "unnamed attachment"
		}
		if scan != nil {
			threats, err := scan(part.Content)
			if err != nil {
				return "", models.IOFailure(fmt.Sprintf("failed to scan attachment %s", att.Filename), err)
			}
			att.Threats = threats
		}
		attachments = append(attachments, att)
	}

	return buildEmailHTML(envelope, attachments), nil
}

// buildEmailHTML creates a well-formed HTML document from email parts
func buildEmailHTML(envelope *enmime.Envelope, attachments []emailAttachment) string {
	var buffer bytes.Buffer

	buffer.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buffer.WriteString("<meta charset=\"UTF-8\">\n")
	buffer.WriteString("<title>" + html.EscapeString(envelope.GetHeader("Subject")) + "</title>\n")

	buffer.WriteString("<style>\n")
	buffer.WriteString("body { font-family: Arial, sans-serif; margin: 20px; }\n")
	buffer.WriteString(".email-header { margin-bottom: 20px; border-bottom: 1px solid #ccc; padding-bottom: 10px; }\n")
	buffer.WriteString(".header-row { margin: 5px 0; }\n")
	buffer.WriteString(".header-label { font-weight: bold; width: 70px; display: inline-block; }\n")
	buffer.WriteString(".attachments { margin-top: 30px; border-top: 1px solid #eee; padding-top: 10px; }\n")
	buffer.WriteString(".security-alert { color: red; font-weight: bold; }\n")
	buffer.WriteString("</style>\n")
	buffer.WriteString("</head>\n<body>\n")

	buffer.WriteString("<div class=\"email-header\">\n")
	addHeader(&buffer, "From", envelope.GetHeader("From"))
	addHeader(&buffer, "To", envelope.GetHeader("To"))
	if cc := envelope.GetHeader("Cc"); cc != "" {
		addHeader(&buffer, "Cc", cc)
	}
	addHeader(&buffer, "Subject", envelope.GetHeader("Subject"))
	addHeader(&buffer, "Date", formatDate(envelope.GetHeader("Date")))
	buffer.WriteString("</div>\n")

	buffer.WriteString("<div class=\"email-body\">\n")
	switch {
	case envelope.HTML != "":
		buffer.WriteString(envelope.HTML)
	case envelope.Text != "":
		for _, line := range strings.Split(envelope.Text, "\n") {
			buffer.WriteString(html.EscapeString(strings.TrimRight(line, "\r")) + "<br>\n")
		}
	}
	buffer.WriteString("</div>\n")

	if len(attachments) > 0 {
		buffer.WriteString("<div class=\"attachments\">\n")
		fmt.Fprintf(&buffer, "<h3>Attachments (%d)</h3>\n<ul>\n", len(attachments))
		for _, att := range attachments {
			buffer.WriteString("<li>")
			buffer.WriteString(html.EscapeString(att.Filename) + " (" + humanize.Bytes(uint64(att.Size)) + ")")
			if len(att.Threats) > 0 {
				buffer.WriteString(" <span class=\"security-alert\">SECURITY THREAT DETECTED: " +
					html.EscapeString(strings.Join(att.Threats, ", ")) + "</span>")
			}
			buffer.WriteString("</li>\n")
		}
		buffer.WriteString("</ul>\n</div>\n")
	}

	buffer.WriteString("</body>\n</html>")
	return buffer.String()
}

func addHeader(buffer *bytes.Buffer, label, value string) {
	fmt.Fprintf(buffer, "<div class=\"header-row\"><span class=\"header-label\">%s:</span> %s</div>\n",
		label, html.EscapeString(value))
}

// formatDate normalizes an email date header, returning it unchanged if it does not parse
func formatDate(date string) string {
	if t, err := mail.ParseDate(date); err == nil {
		return t.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	}
	return date
}
