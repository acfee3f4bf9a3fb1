package communication

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Email struct {
	From        string
	To          []string
	Cc          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// RawEmailAPI is the part of the SES client a Mailer uses.
type RawEmailAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type Mailer struct {
	client RawEmailAPI
}

func NewMailer(client RawEmailAPI) *Mailer {
	return &Mailer{client: client}
}

func OpenMailer(ctx context.Context) (*Mailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewMailer(ses.NewFromConfig(cfg)), nil
}

// Send delivers email through SES and returns the message id.
func (m *Mailer) Send(ctx context.Context, email *Email) (string, error) {
	if email.From == "" || len(email.To) == 0 {
		return "", errors.New("email needs a sender and at least one recipient")
	}
	raw, err := BuildEmailBuffer(email)
	if err != nil {
		return "", err
	}

	res, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw.Bytes()},
	})
	if err != nil {
		return "", fmt.Errorf("send raw email: %w", err)
	}
	return aws.ToString(res.MessageId), nil
}

// BuildEmailBuffer renders a multipart/mixed message: a text/html alternative
// part followed by base64 attachments.
func BuildEmailBuffer(email *Email) (*bytes.Buffer, error) {
	var raw bytes.Buffer
	writer := multipart.NewWriter(&raw)

	var headers strings.Builder
	fmt.Fprintf(&headers, "From: %s\r\n", email.From)
	if len(email.To) > 0 {
		fmt.Fprintf(&headers, "To: %s\r\n", strings.Join(email.To, ", "))
	}
	if len(email.Cc) > 0 {
		fmt.Fprintf(&headers, "Cc: %s\r\n", strings.Join(email.Cc, ", "))
	}
	fmt.Fprintf(&headers, "Subject: %s\r\n", email.Subject)
	headers.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&headers, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", writer.Boundary())
	raw.WriteString(headers.String())

	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)
	altPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + altWriter.Boundary()},
	})
	if err != nil {
		return nil, err
	}

	bodies := []struct{ contentType, body string }{
		{"text/plain; charset=UTF-8", email.Text},
		{"text/html; charset=UTF-8", email.HTML},
	}
	for _, b := range bodies {
		if b.body == "" {
			continue
		}
		part, err := altWriter.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {b.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(part)
		if _, err := qp.Write([]byte(b.body)); err != nil {
			return nil, err
		}
		qp.Close()
	}
	altWriter.Close()
	if _, err := altPart.Write(alt.Bytes()); err != nil {
		return nil, err
	}

	for _, att := range email.Attachments {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", fmt.Sprintf("%s; name=\"%s\"", att.ContentType, att.Filename))
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", att.Filename))
		h.Set("Content-Transfer-Encoding", "base64")

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		// 76 chars per line
		for i := 0; i < len(encoded); i += 76 {
			end := min(i+76, len(encoded))
			part.Write([]byte(encoded[i:end] + "\r\n"))
		}
	}

	writer.Close()
	return &raw, nil
}
