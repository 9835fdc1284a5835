package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// MultipartPost uploads a single file together with plain form fields.
// Fields are written in key order.
func (c *Client) MultipartPost(
	ctx context.Context,
	url string,
	fields map[string]string,
	name string,
	fileName string,
	fileBody []byte,
	mimeType string,
	header http.Header,
) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(fileName)))
	partHeader.Set("Content-Type", mimeType)

	part, err := w.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(fileBody); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	h := header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Content-Type", w.FormDataContentType())

	return c.Do(ctx, &Request{Method: http.MethodPost, URL: url, Header: h, Body: buf.Bytes()})
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
