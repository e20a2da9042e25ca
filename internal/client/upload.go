package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

const uploadTimeoutMessage = "File upload timed out. Please try again."

// UploadResult is the local upload endpoint's answer.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadFile sends one proof document to the local upload endpoint as a
// multipart body. An empty contentType is sniffed from the file
// extension; the endpoint rejects parts outside its allow-list, so the
// part must carry the real type. Uploads get a longer timeout and no
// retry loop; the caller owns re-attempting a failed upload.
func (c *Client) UploadFile(ctx context.Context, name, contentType string, r io.Reader) Envelope[UploadResult] {
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return Envelope[UploadResult]{Message: fmt.Sprintf("build upload: %v", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return Envelope[UploadResult]{Message: fmt.Sprintf("read file: %v", err)}
	}
	if err := mw.Close(); err != nil {
		return Envelope[UploadResult]{Message: fmt.Sprintf("build upload: %v", err)}
	}

	rctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodPost, c.uploadBase+"/api/upload", &buf)
	if err != nil {
		return Envelope[UploadResult]{Message: fmt.Sprintf("build upload: %v", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Envelope[UploadResult]{Message: uploadTimeoutMessage}
		}
		return Envelope[UploadResult]{Message: "File upload failed. Please check your connection and try again."}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope[UploadResult]{Message: "File upload failed. Please check your connection and try again.", Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}
		_ = json.Unmarshal(body, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("Upload failed (%d)", resp.StatusCode)
		}
		return Envelope[UploadResult]{Message: msg, Errors: apiErr.Errors, Status: resp.StatusCode}
	}

	// The endpoint wraps its payload in {success, data:{url, filename}}.
	var wrapped struct {
		Data UploadResult `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return Envelope[UploadResult]{Message: fmt.Sprintf("decode upload response: %v", err), Status: resp.StatusCode}
	}
	return Envelope[UploadResult]{Success: true, Data: wrapped.Data, Status: resp.StatusCode}
}
