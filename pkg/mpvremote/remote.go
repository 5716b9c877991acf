package mpvremote

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Status fetches the current player snapshot.
func (c *Client) Status(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if _, err := c.get(ctx, "status", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Send posts a command line to the player.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	c.logDebugf("mpvremote: command %q", cmd)
	return c.postForm(ctx, "command", "command", string(cmd))
}

// Upload streams r to the server as a multipart "blob" field and returns
// the location the server stored it under.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("blob", filename)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	resp, err := c.call(ctx, "upload", http.MethodPost, c.endpoint("upload", nil), pr, mw.FormDataContentType())
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	var up Upload
	if err := decode("upload", resp.body, &up); err != nil {
		return nil, err
	}
	if up.URL == "" {
		return nil, malformed("upload", errors.New("empty url"))
	}
	return &up, nil
}

// Browse lists a server directory. An empty path lists the server's
// top level drives.
func (c *Client) Browse(ctx context.Context, path string) (*Listing, error) {
	var query url.Values
	if path != "" {
		query = url.Values{"path": {path}}
	}

	var listing Listing
	if _, err := c.get(ctx, "browse", query, &listing); err != nil {
		return nil, err
	}
	listing.Path = path
	return &listing, nil
}

// Thumbnail fetches the preview image the server renders for a video
// file. It returns the image bytes and their content type.
func (c *Client) Thumbnail(ctx context.Context, file string) ([]byte, string, error) {
	resp, err := c.get(ctx, "thumbnail", url.Values{"file": {file}}, nil)
	if err != nil {
		return nil, "", err
	}
	return resp.body, resp.header.Get("Content-Type"), nil
}
