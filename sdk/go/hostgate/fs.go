package hostgate

import (
	"context"
	"unicode/utf8"
)

// DirEntry is one entry returned by ReadDir.
type DirEntry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
}

// FileInfo is the result of Stat. Times are milliseconds since the epoch.
type FileInfo struct {
	IsFile         bool    `json:"isFile"`
	IsDirectory    bool    `json:"isDirectory"`
	IsSymbolicLink bool    `json:"isSymbolicLink"`
	Size           int64   `json:"size"`
	Mode           uint32  `json:"mode"`
	CtimeMs        float64 `json:"ctimeMs"`
	AtimeMs        float64 `json:"atimeMs"`
	MtimeMs        float64 `json:"mtimeMs"`
	Nlink          uint64  `json:"nlink"`
	Dev            uint64  `json:"dev"`
}

// ReadDir lists a directory on the host.
func (c *Client) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	var entries []DirEntry
	err := c.CallInto(ctx, &entries, "fsReaddir", path)
	return entries, err
}

// Stat describes path, following symlinks.
func (c *Client) Stat(ctx context.Context, path string) (FileInfo, error) {
	var info FileInfo
	err := c.CallInto(ctx, &info, "fsStat", path)
	return info, err
}

// ReadFile returns the contents of path.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := c.CallInto(ctx, &data, "fsReadFile", path)
	return data, err
}

// WriteFile replaces the contents of path. Valid UTF-8 travels as a string,
// anything else as an array of bytes.
func (c *Client) WriteFile(ctx context.Context, path string, data []byte) error {
	var arg any = string(data)
	if !utf8.Valid(data) {
		nums := make([]int, len(data))
		for i, b := range data {
			nums[i] = int(b)
		}
		arg = nums
	}
	_, err := c.Call(ctx, "fsWriteFile", path, arg)
	return err
}

// MkdirAll creates path and any missing parents.
func (c *Client) MkdirAll(ctx context.Context, path string) error {
	_, err := c.Call(ctx, "fsMkdir", path, map[string]any{"recursive": true})
	return err
}

// RemoveAll deletes path and everything under it. A missing path is not
// an error.
func (c *Client) RemoveAll(ctx context.Context, path string) error {
	_, err := c.Call(ctx, "fsRmdir", path, map[string]any{"recursive": true, "force": true})
	return err
}

// Rename moves from to to.
func (c *Client) Rename(ctx context.Context, from, to string) error {
	_, err := c.Call(ctx, "fsRename", from, to)
	return err
}
