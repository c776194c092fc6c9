package device

import "os"

// FileSource reads the full contents of one file on every call, so the
// encoded code always reflects the file's current state.
type FileSource struct {
	Path string
}

func (f FileSource) ReadAll() (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
