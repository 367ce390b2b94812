package notice

import (
	"fmt"
	"io"
	"sync"

	"github.com/valyala/fasttemplate"
)

// DefaultFormat mirrors the classic "Computing sha1 for
// path" output.
const DefaultFormat = "Computing {alg} for {path}"

// Formatter writes one line per notice. It is safe for
// concurrent use; lines never interleave.
type Formatter struct {
	format string

	mu sync.Mutex
	w  io.Writer
}

// New validates format and returns a Formatter writing
// to w. Supported placeholders are {alg}, {path} and
// {sidecar}; unknown ones are kept verbatim.
func New(w io.Writer, format string) (*Formatter, error) {
	const errCtx = "creating notice formatter"

	if format == "" {
		format = DefaultFormat
	}

	if _, err := fasttemplate.NewTemplate(
		format, "{", "}",
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Formatter{format: format, w: w}, nil
}

// Render returns the notice line without a trailing
// newline.
func (fo *Formatter) Render(
	alg string,
	path string,
	sidecar string,
) string {
	return fasttemplate.ExecuteStringStd(
		fo.format, "{", "}",
		map[string]interface{}{
			"alg":     alg,
			"path":    path,
			"sidecar": sidecar,
		},
	)
}

// Notify renders a notice and writes it as one line.
func (fo *Formatter) Notify(
	alg string,
	path string,
	sidecar string,
) error {
	const errCtx = "writing notice"

	line := fo.Render(alg, path, sidecar) + "\n"

	fo.mu.Lock()
	defer fo.mu.Unlock()

	if _, err := io.WriteString(fo.w, line); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
