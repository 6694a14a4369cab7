package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/project-synapse/synapse/pkg/loader/pdf"
)

// ErrUnsupportedType reports an upload with a file extension the system
// cannot decode. The HTTP layer maps it to a 400 response.
type ErrUnsupportedType struct {
	Extension string
}

func (e ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported file type: %q (supported: .pdf, .txt, .md)", e.Extension)
}

// ExtractText decodes an uploaded document into plain text. PDFs are parsed
// via the poppler pdftotext utility; plain text and markdown pass through.
func ExtractText(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		text, err := pdf.Parse(content)
		if err != nil {
			return "", fmt.Errorf("failed to parse PDF %q: %w", filename, err)
		}
		return text, nil
	case ".txt", ".md":
		return string(content), nil
	default:
		return "", ErrUnsupportedType{Extension: ext}
	}
}
