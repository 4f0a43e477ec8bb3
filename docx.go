package themepdf

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxDocxXMLSize caps the uncompressed size of word/document.xml.
const maxDocxXMLSize = 32 << 20

const docxBodyPart = "word/document.xml"

// docxText extracts the raw text of a .docx archive. Paragraphs are joined
// with blank lines so they survive Document.Paragraphs. Tabs and line breaks
// inside a paragraph are kept. Formatting and images are dropped.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%s not found in archive", docxBodyPart)
	}
	if part.UncompressedSize64 > maxDocxXMLSize {
		return "", fmt.Errorf("%s is larger than %d bytes", docxBodyPart, maxDocxXMLSize)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	return walkDocxBody(io.LimitReader(rc, maxDocxXMLSize))
}

// walkDocxBody collects w:t text runs paragraph by paragraph.
func walkDocxBody(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		inPara     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inPara = false
				if text := strings.TrimRight(current.String(), " \t\n"); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}
