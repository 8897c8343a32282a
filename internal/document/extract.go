// Package document handles document ingestion: text extraction by MIME type,
// type-aware chunking, embedding, and in-memory semantic search.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"

	"github.com/mkoster/querylens/internal/errors"
)

// TextExtractor converts raw file bytes into plain text. One implementation
// exists per supported format; selection is by declared MIME type.
type TextExtractor interface {
	Extract(content []byte) (string, error)
}

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
	mimeCSV  = "text/csv"
)

var extractors = map[string]TextExtractor{
	mimePDF:  pdfExtractor{},
	mimeDOCX: docxExtractor{},
	mimeText: plainTextExtractor{},
	mimeCSV:  csvExtractor{},
}

// ExtractorFor returns the extractor registered for the MIME type. Unknown
// types fall back to plain text.
// ContentTypeForFile guesses a MIME type from the filename extension
func ContentTypeForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".csv":
		return mimeCSV
	default:
		return mimeText
	}
}

func ExtractorFor(contentType string) TextExtractor {
	// Strip parameters like "; charset=utf-8"
	mime := strings.TrimSpace(strings.Split(contentType, ";")[0])

	if ex, ok := extractors[mime]; ok {
		return ex
	}

	return plainTextExtractor{}
}

type pdfExtractor struct{}

func (pdfExtractor) Extract(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeDocument, "failed to open PDF")
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeDocument, "failed to read PDF text")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", errors.Wrap(err, errors.ErrTypeDocument, "failed to read PDF text")
	}

	return buf.String(), nil
}

// docxExtractor unzips the DOCX container and strips the tags from
// word/document.xml with a streaming decoder.
type docxExtractor struct{}

func (docxExtractor) Extract(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeDocument, "failed to open DOCX archive")
	}

	var documentXML *zip.File

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}

	if documentXML == nil {
		return "", errors.New(errors.ErrTypeDocument, "invalid DOCX: missing word/document.xml")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeDocument, "failed to read DOCX content")
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return "", errors.Wrap(err, errors.ErrTypeDocument, "malformed DOCX XML")
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				text.WriteString("\n")
			case "tab":
				text.WriteString("\t")
			}
		case xml.CharData:
			text.Write(t)
		}
	}

	return text.String(), nil
}

type plainTextExtractor struct{}

// Extract decodes as UTF-8, falling back to Latin-1 when the bytes are not
// valid UTF-8
func (plainTextExtractor) Extract(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}

	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}

	return string(runes), nil
}

// csvExtractor flattens each record into "header: value" pairs so column
// context survives into the chunks
type csvExtractor struct{}

func (csvExtractor) Extract(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		// Fall back to raw text rather than rejecting the file
		return plainTextExtractor{}.Extract(content)
	}

	if len(records) == 0 {
		return "", nil
	}

	header := records[0]

	var lines []string

	for _, row := range records[1:] {
		pairs := make([]string, 0, len(row))

		for i, value := range row {
			if i < len(header) {
				pairs = append(pairs, fmt.Sprintf("%s: %s", header[i], value))
			} else {
				pairs = append(pairs, value)
			}
		}

		lines = append(lines, strings.Join(pairs, ", "))
	}

	return strings.Join(lines, "\n"), nil
}
