// Package document renders pipeline output as a Word document and keeps the rendered files.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	Title       = "Healthcare Diagnosis and Treatment Recommendations"
	Filename    = "diagnosis_and_treatment_plan.docx"
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// zip entries carry a fixed timestamp so that rendering the same input twice gives the same bytes
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// RenderError reports a failure to build or read a document
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "document: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/>` +
	`<w:rPr><w:sz w:val="22"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/>` +
	`<w:next w:val="Normal"/><w:qFormat/><w:pPr><w:spacing w:after="300"/></w:pPr>` +
	`<w:rPr><w:color w:val="17365D"/><w:kern w:val="28"/><w:sz w:val="52"/></w:rPr></w:style>` +
	`</w:styles>`

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Render builds a .docx with a Title heading and one paragraph holding body.
// Newlines become line breaks and tabs become tabs; no other formatting is applied.
func Render(title, body string) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="` + wordNS + `"><w:body>`)
	doc.WriteString(`<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr>`)
	if err := writeRun(&doc, title); err != nil {
		return nil, &RenderError{Err: err}
	}
	doc.WriteString(`</w:p><w:p>`)
	if err := writeRun(&doc, body); err != nil {
		return nil, &RenderError{Err: err}
	}
	doc.WriteString(`</w:p><w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/document.xml", doc.Bytes()},
		{"word/styles.xml", []byte(stylesXML)},
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: epoch})
		if err != nil {
			return nil, &RenderError{Err: err}
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, &RenderError{Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, &RenderError{Err: err}
	}
	return out.Bytes(), nil
}

// Canonical returns text as it reads back from a rendered document: CRLF and lone CR
// become LF and characters XML cannot carry are dropped.
func Canonical(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Map(func(r rune) rune {
		if !validXMLChar(r) {
			return -1
		}
		return r
	}, text)
}

func writeRun(buf *bytes.Buffer, text string) error {
	text = Canonical(text)
	buf.WriteString("<w:r>")
	var seg strings.Builder
	flush := func() error {
		if seg.Len() == 0 {
			return nil
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(buf, []byte(seg.String())); err != nil {
			return err
		}
		buf.WriteString("</w:t>")
		seg.Reset()
		return nil
	}
	for _, r := range text {
		switch {
		case r == '\n':
			if err := flush(); err != nil {
				return err
			}
			buf.WriteString("<w:br/>")
		case r == '\t':
			if err := flush(); err != nil {
				return err
			}
			buf.WriteString("<w:tab/>")
		default:
			seg.WriteRune(r)
		}
	}
	if err := flush(); err != nil {
		return err
	}
	buf.WriteString("</w:r>")
	return nil
}

// validXMLChar follows the Char production of XML 1.0; anything else cannot appear in word/document.xml.
func validXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// ExtractText returns the visible text of a .docx: one line per paragraph, with line
// breaks and tabs restored.
func ExtractText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &RenderError{Err: err}
	}
	var main *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			main = f
			break
		}
	}
	if main == nil {
		return "", &RenderError{Err: errors.New("word/document.xml not found")}
	}
	rc, err := main.Open()
	if err != nil {
		return "", &RenderError{Err: err}
	}
	defer rc.Close()

	var (
		b          strings.Builder
		paragraphs int
		inText     bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &RenderError{Err: fmt.Errorf("parse document.xml: %w", err)}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if paragraphs > 0 {
					b.WriteByte('\n')
				}
				paragraphs++
			case "t":
				inText = true
			case "br":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			}
		case xml.EndElement:
			if t.Name.Space == wordNS && t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
