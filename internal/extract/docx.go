package extract

import (
	"archive/zip"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t>text</w:t> with any attributes.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpEnd marks paragraph boundaries so paragraphs stay separated in the output.
var wpEnd = regexp.MustCompile(`</w:p>`)

// overrideTag matches one Override element; the main document part is picked by content type.
var overrideTag = regexp.MustCompile(`<Override\s[^>]*>`)

var partNameAttr = regexp.MustCompile(`PartName="([^"]+)"`)

// docxMainDocumentPath finds the main document part from [Content_Types].xml, falling back to word/document.xml.
func docxMainDocumentPath(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPath)
	if f == nil {
		return docxDocumentXMLPath
	}
	data, err := readZipFile(f)
	if err != nil {
		return docxDocumentXMLPath
	}
	for _, tag := range overrideTag.FindAllString(string(data), -1) {
		if !strings.Contains(tag, `ContentType="`+docxMainContentType+`"`) {
			continue
		}
		if m := partNameAttr.FindStringSubmatch(tag); len(m) > 1 {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return docxDocumentXMLPath
}

// extractDOCX pulls every <w:t> run out of the main document part, one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	docPath := docxMainDocumentPath(zr)
	f := findZipFile(zr, docPath)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	docXML, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var lines []string
	for _, para := range wpEnd.Split(string(docXML), -1) {
		var runs []string
		for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
			if s := strings.TrimSpace(m[1]); s != "" {
				runs = append(runs, s)
			}
		}
		if len(runs) > 0 {
			lines = append(lines, strings.Join(runs, " "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
