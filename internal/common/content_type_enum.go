package common

import (
	"path/filepath"
	"strings"
)

// FileFamily groups attachment content types the way search filters present them
type FileFamily string

const (
	FileFamilyImage FileFamily = "image"
	FileFamilyPDF   FileFamily = "pdf"
	FileFamilyWord  FileFamily = "word"
	FileFamilyExcel FileFamily = "excel"
	FileFamilyOther FileFamily = "other"
)

// String returns the string representation
func (f FileFamily) String() string {
	return string(f)
}

// IsValid checks if the family is a known one
func (f FileFamily) IsValid() bool {
	switch f {
	case FileFamilyImage, FileFamilyPDF, FileFamilyWord, FileFamilyExcel, FileFamilyOther:
		return true
	}
	return false
}

func DetectFileFamily(mimeType string) FileFamily {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(lower, "image/"):
		return FileFamilyImage
	case strings.Contains(lower, "pdf"):
		return FileFamilyPDF
	case strings.Contains(lower, "word"):
		return FileFamilyWord
	case strings.Contains(lower, "excel"), strings.Contains(lower, "spreadsheet"):
		return FileFamilyExcel
	}
	return FileFamilyOther
}

var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".dwg":  "image/vnd.dwg",
}

// ContentTypeForName guesses a content type from the file extension, for uploads that came without one.
func ContentTypeForName(filename string) string {
	if ct, ok := extensionContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
