package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileFamily_String(t *testing.T) {
	assert.Equal(t, "image", FileFamilyImage.String())
	assert.Equal(t, "pdf", FileFamilyPDF.String())
}

func TestFileFamily_IsValid(t *testing.T) {
	assert.True(t, FileFamilyImage.IsValid())
	assert.True(t, FileFamilyExcel.IsValid())

	invalid := FileFamily("invalid")
	assert.False(t, invalid.IsValid())
}

func TestDetectFileFamily(t *testing.T) {
	cases := []struct {
		input    string
		expected FileFamily
	}{
		{"image/jpeg", FileFamilyImage},
		{"IMAGE/PNG", FileFamilyImage},
		{"application/pdf", FileFamilyPDF},
		{"application/msword", FileFamilyWord},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FileFamilyWord},
		{"application/vnd.ms-excel", FileFamilyExcel},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FileFamilyExcel},
		{"text/plain", FileFamilyOther},
		{"", FileFamilyOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, DetectFileFamily(tc.input), "Failed for MIME type: %s", tc.input)
	}
}

func TestContentTypeForName(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeForName("photo.JPG"))
	assert.Equal(t, "application/pdf", ContentTypeForName("report.pdf"))
	assert.Equal(t, "application/octet-stream", ContentTypeForName("archive.tar.zst"))
	assert.Equal(t, "application/octet-stream", ContentTypeForName("noext"))
}
