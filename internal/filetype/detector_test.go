package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBytes(t *testing.T) {
	d := New()
	tests := []struct {
		name     string
		data     []byte
		declared string
		mime     string
		kind     Kind
	}{
		{"pdf by magic", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"), "application/octet-stream", "application/pdf", KindPDF},
		{"plain text", []byte("hello world, this is text"), "", "text/plain", KindText},
		{"declared markdown", []byte("# Title\n\nbody"), "text/markdown", "text/markdown", KindText},
		{"json", []byte(`{"a": 1}`), "", "application/json", KindText},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "", "image/png", KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := d.DetectBytes(tt.data, tt.declared)
			assert.Equal(t, tt.mime, info.MIMEType)
			assert.Equal(t, tt.kind, info.Kind)
			assert.NotEmpty(t, info.Description)
		})
	}
}
