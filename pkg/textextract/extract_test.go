package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract([]byte("  hello world\n"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtract_PlainTextWithCharset(t *testing.T) {
	text, err := Extract([]byte("hola"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "hola", text)
}

func TestExtract_DOCX(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>quarterly</w:t></w:r><w:r><w:t>report</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, err := Extract(buf.Bytes(),
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)
	assert.Equal(t, "quarterly report", text)
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := Extract([]byte{0xff}, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported media type")
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := Extract([]byte("not a pdf"), "application/pdf")
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("text/plain"))
	assert.True(t, Supported("text/plain; charset=utf-8"))
	assert.True(t, Supported("application/pdf"))
	assert.False(t, Supported("video/mp4"))
}
