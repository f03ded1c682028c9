package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/thermomap/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		fileName string
		want     Kind
		wantErr  bool
	}{
		{fileName: "logger.vi2", want: KindVI2},
		{fileName: "LOGGER.VI2", want: KindVI2},
		{fileName: "data.xls", want: KindSpreadsheet},
		{fileName: "Data.XlSx", want: KindSpreadsheet},
		{fileName: "report.pdf", want: KindAttachment},
		{fileName: "raw.csv", want: KindAttachment},
		{fileName: "notes.txt", wantErr: true},
		{fileName: "archive.xlsx.zip", wantErr: true},
		{fileName: "noext", wantErr: true},
		{fileName: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			got, err := Detect(tt.fileName)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				assert.Contains(t, err.Error(), ".vi2")
				assert.Equal(t, KindUnknown, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ParserFor(t *testing.T) {
	r := NewRegistry()

	p, k, err := r.ParserFor("a.vi2")
	require.NoError(t, err)
	assert.Equal(t, KindVI2, k)
	assert.Equal(t, "vi2", p.Name())

	p, k, err = r.ParserFor("a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, KindSpreadsheet, k)
	assert.Equal(t, "xls", p.Name())
	assert.Contains(t, p.Extensions(), ".xlsx")

	p, k, err = r.ParserFor("a.pdf")
	require.NoError(t, err)
	assert.Equal(t, KindAttachment, k)
	assert.Nil(t, p)

	_, _, err = r.ParserFor("a.doc")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type panicParser struct{}

func (panicParser) Name() string         { return "panic" }
func (panicParser) Extensions() []string { return []string{".vi2"} }
func (panicParser) Parse(fileName string, data []byte) (result models.ParsedFileData) {
	defer guard(fileName, models.FormatVI2, &result)
	var m map[string]int
	m["boom"]++
	return result
}

func TestRegistry_Parse(t *testing.T) {
	r := NewRegistry()

	res := r.Parse("notes.txt", []byte("x"))
	assert.Equal(t, models.StatusError, res.ParsingStatus)
	assert.Contains(t, res.ErrorMessage, "unsupported")

	res = r.Parse("scan.pdf", []byte("%PDF"))
	assert.Equal(t, models.StatusError, res.ParsingStatus)
	assert.Contains(t, res.ErrorMessage, ".pdf")

	r.Register(KindVI2, panicParser{})
	assert.NotPanics(t, func() { res = r.Parse("a.vi2", nil) })
	assert.Equal(t, models.StatusError, res.ParsingStatus)
	assert.Contains(t, res.ErrorMessage, "повреждённый файл")
	assert.NotNil(t, res.Measurements)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "vi2", KindVI2.String())
	assert.Equal(t, "spreadsheet", KindSpreadsheet.String())
	assert.Equal(t, "attachment", KindAttachment.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
