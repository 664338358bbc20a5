package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHeader Row
		wantRows   []Row
	}{
		{
			name:       "simple comma separated",
			input:      "name,address\n강남역 화장실,서울 강남구\n",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"강남역 화장실", "서울 강남구"}},
		},
		{
			name:       "crlf line endings",
			input:      "name,address\r\na,b\r\nc,d\r\n",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"a", "b"}, {"c", "d"}},
		},
		{
			name:       "bare cr line endings",
			input:      "name,address\ra,b\rc,d",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"a", "b"}, {"c", "d"}},
		},
		{
			name:       "quoted field with comma",
			input:      "name,address\n\"스타벅스, 강남점\",서울\n",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"스타벅스, 강남점", "서울"}},
		},
		{
			name:       "escaped quote inside quoted field",
			input:      "name,note\nplace,\"said \"\"hi\"\"\"\n",
			wantHeader: Row{"name", "note"},
			wantRows:   []Row{{"place", `said "hi"`}},
		},
		{
			name:       "newline inside quoted field",
			input:      "name,note\nplace,\"line one\nline two\"\n",
			wantHeader: Row{"name", "note"},
			wantRows:   []Row{{"place", "line one\nline two"}},
		},
		{
			name:       "final record without trailing newline",
			input:      "name,address\nlast,row",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"last", "row"}},
		},
		{
			name:       "blank records dropped",
			input:      "name,address\n\n , \na,b\n",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"a", "b"}},
		},
		{
			name:       "fields are trimmed",
			input:      "name , address \n  a ,  b \n",
			wantHeader: Row{"name", "address"},
			wantRows:   []Row{{"a", "b"}},
		},
		{
			name:       "empty input",
			input:      "",
			wantHeader: nil,
			wantRows:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.wantHeader, got.Header)
			assert.Equal(t, tt.wantRows, got.Rows)
			assert.False(t, got.UnterminatedQuote)
		})
	}
}

func TestParseUnterminatedQuote(t *testing.T) {
	got := Parse("name,note\nplace,\"never closed\n")

	assert.True(t, got.UnterminatedQuote)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "place", got.Rows[0][0])
	assert.Equal(t, "never closed", got.Rows[0][1])
}

func TestDecodeUTF8(t *testing.T) {
	text, err := Decode([]byte("이름,주소\n"), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "이름,주소\n", text)

	// Empty encoding defaults to UTF-8.
	text, err = Decode([]byte("a,b"), "")
	require.NoError(t, err)
	assert.Equal(t, "a,b", text)
}

func TestDecodeEUCKR(t *testing.T) {
	encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte("화장실명,주소"))
	require.NoError(t, err)

	text, err := Decode(encoded, EncodingEUCKR)
	require.NoError(t, err)
	assert.Equal(t, "화장실명,주소", text)
}

func TestDecodeUnsupportedEncoding(t *testing.T) {
	_, err := Decode([]byte("a"), "shift-jis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}
