package output_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/seqeth/internal/output"
)

type receiptView struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

func (r receiptView) RenderText(w io.Writer) error {
	_, err := io.WriteString(w, r.Hash+" "+r.Status+"\n")
	return err
}

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)
	assert.True(t, f.IsJSON())

	require.NoError(t, f.Print(receiptView{Hash: "0xabc", Status: "mined"}))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{"hash": "0xabc", "status": "mined"}, got)
	assert.Contains(t, buf.String(), "\n  \"hash\"", "JSON is indented")
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"renderer", receiptView{Hash: "0xabc", Status: "mined"}, "0xabc mined\n"},
		{"string", "hello world", "hello world\n"},
		{"stringer", stringer{}, "from stringer\n"},
		{"fallback", 42, "42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			f := output.NewFormatter(output.FormatText, &buf)
			require.NoError(t, f.Print(tt.v))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatter_Printf(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Printf("nonce %d\n", 7))
	assert.Equal(t, "nonce 7\n", buf.String())
	assert.Same(t, &buf, f.Writer())
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatJSON))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto), "pipes get JSON")
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, ""))
	assert.Equal(t, output.FormatJSON, output.NewFormatter(output.FormatAuto, &buf).Format())
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, output.IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, output.IsTerminal(f))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, output.FormatJSON, output.ParseFormat("JSON"))
	assert.Equal(t, output.FormatText, output.ParseFormat(" text "))
	assert.Equal(t, output.FormatAuto, output.ParseFormat("auto"))
	assert.Equal(t, output.FormatAuto, output.ParseFormat("yaml"))
}

func TestMessages(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	output.Infof(&buf, "polling %s", "receipt")
	output.Warnf(&buf, "nonce %d reused", 3)
	output.Successf(&buf, "deployed")

	assert.Contains(t, buf.String(), "polling receipt\n")
	assert.Contains(t, buf.String(), "nonce 3 reused\n")
	assert.Contains(t, buf.String(), "deployed\n")
}
