package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarupke/knucleotide/internal/sim"
)

func writeInput(t *testing.T, seq []byte) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(">ONE Homo sapiens alu\nGGCCGGGCGCGGTGGCTCACGCCTGTAATCCCAGCA\n")
	require.NoError(t, sim.WriteFASTA(&buf, "THREE Homo sapiens frequency", seq, 60))
	p := filepath.Join(t.TempDir(), "input.fa")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestRun_BenchmarkReport(t *testing.T) {
	seq := sim.Make(5000, 3, sim.HomoSapiens)
	path := writeInput(t, bytes.ToLower(seq))
	jsPath := filepath.Join(t.TempDir(), "run.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", path, "-workers", "3", "-json", jsPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	blocks := strings.Split(stdout.String(), "\n\n")
	require.Len(t, blocks, 3, stdout.String())
	assert.Len(t, strings.Split(blocks[0], "\n"), 4, "four 1-mers")
	assert.Len(t, strings.Split(blocks[1], "\n"), 16, "sixteen 2-mers")

	queries := strings.Split(strings.TrimSpace(blocks[2]), "\n")
	require.Len(t, queries, 5)
	assert.True(t, strings.HasSuffix(queries[0], "\tGGT"))
	assert.True(t, strings.HasSuffix(queries[4], "\tGGTATTTTAATTTATAGT"))

	var doc struct {
		Record   string `json:"record"`
		Length   int    `json:"length"`
		Sections int    `json:"sections"`
		Hash     string `json:"hash"`
	}
	raw, err := os.ReadFile(jsPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "THREE", doc.Record)
	assert.Equal(t, 5000, doc.Length)
	assert.Equal(t, 7, doc.Sections)
	assert.Equal(t, "identity", doc.Hash)
}

func TestRun_SimJSONFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-sim-len", "2000", "-frames", "3", "-queries", "", "-format", "json", "-hash", "xxh3"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 1)
	var sec struct {
		Frame struct {
			K       int    `json:"k"`
			Windows uint64 `json:"windows"`
		} `json:"frame"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &sec))
	assert.Equal(t, 3, sec.Frame.K)
	assert.Equal(t, uint64(1998), sec.Frame.Windows)
}

func TestRun_InvalidSymbolsFail(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.fa")
	require.NoError(t, os.WriteFile(p, []byte(">THREE\nACGTNNACGT\n"), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-input", p}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid nucleotide")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-input", p, "-permissive", "-queries", "", "-share-tables=false"}, &stdout, &stderr))
	assert.NotEmpty(t, stdout.String())
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-frames", "40"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-hash", "sha1"}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-no-such-flag"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-input", filepath.Join(t.TempDir(), "missing.fa")}, &stdout, &stderr))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "knucleotide dev"))
}
