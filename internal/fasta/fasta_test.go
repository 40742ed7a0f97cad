package fasta

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchInput = ">ONE Homo sapiens alu\nGGCCGGGCGCGG\n>TWO IUB ambiguity codes\ncttBtatcatatgc\n" +
	">THREE Homo sapiens frequency\n;comment line\naacacttcacca\nggtattttaatt\r\n\nTATAGT\n"

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func gz(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func drain(t *testing.T, path string) []Record {
	ch := make(chan Record)
	go func() {
		if err := Stream(path, ch); err != nil {
			t.Error(err)
		}
	}()
	var recs []Record
	for r := range ch {
		recs = append(recs, r)
	}
	return recs
}

func TestStream(t *testing.T) {
	data := ">chr1\nacgT\nNN\n>chr2 some desc\nGgCc\n"
	recs := drain(t, writeTemp(t, "a.fa", []byte(data)))
	require.Len(t, recs, 2)
	assert.Equal(t, Record{ID: "chr1", Seq: []byte("ACGTNN")}, recs[0])
	assert.Equal(t, Record{ID: "chr2", Seq: []byte("GGCC")}, recs[1])
}

func TestStreamGzip(t *testing.T) {
	data := ">chr1\nacgT\nNN\n>chr2 some desc\nGgCc\n"
	recs := drain(t, writeTemp(t, "a.fa.gz", gz(t, data)))
	require.Len(t, recs, 2)
	assert.Equal(t, "ACGTNN", string(recs[0].Seq))
	assert.Equal(t, "GGCC", string(recs[1].Seq))
}

func TestStream_MissingFileClosesChannel(t *testing.T) {
	ch := make(chan Record, 1)
	err := Stream(filepath.Join(t.TempDir(), "nope.fa"), ch)
	assert.Error(t, err)
	_, open := <-ch
	assert.False(t, open)
}

func TestStream_StdinGzip(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = old }()

	payload := gz(t, ">chr1\nac\n>chr2\nGg\n")
	go func() { _, _ = w.Write(payload); _ = w.Close() }()

	recs := drain(t, "-")
	require.Len(t, recs, 2)
	assert.Equal(t, "AC", string(recs[0].Seq))
	assert.Equal(t, "GG", string(recs[1].Seq))
}

func TestFind_SkipsCommentsAndCRLF(t *testing.T) {
	rec, err := Find(strings.NewReader(benchInput), "THREE")
	require.NoError(t, err)
	assert.Equal(t, "THREE", rec.ID)
	assert.Equal(t, "AACACTTCACCAGGTATTTTAATTTATAGT", string(rec.Seq))
}

func TestFind_FirstAndMissing(t *testing.T) {
	rec, err := Find(strings.NewReader(benchInput), "")
	require.NoError(t, err)
	assert.Equal(t, "ONE", rec.ID)

	_, err = Find(strings.NewReader(benchInput), "FOUR")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestFind_NoTrailingNewline(t *testing.T) {
	rec, err := Find(strings.NewReader(">x\nAC\nGT"), "x")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(rec.Seq))
}

func TestFind_EmptyHeader(t *testing.T) {
	rec, err := Find(strings.NewReader(">\nAC\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "", rec.ID)
	assert.Equal(t, "AC", string(rec.Seq))
}

func TestFind_LinesLongerThanBuffer(t *testing.T) {
	long := strings.Repeat("x", 40)
	input := ">rec1 " + long + "\nACGT\n;" + long + "\n" + strings.Repeat("g", 50) + "\n>rec2 " + long + "\nTT\n"
	// 16 bytes is the smallest buffer bufio allows
	rec, err := Find(bufio.NewReaderSize(strings.NewReader(input), 16), "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, "ACGT"+strings.Repeat("G", 50), string(rec.Seq))

	rec, err = Find(bufio.NewReaderSize(strings.NewReader(input), 16), "rec2")
	require.NoError(t, err)
	assert.Equal(t, "TT", string(rec.Seq))
}
