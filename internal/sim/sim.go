package sim

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// Weights are relative base frequencies in A, C, G, T order.
type Weights [4]float64

var (
	Uniform = Weights{1, 1, 1, 1}
	// base composition used by the benchmark's fasta generator
	HomoSapiens = Weights{0.3029549426680, 0.1979883004921, 0.1975473066391, 0.3015094502008}
)

const bases = "ACGT"

// Make returns an upper-case DNA sequence of given length drawn from w.
// If seed==0 we use a time-based seed; otherwise results are reproducible.
// Negative weights count as zero; all-zero weights fall back to Uniform.
func Make(length int, seed int64, w Weights) []byte {
	if length <= 0 {
		return []byte{}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	var cum [4]float64
	sum := 0.0
	for i, x := range w {
		if x > 0 {
			sum += x
		}
		cum[i] = sum
	}
	if sum == 0 {
		return Make(length, seed, Uniform)
	}

	seq := make([]byte, length)
	for i := range seq {
		p := r.Float64() * sum
		j := 0
		for j < 3 && p >= cum[j] {
			j++
		}
		seq[i] = bases[j]
	}
	return seq
}

// WriteFASTA writes one record, wrapping the sequence every width columns
// (60 when width <= 0).
func WriteFASTA(w io.Writer, id string, seq []byte, width int) error {
	if width <= 0 {
		width = 60
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, ">%s\n", id); err != nil {
		return err
	}
	for len(seq) > 0 {
		n := min(width, len(seq))
		if _, err := bw.Write(seq[:n]); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return bw.Flush()
}
