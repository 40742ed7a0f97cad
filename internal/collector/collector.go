package collector

import (
	"github.com/rs/zerolog/log"

	"github.com/skarupke/knucleotide/internal/report"
)

// Msg delivers one finished report section. Idx is its position in the
// output; messages may arrive in any order.
type Msg struct {
	Idx     int
	Section report.Section
}

// Stats is emitted after the input channel closes.
type Stats struct {
	Sections int    `json:"sections"`
	Frames   int    `json:"frames"`
	Queries  int    `json:"queries"`
	Windows  uint64 `json:"windows"`
	Pending  int    `json:"pending,omitempty"` // received but never written (gap in Idx)
	Err      error  `json:"-"`
}

// New starts the collector goroutine.
//   - send Msg values on the returned chan
//   - close the chan when workers are done
//   - read the final Stats from the second chan
//
// Sections are encoded strictly in Idx order starting at 0. The collector
// closes enc once the input is drained.
func New(enc report.Encoder) (chan<- Msg, <-chan Stats) {
	in := make(chan Msg)
	out := make(chan Stats, 1)

	go func() {
		defer close(out)

		var stats Stats
		held := make(map[int]report.Section)
		next := 0
		write := func(s report.Section) {
			if stats.Err == nil {
				stats.Err = enc.Encode(s)
			}
			stats.Sections++
			if s.Frame != nil {
				stats.Frames++
				stats.Windows += s.Frame.Windows
			}
			if s.Query != nil {
				stats.Queries++
			}
		}

		for msg := range in {
			held[msg.Idx] = msg.Section
			for {
				s, ok := held[next]
				if !ok {
					break
				}
				delete(held, next)
				write(s)
				next++
			}
		}
		if len(held) > 0 {
			log.Warn().Int("pending", len(held)).Int("next", next).Msg("collector drained with missing sections")
		}
		stats.Pending = len(held)
		if err := enc.Close(); stats.Err == nil {
			stats.Err = err
		}
		out <- stats
	}()

	return in, out
}
