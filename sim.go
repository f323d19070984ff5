package mdlive

import (
	"bufio"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// SimulateRequest configures Simulate.
type SimulateRequest struct {
	Reader    io.Reader
	Renderer  *Renderer
	ChunkSize int
	Delay     time.Duration
}

// Simulate reads Markdown from Reader and feeds it to a Renderer in small
// rune chunks with a delay between them, imitating inference token timing.
// The Renderer is force-flushed at end of stream.
func Simulate(req SimulateRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("simulate: Reader is nil")
	}
	if req.Renderer == nil {
		return fmt.Errorf("simulate: Renderer is nil")
	}
	if req.ChunkSize <= 0 {
		return fmt.Errorf("simulate: ChunkSize must be > 0")
	}
	reader := bufio.NewReaderSize(req.Reader, 4096)
	buf := make([]rune, 0, req.ChunkSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := req.Renderer.Append(string(buf)); err != nil {
			return fmt.Errorf("simulate: append: %w", err)
		}
		buf = buf[:0]
		if req.Delay > 0 {
			time.Sleep(req.Delay)
		}
		return nil
	}
	for {
		r, size, err := reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("simulate: read: %w", err)
		}
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if isControlRune(r) {
			continue
		}
		buf = append(buf, r)
		if len(buf) >= req.ChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	req.Renderer.Flush()
	return nil
}
