package convert

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// progressEvery is how many parsed elements pass between progress reports
const progressEvery = 100_000

// ProgressTracker turns parse offsets into progress reports
type ProgressTracker struct {
	totalBytes int64
	startTime  time.Time
}

// NewProgressTracker creates a new progress tracker. totalBytes may be 0
// when the input size is unknown.
func NewProgressTracker(totalBytes int64) *ProgressTracker {
	return &ProgressTracker{
		totalBytes: totalBytes,
		startTime:  time.Now(),
	}
}

// Progress holds current parse progress
type Progress struct {
	Elements   int64
	Bytes      int64
	Total      int64
	Percentage float64
	Elapsed    time.Duration
	ETA        time.Duration
	Throughput float64 // elements per second
}

// Calculate returns progress given the element count and bytes consumed
func (p *ProgressTracker) Calculate(elements, bytesProcessed int64) Progress {
	return p.calculate(elements, bytesProcessed, time.Since(p.startTime))
}

func (p *ProgressTracker) calculate(elements, bytesProcessed int64, elapsed time.Duration) Progress {
	var percentage float64
	var eta time.Duration

	if p.totalBytes > 0 && bytesProcessed > 0 {
		percentage = float64(bytesProcessed) / float64(p.totalBytes) * 100
		if percentage > 0 && percentage < 100 && elapsed > 0 {
			bytesPerSecond := float64(bytesProcessed) / elapsed.Seconds()
			remaining := p.totalBytes - bytesProcessed
			eta = time.Duration(float64(remaining) / bytesPerSecond * float64(time.Second))
		}
	}

	var throughput float64
	if elapsed > 0 {
		throughput = float64(elements) / elapsed.Seconds()
	}

	return Progress{
		Elements:   elements,
		Bytes:      bytesProcessed,
		Total:      p.totalBytes,
		Percentage: percentage,
		Elapsed:    elapsed.Round(time.Second),
		ETA:        eta.Round(time.Second),
		Throughput: throughput,
	}
}

// FormatETA formats the ETA duration in a human-readable format
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatThroughput formats throughput as elements per second
func FormatThroughput(perSecond float64) string {
	return humanize.SIWithDigits(perSecond, 1, "/s")
}
