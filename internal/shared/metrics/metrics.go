package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	extractionCreatedTotal       atomic.Uint64
	extractionCreateRetriesTotal atomic.Uint64
	extractionCreateFailedTotal  atomic.Uint64
	extractionRemovedTotal       atomic.Uint64

	duplicateChecksTotal   atomic.Uint64
	duplicateExactTotal    atomic.Uint64
	duplicateSimilarTotal  atomic.Uint64
	duplicateFailOpenTotal atomic.Uint64

	extractionCreateDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncExtractionCreated counts a committed extraction version.
func IncExtractionCreated() {
	extractionCreatedTotal.Add(1)
}

// IncExtractionCreateRetry counts a version allocation attempt that hit a conflict.
func IncExtractionCreateRetry() {
	extractionCreateRetriesTotal.Add(1)
}

// IncExtractionCreateFailed counts creates that surfaced an error to the caller.
func IncExtractionCreateFailed() {
	extractionCreateFailedTotal.Add(1)
}

// IncExtractionRemoved counts hard deletes that removed a row.
func IncExtractionRemoved() {
	extractionRemovedTotal.Add(1)
}

// ObserveExtractionCreateMs records end-to-end create latency in milliseconds.
func ObserveExtractionCreateMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionCreateDuration.Observe(value)
}

// ObserveDuplicateCheck records the outcome of one advisory duplicate check.
func ObserveDuplicateCheck(exact, similar, failedOpen bool) {
	duplicateChecksTotal.Add(1)
	if exact {
		duplicateExactTotal.Add(1)
	}
	if similar {
		duplicateSimilarTotal.Add(1)
	}
	if failedOpen {
		duplicateFailOpenTotal.Add(1)
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "extraction_created_total", "Extraction versions committed", extractionCreatedTotal.Load())
	writeCounter(&buf, "extraction_create_retries_total", "Version allocation attempts retried after a conflict", extractionCreateRetriesTotal.Load())
	writeCounter(&buf, "extraction_create_failed_total", "Extraction creates that returned an error", extractionCreateFailedTotal.Load())
	writeCounter(&buf, "extraction_removed_total", "Extractions hard-deleted", extractionRemovedTotal.Load())
	writeCounter(&buf, "duplicate_checks_total", "Advisory duplicate checks performed", duplicateChecksTotal.Load())
	writeCounter(&buf, "duplicate_exact_match_total", "Duplicate checks with at least one exact match", duplicateExactTotal.Load())
	writeCounter(&buf, "duplicate_similar_match_total", "Duplicate checks with at least one similar match", duplicateSimilarTotal.Load())
	writeCounter(&buf, "duplicate_check_fail_open_total", "Duplicate checks that failed open", duplicateFailOpenTotal.Load())
	writeHistogram(&buf, "extraction_create_duration_ms", "Extraction create latency in milliseconds", extractionCreateDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	// Per-bucket counts; writeHistogram accumulates them.
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
