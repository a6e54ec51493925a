package storage

import "io"

// progressReader counts bytes read through it and reports the fraction of the
// total as a percentage. Reported values are clamped to [0,100] and never
// decrease, even if the underlying reader over-reports.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     float64
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.report()
	}
	return n, err
}

func (pr *progressReader) report() {
	if pr.progress == nil || pr.total <= 0 {
		return
	}
	percent := float64(pr.read) / float64(pr.total) * 100
	if percent > 100 {
		percent = 100
	}
	if percent < pr.last {
		return
	}
	pr.last = percent
	pr.progress(percent)
}
