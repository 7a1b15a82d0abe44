package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"parcel/internal/fetch"
)

// fetchProgress renders transfer progress for interactive sessions, one bar
// per fetch stage. The downloading bar counts bytes, extracting counts
// archive entries.
type fetchProgress struct {
	out   io.Writer
	stage string
	bar   *progressbar.ProgressBar
}

// newFetchProgress returns nil when out is not a terminal; callers skip the
// progress option entirely in that case.
func newFetchProgress(out io.Writer) *fetchProgress {
	if !interactive(out) {
		return nil
	}
	return &fetchProgress{out: out}
}

func (p *fetchProgress) update(event fetch.ProgressEvent) {
	if event.Stage != p.stage {
		p.finish()
		p.stage = event.Stage
		p.bar = newStageBar(p.out, event)
	}
	if p.bar == nil {
		return
	}
	_ = p.bar.Set64(event.Completed)
}

func (p *fetchProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

func newStageBar(out io.Writer, event fetch.ProgressEvent) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(event.Stage),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	}
	if event.Stage == fetch.StageDownloading {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	total := event.Total
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total, opts...)
}

func interactive(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
