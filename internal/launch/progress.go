package launch

import (
	"bufio"
	"io"
	"regexp"
	"strconv"

	"github.com/schollz/progressbar/v3"
)

// stepLine matches the step counter the trainers print into their log
// tables, e.g. "| step | 1200 |" or "step: 1200".
var stepLine = regexp.MustCompile(`(?i)\bstep\b[^0-9]*([0-9]+)`)

// stepProgress renders a progress bar for a training run by watching the
// child's stdout for step counter lines.
type stepProgress struct {
	bar *progressbar.ProgressBar
	pw  *io.PipeWriter
}

// newStepProgress builds a bar sized to the run's total step budget,
// writing to the given terminal writer.
func newStepProgress(totalSteps int, termW io.Writer) *stepProgress {
	bar := progressbar.NewOptions(totalSteps,
		progressbar.OptionSetDescription("training"),
		progressbar.OptionSetWriter(termW),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("steps"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
	return &stepProgress{bar: bar}
}

// Tee returns a writer that forwards everything to next while scanning
// each line for step counters.
func (p *stepProgress) Tee(next io.Writer) io.Writer {
	pr, pw := io.Pipe()
	p.pw = pw
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if step, ok := ScanStep(line); ok {
				// Set, not Add: the trainer reports absolute steps.
				_ = p.bar.Set(step)
			}
		}
		_ = pr.Close()
	}()
	return io.MultiWriter(next, pw)
}

// Close finishes the bar and releases the scanning goroutine.
func (p *stepProgress) Close() {
	if p.pw != nil {
		_ = p.pw.Close()
	}
	_ = p.bar.Finish()
}

// ScanStep extracts an absolute step counter from a single trainer log
// line. The second return is false when the line carries no counter.
func ScanStep(line string) (int, bool) {
	m := stepLine.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	step, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return step, true
}
