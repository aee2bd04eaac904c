package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/unirange"
	"github.com/pterm/pterm"
)

// --- Building the Request ---------------------------------------------

func rangeOp(intp *Intp, op *Op) (error, bool) {
	if len(op.args) == 0 {
		set := intp.selected()
		pterm.Println("Range: " + intp.rangeExpr)
		pterm.Printf("%d codepoints: %s\n", set.Len(), cli.Abbreviate(unirange.Compress(set).String(), 60))
		return nil, false
	}
	expr := strings.Join(op.args, "")
	if _, err := unirange.Parse(expr); err != nil {
		return err, false
	}
	intp.setRange(expr)
	return nil, false
}

// selectOp emulates dragging across a group, from one codepoint to another:
//
//	select 41 5a [case]
//	select 41-5a [case]
func selectOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	args := op.args
	withCase := len(args) > 0 && strings.EqualFold(args[len(args)-1], "case")
	if withCase {
		args = args[:len(args)-1]
	}
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: select <from> <to> [case]"), false
	}
	expr, err := cli.Drag(intp.universe, intp.rangeExpr, strings.Join(args, "-"), withCase)
	if err != nil {
		return err, false
	}
	intp.setRange(expr)
	return nil, false
}

func textOp(intp *Intp, op *Op) (error, bool) {
	text := op.arg(0)
	if text == "" {
		return errors.New("usage: text <characters>"), false
	}
	intp.setRange(cli.AppendText(intp.rangeExpr, text))
	return nil, false
}

// pinOp constrains variation axes, e.g. "pin wght=700,wdth=75:100".
// Without arguments, all constraints are removed.
func pinOp(intp *Intp, op *Op) (error, bool) {
	if len(op.args) == 0 {
		intp.opts.VariationAxes = nil
		intp.invalidate()
		return nil, false
	}
	axes, err := cli.ParseAxes(strings.Join(op.args, ","))
	if err != nil {
		return err, false
	}
	merged := maps.Clone(intp.opts.VariationAxes)
	if merged == nil {
		merged = make(map[string]fontsubset.AxisConstraint, len(axes))
	}
	maps.Copy(merged, axes)
	intp.opts.VariationAxes = merged
	intp.invalidate()
	return nil, false
}

func resetOp(intp *Intp, op *Op) (error, bool) {
	intp.opts.VariationAxes = nil
	intp.setRange(fontsubset.DefaultRange)
	return nil, false
}

func (intp *Intp) setRange(expr string) {
	intp.rangeExpr = expr
	intp.invalidate()
	tracer().Infof("range is %q", expr)
}

// selected returns the codepoints of the font selected by the range.
func (intp *Intp) selected() unirange.Set {
	set, err := unirange.ParseSet(intp.rangeExpr)
	if err != nil {
		return unirange.Set{}
	}
	if intp.font == nil {
		return set
	}
	return set.Filter(intp.universe.Contains)
}

// --- Subsetting -------------------------------------------------------

// invalidate marks the current subset, finished or running, as superseded.
func (intp *Intp) invalidate() {
	intp.mu.Lock()
	defer intp.mu.Unlock()
	intp.seq++
	intp.latest = nil
}

// subsetOp starts subsetting in the background. Only the most recent
// request is kept: results of requests superseded in the meantime are
// discarded.
func subsetOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	intp.mu.Lock()
	intp.seq++
	intp.latest = nil
	seq, done := intp.seq, make(chan struct{})
	intp.busy = done
	intp.mu.Unlock()
	source, name, expr, opts := intp.font.Binary, filepath.Base(intp.font.Filepath), intp.rangeExpr, intp.opts
	go func() {
		defer close(done)
		rep, err := fontsubset.Process(source, name, expr, opts)
		intp.mu.Lock()
		defer intp.mu.Unlock()
		if seq != intp.seq {
			tracer().Infof("discarding result of superseded subset #%d", seq)
			return
		}
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		intp.latest = rep
		printReport(rep)
	}()
	return nil, false
}

// wait blocks until the most recently started subset has finished.
func (intp *Intp) wait() {
	intp.mu.Lock()
	done := intp.busy
	intp.mu.Unlock()
	if done != nil {
		<-done
	}
}

// current returns the subset of the current request, waiting for it if it
// is still running.
func (intp *Intp) current() (*fontsubset.Report, error) {
	intp.wait()
	intp.mu.Lock()
	defer intp.mu.Unlock()
	if intp.latest == nil {
		return nil, errors.New("no subset for the current request, use 'subset'")
	}
	return intp.latest, nil
}

func writeOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	rep, err := intp.current()
	if err != nil {
		return err, false
	}
	path := op.arg(0)
	if path == "" {
		path = intp.conf.Subsetting().OutputName(intp.font.Filepath)
	}
	if err := os.WriteFile(path, rep.Bytes, 0o644); err != nil {
		return err, false
	}
	pterm.Info.Println(fmt.Sprintf("%s written to %s", rep.FileSize(), path))
	return nil, false
}
