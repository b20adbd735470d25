package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	xierrors "github.com/jacoelho/xinclude/errors"
)

// renderError writes err to w, colored when w is a terminal.
func renderError(w io.Writer, err error) {
	label := color.New(color.FgRed, color.Bold)
	code := color.New(color.FgYellow)
	if isTerminal(w) {
		label.EnableColor()
		code.EnableColor()
	} else {
		label.DisableColor()
		code.DisableColor()
	}

	inc, ok := xierrors.AsInclusion(err)
	if !ok {
		_, _ = fmt.Fprintf(w, "%s %v\n", label.Sprint("error:"), err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s %s", label.Sprint("error:"), code.Sprint(string(inc.Code)), inc.Message)
	switch {
	case inc.SystemID != "" && inc.Line > 0:
		_, _ = fmt.Fprintf(w, " (%s:%d:%d)", inc.SystemID, inc.Line, inc.Column)
	case inc.SystemID != "":
		_, _ = fmt.Fprintf(w, " (%s)", inc.SystemID)
	}
	if inc.Err != nil {
		_, _ = fmt.Fprintf(w, ": %v", inc.Err)
	}
	_, _ = fmt.Fprintln(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
