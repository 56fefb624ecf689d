package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/chinazhenzhen/Storm-Bringer/packages/rest"
)

type printer struct {
	writer io.Writer
}

func newPrinter(w io.Writer, noColor bool) *printer {
	if noColor {
		color.NoColor = true
	}
	return &printer{writer: w}
}

func (p *printer) status(resp *rest.Response) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(p.writer, "%s %s (%dms)\n", green(resp.StatusCode), resp.Reason, resp.DurationMs())
}

func (p *printer) headers(resp *rest.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(p.writer, "%s: %s\n", cyan(k), strings.Join(resp.Headers[k], ", "))
	}
	fmt.Fprintln(p.writer)
}

func (p *printer) body(body []byte) {
	if len(body) == 0 {
		return
	}
	fmt.Fprintf(p.writer, "%s", body)
	if body[len(body)-1] != '\n' {
		fmt.Fprintln(p.writer)
	}
}
