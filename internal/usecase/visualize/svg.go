package visualize

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSVG draws the layout: one red marker per embedding and the curve it
// came from in blue next to it.
func WriteSVG(w io.Writer, l *Layout) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")

	for _, p := range l.Placements {
		if len(p.Path) > 1 {
			fmt.Fprint(bw, `<polyline fill="none" stroke="blue" stroke-width="1" points="`)
			for i, q := range p.Path {
				if i > 0 {
					bw.WriteByte(' ') //nolint:errcheck // sticky error checked by Flush
				}
				fmt.Fprintf(bw, "%.2f,%.2f", q.X, q.Y)
			}
			fmt.Fprint(bw, `"/>`+"\n")
		}
		fmt.Fprintf(bw, `<circle cx="%.2f" cy="%.2f" r="3" fill="red"><title>curve %d</title></circle>`+"\n",
			p.X, p.Y, p.Index)
	}

	fmt.Fprint(bw, "</svg>\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
