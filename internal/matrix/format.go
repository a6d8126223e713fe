package matrix

import (
	"fmt"
	"strings"
)

// Format renders m one row per line, e.g. "[ 1 2 ]\n[ 3 4 ]\n".
func Format[T Element](m Matrix[T]) string {
	var sb strings.Builder
	for i := 0; i < m.Rows(); i++ {
		sb.WriteString("[ ")
		for j := 0; j < m.Cols(); j++ {
			fmt.Fprintf(&sb, "%v ", m.Get(i, j))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
