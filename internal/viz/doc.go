// Package viz draws in the terminal.
//
//   - [Canvas]: braille dot surface implementing stage.Canvas, used by the
//     terminal backend as its render target
//   - lipgloss styles, [Table] and [SparklineChart] for CLI output
package viz
