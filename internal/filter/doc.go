// Package filter provides the polyphase resize filter coefficients the
// blit engine reads during a stretch blit.
//
// The horizontal filter has 8 taps and the vertical filter 5, both with 8
// phases. One table exists per range of scale factors; the node carries the
// physical address of the table matching the current source increment.
package filter
