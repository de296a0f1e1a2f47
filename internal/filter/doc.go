// Package filter provides the full-frame reference box filter.
//
// The reference filter has unrestricted random access to the input frame:
// for every output pixel it samples a square support centered on input
// pixel (2x, 2y), clamping out-of-range taps to the nearest frame edge.
// Its output is the ground truth the streaming model is checked against.
//
// Two support policies exist:
//   - Fixed: 3x3 everywhere
//   - Variable: 3x3 on the first and last row/column of each output
//     superblock, 5x5 elsewhere
package filter
