// Package ir defines the value model shared by every remod package.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - NO float types anywhere: use fixed-point Int for fractions
//   - Null is a real value (void events carry it)
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
