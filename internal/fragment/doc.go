// Package fragment implements the default pointer evaluator. It buffers a
// resource into an element index and selects the elements addressed by a
// shorthand pointer, an xpointer() expression or an elementpath() path.
package fragment
