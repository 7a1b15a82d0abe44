// Package decode normalizes encoded image files into fixed-shape RGB pixel
// buffers for record emission.
package decode
