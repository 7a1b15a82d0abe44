// Package generate streams labeled image records out of a fetched dataset
// tree. Iteration is pull-based and single-threaded: the consumer controls
// pacing, each image is opened, decoded, and closed as one unit, and the
// first failure ends the stream.
package generate
