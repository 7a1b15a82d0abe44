// Package export persists record streams as sharded Parquet files.
//
// One split becomes ShardCount files named
// <dataset>-<split>-NNNNN-of-NNNNN.parquet under
// <output_dir>/<dataset>/<version>/. Records are assigned to shards
// round-robin in emission order. Shards are written into a staging
// directory and promoted together once the whole stream has been
// consumed, so a failed build leaves no partial output behind.
package export
