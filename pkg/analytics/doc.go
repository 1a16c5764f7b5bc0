// Package analytics writes flattened aggregate rows to the analytical store.
//
// Two drivers implement Client: PostgreSQL through gorm, and embedded DuckDB through
// database/sql. Both discover the destination table's columns once at connect time;
// the sink flattens each window against that set so columns added to or dropped from
// the table need no code change here.
package analytics
