// Package aggregate flattens pre-computed statistical windows into analytical rows.
//
// A window such as
//
//	{"window_start": 1733684400, "window_end": 1733684410, "cell_index": 123,
//	 "sample_count": 100, "rsrp": {"mean": -85.5, "max": -80, "min": -90, "std": 2.5}}
//
// flattens to window_start_time, window_end_time, window_duration_seconds=10,
// cell_index, sample_count and rsrp_mean/max/min/std, keeping only the columns the
// destination table actually has.
package aggregate
