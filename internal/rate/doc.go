// Package rate implements fixed-window request counting.
//
// Two [Limiter] implementations exist: [RedisLimiter] shares windows
// across every process instance via atomic INCR, and [MemoryLimiter]
// keeps a single-process counter map for embedded or test deployments.
// Both admit bursts of up to ~2x the nominal rate across a window
// boundary; that is inherent to fixed windows and accepted here.
package rate
