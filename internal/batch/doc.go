// Package batch crawls several start URLs concurrently on a shared crawler.
//
// The crawler's worker pools and per-host limits are shared by every seed,
// so the batch concurrency only bounds how many Download calls are active
// at once.
package batch
