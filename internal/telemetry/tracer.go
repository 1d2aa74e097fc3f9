package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for core operations.
const (
	AttrInodeID     = "inode.id"
	AttrOperation   = "core.operation"
	AttrOffset      = "io.offset"
	AttrSize        = "io.size"
	AttrBytesRead   = "io.bytes_read"
	AttrBytesWrite  = "io.bytes_written"
	AttrEOF         = "io.eof"
	AttrBlockID     = "block.id"
	AttrFingerprint = "block.fingerprint"
	AttrAlgo        = "compress.algo"
	AttrClass       = "compress.class"
	AttrVersionID   = "version.id"
	AttrReason      = "version.reason"
	AttrCacheHit    = "cache.hit"
	AttrCacheTier   = "cache.tier"
	AttrSavedBytes  = "dedup.saved_bytes"
)

// Span names for core operations.
const (
	SpanSmartRead   = "core.smart_read_file"
	SpanSmartWrite  = "core.smart_write_file"
	SpanCreate      = "version.create"
	SpanRetain      = "version.retain"
	SpanDedup       = "dedup.apply"
	SpanCompress    = "compress.apply"
	SpanCacheGet    = "cache.get"
	SpanCachePut    = "cache.put"
	SpanCacheFlush  = "cache.flush_dirty"
	SpanCacheManage = "cache.manage"
)

// InodeID returns an attribute for an inode id.
func InodeID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrInodeID, int64(id))
}

// Operation returns an attribute for the core operation name.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Offset returns an attribute for an I/O offset.
func Offset(offset int64) attribute.KeyValue {
	return attribute.Int64(AttrOffset, offset)
}

// Size returns an attribute for a requested byte count.
func Size(size int) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(size))
}

// BytesRead returns an attribute for actual bytes read.
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int64(AttrBytesRead, int64(n))
}

// BytesWritten returns an attribute for actual bytes written.
func BytesWritten(n int) attribute.KeyValue {
	return attribute.Int64(AttrBytesWrite, int64(n))
}

// EOF returns an attribute for end-of-file indicator.
func EOF(eof bool) attribute.KeyValue {
	return attribute.Bool(AttrEOF, eof)
}

// BlockID returns an attribute for a block id.
func BlockID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrBlockID, int64(id))
}

// Fingerprint returns an attribute for a block's truncated fingerprint key.
func Fingerprint(key uint64) attribute.KeyValue {
	return attribute.Int64(AttrFingerprint, int64(key))
}

// Algo returns an attribute for a compression algorithm name.
func Algo(name string) attribute.KeyValue {
	return attribute.String(AttrAlgo, name)
}

// Class returns an attribute for a content classification.
func Class(name string) attribute.KeyValue {
	return attribute.String(AttrClass, name)
}

// VersionID returns an attribute for a version id.
func VersionID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrVersionID, int64(id))
}

// Reason returns an attribute for a version creation reason.
func Reason(reason string) attribute.KeyValue {
	return attribute.String(AttrReason, reason)
}

// CacheHit returns an attribute for cache hit indicator.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// CacheTier returns an attribute for the cache tier that served a request.
func CacheTier(tier string) attribute.KeyValue {
	return attribute.String(AttrCacheTier, tier)
}

// SavedBytes returns an attribute for bytes saved by deduplication.
func SavedBytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrSavedBytes, int64(n))
}

// StartSmartReadSpan starts a span for a smart_read_file call.
func StartSmartReadSpan(ctx context.Context, inodeID uint64, offset int64, size int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSmartRead, trace.WithAttributes(InodeID(inodeID), Offset(offset), Size(size)))
}

// StartSmartWriteSpan starts a span for a smart_write_file call.
func StartSmartWriteSpan(ctx context.Context, inodeID uint64, offset int64, size int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSmartWrite, trace.WithAttributes(InodeID(inodeID), Offset(offset), Size(size)))
}

// StartVersionSpan starts a span for a version-chain operation.
func StartVersionSpan(ctx context.Context, name string, inodeID uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{InodeID(inodeID)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartCacheSpan starts a span for a cache-tier operation.
func StartCacheSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(attrs...))
}
