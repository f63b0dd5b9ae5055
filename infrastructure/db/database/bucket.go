package database

import (
	"bytes"
	"encoding/hex"
)

var separator = []byte("/")

// Bucket is a helper type meant to combine buckets,
// sub-buckets, and keys into a single full key-value
// database key.
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a new Bucket using the given path
// of buckets.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the sub-bucket of the current bucket
// defined by bucketBytes.
func (b *Bucket) Bucket(bucketBytes []byte) *Bucket {
	newPath := make([][]byte, len(b.path)+1)
	copy(newPath, b.path)
	newPath[len(b.path)] = bucketBytes

	return MakeBucket(newPath...)
}

// Key returns a key in the current bucket.
func (b *Bucket) Key(suffix []byte) *Key {
	return newKey(b, suffix)
}

// Path returns the full path of the current bucket.
func (b *Bucket) Path() []byte {
	bucketPath := bytes.Join(b.path, separator)

	bucketPathWithFinalSeparator := make([]byte, len(bucketPath)+len(separator))
	copy(bucketPathWithFinalSeparator, bucketPath)
	copy(bucketPathWithFinalSeparator[len(bucketPath):], separator)

	return bucketPathWithFinalSeparator
}

// Key is a database key composed of a bucket and a suffix.
type Key struct {
	bucket *Bucket
	suffix []byte
}

func newKey(bucket *Bucket, suffix []byte) *Key {
	return &Key{bucket: bucket, suffix: suffix}
}

// Bytes returns the full key as a byte slice.
func (k *Key) Bytes() []byte {
	bucketPath := k.bucket.Path()
	fullKey := make([]byte, len(bucketPath)+len(k.suffix))
	copy(fullKey, bucketPath)
	copy(fullKey[len(bucketPath):], k.suffix)
	return fullKey
}

// Suffix returns the key part of the key, without the bucket path.
func (k *Key) Suffix() []byte {
	return k.suffix
}

func (k *Key) String() string {
	return hex.EncodeToString(k.Bytes())
}
