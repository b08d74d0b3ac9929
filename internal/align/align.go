// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package align implements power-of-two alignment math.
package align

// Int is the set of types that can be aligned.
type Int interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uintptr
}

// UpWithMask rounds v up using mask (alignment - 1).
func UpWithMask[T Int](v, mask T) T { return (v + mask) &^ mask }

// DownWithMask rounds v down using mask (alignment - 1).
func DownWithMask[T Int](v, mask T) T { return v &^ mask }

// Up rounds v up to a multiple of alignment.
// alignment must be a power of two.
func Up[T Int](v, alignment T) T { return UpWithMask(v, alignment-1) }

// Down rounds v down to a multiple of alignment.
// alignment must be a power of two.
func Down[T Int](v, alignment T) T { return DownWithMask(v, alignment-1) }

// Is reports whether v is a multiple of alignment.
// alignment must be a power of two.
func Is[T Int](v, alignment T) bool { return v&(alignment-1) == 0 }

// DivideByMultiple returns the number of alignment-sized
// blocks needed to hold v.
func DivideByMultiple[T Int](v, alignment T) T { return (v + alignment - 1) / alignment }

// IsPowerOfTwo reports whether v is a power of two.
// Zero is not.
func IsPowerOfTwo[T Int](v T) bool { return v != 0 && v&(v-1) == 0 }
