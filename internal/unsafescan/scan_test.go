//go:build unit

package unsafescan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/unsafescan"
)

func TestScanSource(t *testing.T) {
	t.Parallel()

	t.Run("should count each unsafe position separately", func(t *testing.T) {
		t.Parallel()

		// given
		src := `
unsafe fn alloc_raw() {}
pub unsafe fn free_raw() {}

struct Buf;

impl Buf {
    unsafe fn grow(&mut self) {
        unsafe { core::ptr::null::<u8>(); }
    }
}

unsafe trait PinnedDrop {}
unsafe impl PinnedDrop for Buf {}

fn safe() {
    let _x = unsafe { 1 };
}
`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.Equal(t, entities.UnsafeCounters{
			Functions:   2,
			Expressions: 2,
			Impls:       1,
			Traits:      1,
			Methods:     1,
		}, counters)
	})

	t.Run("should ignore unsafe inside comments and strings", func(t *testing.T) {
		t.Parallel()

		// given
		src := `
// unsafe fn in a line comment
/* unsafe { } in a block /* nested */ comment */
fn f() {
    let _s = "unsafe fn quoted";
    let _r = r#"unsafe { raw }"#;
    let _b = b"unsafe bytes";
}
`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.False(t, counters.HasUnsafe())
	})

	t.Run("should skip test functions and test modules", func(t *testing.T) {
		t.Parallel()

		// given
		src := `
#[test]
fn exercises_unsafe() {
    unsafe { dangerous() }
}

#[cfg(test)]
mod tests {
    unsafe fn helper() {}
    unsafe impl Marker for u8 {}
}

#[cfg(not(test))]
unsafe fn production_only() {}
`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.Equal(t, entities.UnsafeCounters{Functions: 1}, counters)
	})

	t.Run("should count an unsafe extern fn as a function", func(t *testing.T) {
		t.Parallel()

		// given
		src := `unsafe extern "C" fn callback(arg: *const u8) {}`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.Equal(t, entities.UnsafeCounters{Functions: 1}, counters)
	})

	t.Run("should count an unsafe fn declared in a trait as a method", func(t *testing.T) {
		t.Parallel()

		// given
		src := `
trait RawAccess {
    unsafe fn as_ptr(&self) -> *const u8;
}
`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.Equal(t, entities.UnsafeCounters{Methods: 1}, counters)
	})

	t.Run("should not trip over lifetimes or generic brackets", func(t *testing.T) {
		t.Parallel()

		// given
		src := `
fn get<'a, T: AsRef<str>>(x: &'a T) -> &'a str {
    unsafe { core::mem::transmute(x.as_ref()) }
}
`

		// when
		counters := unsafescan.ScanSource(src)

		// then
		assert.Equal(t, entities.UnsafeCounters{Expressions: 1}, counters)
	})
}

func TestScanFile(t *testing.T) {
	t.Parallel()

	t.Run("should scan a rust file from disk", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "lib.rs")
		require.NoError(t, os.WriteFile(path, []byte("unsafe fn f() {}\n"), 0o644))

		// when
		counters, err := unsafescan.ScanFile(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(1), counters.Functions)
	})

	t.Run("should reject files that are not rust sources", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "build.py")
		require.NoError(t, os.WriteFile(path, []byte("unsafe = True\n"), 0o644))

		// when
		counters, err := unsafescan.ScanFile(path)

		// then
		assert.ErrorIs(t, err, unsafescan.ErrNotRustFile)
		assert.Nil(t, counters)
	})
}
