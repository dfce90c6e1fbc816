package vm

import "testing"

func TestResolveNativePackageCachesResult(t *testing.T) {
	calls := 0
	r := NewImportResolver(nil, false, 0, "")
	r.RegisterNative("math", func() *Value {
		calls++
		return newIntValue(1)
	})

	v1, err := r.Resolve("math", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := r.Resolve("math", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1 != v2 {
		t.Fatal("expected the cached value to be returned on the second resolve")
	}
	if calls != 1 {
		t.Fatalf("expected the native package thunk to run exactly once, got %d calls", calls)
	}
}

func TestResolveUnknownPackageErrors(t *testing.T) {
	r := NewImportResolver(nil, false, 0, "")
	if _, err := r.Resolve("nope", nil); err == nil {
		t.Fatal("expected an error resolving an unregistered package")
	}
}

func TestResolveFileImportDisabledByHost(t *testing.T) {
	r := NewImportResolver(nil, false, 0, "")
	if _, err := r.Resolve("foo.atom", nil); err == nil {
		t.Fatal("expected file import to be rejected when importFiles is false")
	}
}

func TestResolveFileImportMissingFileErrors(t *testing.T) {
	r := NewImportResolver(nil, true, 0, t.TempDir())
	path := t.TempDir() + "/missing.atom"
	if _, err := r.Resolve(path, nil); err == nil {
		t.Fatal("expected an error for a nonexistent file import")
	}
}

func TestRegisterModuleSeedsCache(t *testing.T) {
	r := NewImportResolver(nil, false, 0, "")
	v := newIntValue(42)
	r.RegisterModule("preloaded", v)
	got, err := r.Resolve("preloaded", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != v {
		t.Fatal("expected the preloaded module value back unchanged")
	}
}

func TestNewImportResolverDefaultsMaxSize(t *testing.T) {
	r := NewImportResolver(nil, true, 0, "")
	if r.maxSize != DefaultMaxImportSize {
		t.Fatalf("expected default max import size %d, got %d", DefaultMaxImportSize, r.maxSize)
	}
}
