package mem

import "testing"

func TestPageSize(t *testing.T) {
	specs := []struct {
		size      PageSize
		expBytes  Size
		expLevel  uint8
		expString string
	}{
		{Size4KiB, 4 * Kb, 1, "4KiB"},
		{Size2MiB, 2 * Mb, 2, "2MiB"},
		{Size1GiB, Gb, 3, "1GiB"},
	}

	for specIndex, spec := range specs {
		if got := spec.size.Bytes(); got != spec.expBytes {
			t.Errorf("[spec %d] expected Bytes to return %d; got %d", specIndex, spec.expBytes, got)
		}
		if got := spec.size.Level(); got != spec.expLevel {
			t.Errorf("[spec %d] expected Level to return %d; got %d", specIndex, spec.expLevel, got)
		}
		if got := spec.size.String(); got != spec.expString {
			t.Errorf("[spec %d] expected String to return %q; got %q", specIndex, spec.expString, got)
		}
	}
}
