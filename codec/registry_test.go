package codec_test

import (
	"errors"
	"testing"

	flif16 "github.com/cocosip/flif16"
	"github.com/cocosip/flif16/codec"
)

// flif16's package init registers a *flif16.Codec under both "FLIF16" (the
// name) and "FLIF16" (the UID) — same string for both, since FLIF16 has no
// DICOM-style transfer-syntax UID of its own.
func TestRegistryGet(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantFound bool
	}{
		{name: "by name", key: "FLIF16", wantFound: true},
		{name: "non-existent", key: "does-not-exist", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := codec.Get(tt.key)
			if tt.wantFound {
				if err != nil {
					t.Fatalf("Get(%q): %v", tt.key, err)
				}
				if c.Name() != "FLIF16" || c.UID() != "FLIF16" {
					t.Fatalf("Get(%q) = name %q uid %q, want FLIF16/FLIF16", tt.key, c.Name(), c.UID())
				}
			} else if !errors.Is(err, codec.ErrCodecNotFound) {
				t.Fatalf("Get(%q) error = %v, want ErrCodecNotFound", tt.key, err)
			}
		})
	}
}

func TestRegistryList(t *testing.T) {
	found := false
	for _, c := range codec.List() {
		if c.Name() == "FLIF16" {
			found = true
		}
	}
	if !found {
		t.Fatal("List() does not contain the registered FLIF16 codec")
	}
}

func TestCodecEncodeUnsupported(t *testing.T) {
	c, err := codec.Get("FLIF16")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Encode(codec.EncodeParams{}); !errors.Is(err, flif16.ErrUnsupported) {
		t.Fatalf("Encode error = %v, want ErrUnsupported", err)
	}
}

func TestCodecDecodeTruncated(t *testing.T) {
	c, err := codec.Get("FLIF16")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Decode(nil); !errors.Is(err, flif16.ErrInvalidData) {
		t.Fatalf("Decode(nil) error = %v, want ErrInvalidData", err)
	}
}
