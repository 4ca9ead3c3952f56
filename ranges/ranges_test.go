package ranges

import "testing"

func TestStackBasics(t *testing.T) {
	s := NewStack([]Entry{{Min: 0, Max: 255}, {Min: 0, Max: 255}, {Min: 0, Max: 255}})
	if s.NumChannels() != 3 {
		t.Fatalf("NumChannels = %d, want 3", s.NumChannels())
	}
	if s.Entry(0).Width() != 256 {
		t.Fatalf("Width = %d, want 256", s.Entry(0).Width())
	}
	s.Set(1, Entry{Min: -255, Max: 255})
	if s.Min(1) != -255 || s.Max(1) != 255 {
		t.Fatalf("Set did not take effect: %+v", s.Entry(1))
	}
}

func TestStackReplace(t *testing.T) {
	s := NewStack([]Entry{{Min: 0, Max: 255}, {Min: 0, Max: 255}, {Min: 0, Max: 255}})
	s.Replace([]Entry{{Min: 0, Max: 10}})
	if s.NumChannels() != 1 {
		t.Fatalf("NumChannels after Replace = %d, want 1", s.NumChannels())
	}
}

func TestEntriesCopyIsIndependent(t *testing.T) {
	s := NewStack([]Entry{{Min: 0, Max: 1}})
	snap := s.Entries()
	s.Set(0, Entry{Min: 5, Max: 5})
	if snap[0].Max != 1 {
		t.Fatalf("Entries() snapshot was mutated by a later Set")
	}
}
