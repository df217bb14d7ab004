package checksum

import "testing"

func TestChecksumDeterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := Checksum(data)
	b := Checksum(data)
	if a != b {
		t.Fatalf("checksum not deterministic: %d != %d", a, b)
	}
}

func TestChecksumEmpty(t *testing.T) {
	if got := Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = %d, want 0", got)
	}
}

func TestChecksumWriteSplitMatchesOneShot(t *testing.T) {
	data := make([]byte, 20000)
	for i := range data {
		data[i] = byte(i * 37)
	}
	want := Checksum(data)

	d := New()
	for _, chunk := range [][]byte{data[:1000], data[1000:6000], data[6000:]} {
		if _, err := d.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Sum16(); got != want {
		t.Errorf("split write checksum = %d, want %d", got, want)
	}
}

func TestSumAppendsBigEndianBytes(t *testing.T) {
	d := New()
	_, _ = d.Write([]byte{1, 2, 3})
	s16 := d.Sum16()
	got := d.Sum(nil)
	if len(got) != 2 || got[0] != byte(s16>>8) || got[1] != byte(s16) {
		t.Errorf("Sum(nil) = %v, want big-endian encoding of %d", got, s16)
	}
}
