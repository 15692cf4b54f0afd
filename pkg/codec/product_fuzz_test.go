//go:build fuzz
// +build fuzz

package codec

import (
	"errors"
	"reflect"
	"testing"
)

// FuzzRoundTrip checks the round-trip law for arbitrary field contents.
func FuzzRoundTrip(f *testing.F) {
	f.Add("beans", "Colombia", "Rotterdam", "In Transit", "Fairtrade", `{"temp":18}`)
	f.Add("", "", "", "", "", "")
	f.Add("名前", "産地", "現在地", "状態", "", "")

	f.Fuzz(func(t *testing.T, name, origin, location, status, cert, iot string) {
		p := &Product{
			ID:              123,
			Name:            name,
			Origin:          origin,
			CurrentLocation: location,
			Status:          status,
			Timestamp:       456,
		}
		if cert != "" {
			p.Certification = &cert
		}
		if iot != "" {
			p.IoTData = &iot
		}

		data, err := Encode(p)
		if err != nil {
			if errors.Is(err, ErrRecordTooLarge) && EncodedSize(p) > MaxEncodedSize {
				t.Skip("input exceeds the record size bound")
			}
			t.Fatalf("Encode failed: %v", err)
		}

		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !reflect.DeepEqual(decoded, p) {
			t.Fatalf("round-trip mismatch:\n got %+v\nwant %+v", decoded, p)
		}
	})
}

// FuzzDecodeNeverPanics feeds arbitrary bytes to Decode.
func FuzzDecodeNeverPanics(f *testing.F) {
	seed, _ := Encode(&Product{ID: 1, Name: "n", Origin: "o", CurrentLocation: "l", Status: "s", Timestamp: 1})
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01, 0x02, 0x03, 0x04})

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Decode(data)
		if err == nil && p == nil {
			t.Fatal("Decode returned nil product without an error")
		}
	})
}
