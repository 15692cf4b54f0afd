package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"reflect"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func u64Ptr(v uint64) *uint64 { return &v }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		product *Product
	}{
		{
			name: "all fields set",
			product: &Product{
				ID:              42,
				Name:            "Arabica beans",
				Origin:          "Colombia",
				CurrentLocation: "Rotterdam",
				Status:          "In Transit",
				Certification:   strPtr("Fairtrade"),
				IoTData:         strPtr(`{"temp":18.2,"humidity":61}`),
				Timestamp:       1712000000000000000,
				LastUpdate:      u64Ptr(1712000360000000000),
			},
		},
		{
			name: "optional fields absent",
			product: &Product{
				ID:              0,
				Name:            "Steel coil",
				Origin:          "Sweden",
				CurrentLocation: "Gothenburg",
				Status:          "Manufactured",
				Timestamp:       1,
			},
		},
		{
			name: "empty strings",
			product: &Product{
				ID:        7,
				Timestamp: 99,
			},
		},
		{
			name: "unicode fields",
			product: &Product{
				ID:              18446744073709551615,
				Name:            "咖啡豆",
				Origin:          "São Tomé",
				CurrentLocation: "Zürich",
				Status:          "Delivered ✓",
				Timestamp:       1712000000000000000,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.product)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(data) != EncodedSize(tc.product) {
				t.Errorf("encoded length %d, EncodedSize reported %d", len(data), EncodedSize(tc.product))
			}
			if len(data) > MaxEncodedSize {
				t.Errorf("encoded length %d exceeds MaxEncodedSize %d", len(data), MaxEncodedSize)
			}

			decoded, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.product) {
				t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", decoded, tc.product)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	p := &Product{
		ID:              3,
		Name:            "Olive oil",
		Origin:          "Greece",
		CurrentLocation: "Athens",
		Status:          "Manufactured",
		Timestamp:       12345,
	}

	a, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Encode produced different bytes for the same product")
	}
}

func TestEncodeRecordTooLarge(t *testing.T) {
	p := &Product{
		ID:              1,
		Name:            "Bulk cargo",
		Origin:          "Unknown",
		CurrentLocation: "Dock 4",
		Status:          "Stored",
		IoTData:         strPtr(strings.Repeat("x", MaxEncodedSize)),
		Timestamp:       1,
	}

	_, err := Encode(p)
	if !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("expected ErrRecordTooLarge, got %v", err)
	}
}

func TestDecodeCorruptInputs(t *testing.T) {
	valid, err := Encode(&Product{
		ID:              9,
		Name:            "Cocoa",
		Origin:          "Ghana",
		CurrentLocation: "Accra",
		Status:          "Manufactured",
		Certification:   strPtr("Organic"),
		Timestamp:       555,
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	reseal := func(b []byte) []byte {
		binary.LittleEndian.PutUint32(b[0:], crc32.ChecksumIEEE(b[4:]))
		return b
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"shorter than header", valid[:3]},
		{"truncated body", valid[:len(valid)-4]},
		{
			"flipped payload byte",
			func() []byte {
				b := append([]byte(nil), valid...)
				b[len(b)-1] ^= 0xFF
				return b
			}(),
		},
		{
			"unknown version",
			func() []byte {
				b := append([]byte(nil), valid...)
				b[4] = FormatVersion + 1
				return reseal(b)
			}(),
		},
		{
			"invalid presence flag",
			func() []byte {
				b := append([]byte(nil), valid...)
				// LastUpdate flag sits right after header + ID + Timestamp.
				b[headerSize+16] = 2
				return reseal(b)
			}(),
		},
		{
			"trailing bytes",
			reseal(append(append([]byte(nil), valid...), 0x00)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.data); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("expected ErrCorruptRecord, got %v", err)
			}
		})
	}
}

func TestEncodedSizeAccountsForOptionals(t *testing.T) {
	base := &Product{
		ID:              1,
		Name:            "n",
		Origin:          "o",
		CurrentLocation: "l",
		Status:          "s",
		Timestamp:       1,
	}
	withOptionals := &Product{
		ID:              1,
		Name:            "n",
		Origin:          "o",
		CurrentLocation: "l",
		Status:          "s",
		Certification:   strPtr("cert"),
		IoTData:         strPtr("iot"),
		Timestamp:       1,
		LastUpdate:      u64Ptr(2),
	}

	// LastUpdate adds 8, each optional string adds 2+len.
	want := EncodedSize(base) + 8 + 2 + 4 + 2 + 3
	if got := EncodedSize(withOptionals); got != want {
		t.Errorf("EncodedSize with optionals = %d, want %d", got, want)
	}
}
